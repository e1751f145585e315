package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/dvergaraf/wacrm/config"
	pkgError "github.com/dvergaraf/wacrm/pkg/error"
)

var (
	globalStateMu sync.RWMutex
	cli           *whatsmeow.Client
	db            *sqlstore.Container
)

// InitWaDB opens the whatsmeow session store. Postgres URIs are honored;
// anything else runs on sqlite3.
func InitWaDB(ctx context.Context, dbURI string) *sqlstore.Container {
	container, err := initDatabase(ctx, waLog.Stdout("Database", config.Global.Whatsapp.LogLevel, true), dbURI)
	if err != nil {
		panic(pkgError.InternalServerError(fmt.Sprintf("Database initialization error: %v", err)))
	}
	return container
}

func initDatabase(ctx context.Context, dbLog waLog.Logger, dbURI string) (*sqlstore.Container, error) {
	if strings.HasPrefix(dbURI, "postgres:") {
		return sqlstore.New(ctx, "postgres", dbURI, dbLog)
	}
	// Default to sqlite3 (file:)
	return sqlstore.New(ctx, "sqlite3", dbURI, dbLog)
}

// InitWaCLI builds the whatsmeow client from the first stored device and
// wires the inbound event bridge.
func InitWaCLI(ctx context.Context, storeContainer *sqlstore.Container, bridge *EventBridge) *whatsmeow.Client {
	device, err := storeContainer.GetFirstDevice(ctx)
	if err != nil {
		panic(err)
	}
	if device == nil {
		panic("No device found")
	}

	configureDeviceProps()

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", config.Global.Whatsapp.LogLevel, true))
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true
	if bridge != nil {
		client.AddEventHandler(func(rawEvt interface{}) { bridge.Handle(ctx, rawEvt) })
	}

	globalStateMu.Lock()
	cli = client
	db = storeContainer
	globalStateMu.Unlock()

	return client
}

func configureDeviceProps() {
	osName := fmt.Sprintf("%s %s", config.Global.App.OS, config.Global.App.Version)
	store.DeviceProps.PlatformType = &config.Global.App.Platform
	store.DeviceProps.Os = &osName
}

func GetClient() *whatsmeow.Client {
	globalStateMu.RLock()
	defer globalStateMu.RUnlock()
	return cli
}

func GetDB() *sqlstore.Container {
	globalStateMu.RLock()
	defer globalStateMu.RUnlock()
	return db
}

// GetConnectionStatus reports connection state, login state and device id.
func GetConnectionStatus() (bool, bool, string) {
	client := GetClient()
	if client == nil {
		return false, false, ""
	}
	deviceID := ""
	if client.Store != nil && client.Store.ID != nil {
		deviceID = client.Store.ID.String()
	}
	return client.IsConnected(), client.IsLoggedIn(), deviceID
}

// Disconnect tears the client down cleanly.
func Disconnect() {
	if client := GetClient(); client != nil {
		client.Disconnect()
		logrus.Info("[WHATSAPP] Client disconnected")
	}
}
