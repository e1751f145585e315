package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	fiberUtils "github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"

	"github.com/dvergaraf/wacrm/config"
)

var (
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrSessionSaved    = errors.New("session saved, reconnected without QR")
	ErrClientNotReady  = errors.New("whatsapp client is not initialized")
)

// LoginResult carries the QR handoff for a fresh pairing.
type LoginResult struct {
	ImagePath string
	Code      string
	Duration  time.Duration
}

// Login starts a QR pairing session. The QR image is written under the
// configured qrcode path and removed after it expires.
func Login(ctx context.Context) (LoginResult, error) {
	var result LoginResult

	client := GetClient()
	if client == nil {
		return result, ErrClientNotReady
	}

	// Se reinicia la conexion para obtener un canal QR limpio.
	client.Disconnect()

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		if errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
			_ = client.Connect()
			if client.IsLoggedIn() {
				return result, ErrAlreadyLoggedIn
			}
			return result, ErrSessionSaved
		}
		return result, err
	}

	chImage := make(chan LoginResult)
	go func() {
		for evt := range qrChan {
			if evt.Event != "code" {
				logrus.Errorf("[APP] QR channel event %s: %v", evt.Event, evt.Error)
				continue
			}
			duration := evt.Timeout / 2
			qrPath := fmt.Sprintf("%s/scan-qr-%s.png", config.Global.Paths.QRCode, fiberUtils.UUIDv4())
			if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, qrPath); err != nil {
				logrus.Error("[APP] Error writing QR image: ", err)
			}
			go func(path string, after time.Duration) {
				time.Sleep(after)
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					logrus.Error("[APP] Error removing expired QR image: ", err)
				}
			}(qrPath, duration)
			chImage <- LoginResult{ImagePath: qrPath, Code: evt.Code, Duration: duration}
		}
	}()

	if err := client.Connect(); err != nil {
		return result, fmt.Errorf("connect for login: %w", err)
	}
	result = <-chImage
	return result, nil
}

// LoginWithCode pairs via phone number instead of QR scan.
func LoginWithCode(ctx context.Context, phoneNumber string) (string, error) {
	client := GetClient()
	if client == nil {
		return "", ErrClientNotReady
	}
	if client.IsLoggedIn() || client.Store.ID != nil {
		return "", ErrAlreadyLoggedIn
	}
	if !client.IsConnected() {
		if err := client.Connect(); err != nil {
			return "", fmt.Errorf("connect for pairing: %w", err)
		}
	}
	code, err := client.PairPhone(ctx, phoneNumber, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return "", err
	}
	logrus.Infof("[APP] Phone pairing code issued for %s", phoneNumber)
	return code, nil
}

// Logout removes the stored device session and disconnects.
func Logout(ctx context.Context) error {
	client := GetClient()
	if client == nil {
		return ErrClientNotReady
	}
	if err := client.Logout(ctx); err != nil {
		return err
	}
	logrus.Info("[APP] Session logged out")
	return nil
}

// Reconnect drops and re-establishes the websocket connection.
func Reconnect() error {
	client := GetClient()
	if client == nil {
		return ErrClientNotReady
	}
	client.Disconnect()
	return client.Connect()
}

// Connect dials with the stored session, if any. Called at boot so an
// already-paired device comes online without operator action.
func Connect() error {
	client := GetClient()
	if client == nil {
		return ErrClientNotReady
	}
	if client.IsConnected() {
		return nil
	}
	if client.Store.ID == nil {
		logrus.Info("[APP] No stored session; login required before connecting")
		return nil
	}
	return client.Connect()
}
