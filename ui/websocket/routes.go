package websocket

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// connTransport adapts a fiber websocket connection to the hub. The write
// mutex is required: the hub goroutine and the replay path may write
// concurrently and gorilla conns allow a single writer.
type connTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *connTransport) Send(n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(n)
}

func (t *connTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = t.conn.Close()
}

// RegisterRoutes mounts the dashboard websocket endpoint. Clients may pin
// their identity with ?client_id= so a reconnect replaces the stale
// connection instead of leaking it.
func RegisterRoutes(app fiber.Router, hub *Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		clientID := conn.Query("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		hub.Register(clientID, &connTransport{conn: conn})
		defer hub.Remove(clientID)

		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.Debugf("[WS] read error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				logrus.Debugf("[WS] unsupported message type: %d", messageType)
			}
			// Inbound frames are ignored; the dashboard drives actions
			// through the REST API.
		}
	}))
}
