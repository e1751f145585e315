package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/dvergaraf/wacrm/infrastructure/valkey"
)

// DefaultHistorySize is how many notifications a late-joining dashboard
// client gets replayed.
const DefaultHistorySize = 100

// Transport is one connected dashboard client. Send must be safe to call
// from the hub goroutine; implementations serialize their own writes.
type Transport interface {
	Send(n Notification) error
	Close()
}

// Hub fans notifications out to every registered dashboard client and
// keeps a bounded history so reconnecting clients catch up. When a Valkey
// client is attached, broadcasts also propagate to the other instances.
type Hub struct {
	mu      sync.Mutex
	clients map[string]Transport

	history []Notification
	idx     int
	count   int

	vk      *valkey.Client
	wsChan  string
	localID string
}

func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Hub{
		clients: make(map[string]Transport),
		history: make([]Notification, historySize),
	}
}

// SetValkeyClient enables distributed broadcast across instances.
func (h *Hub) SetValkeyClient(client *valkey.Client, serverID string) {
	h.vk = client
	h.wsChan = client.Key("ws_broadcast")
	h.localID = serverID
}

// Register adds a client under id, replacing and closing any previous
// client with the same id. The stored history is replayed oldest first,
// then the client gets a direct connection notice. The whole sequence
// runs under the hub lock so a concurrent Broadcast cannot interleave a
// live notification into the replay.
func (h *Hub) Register(id string, t Transport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.clients[id]; ok {
		delete(h.clients, id)
		prev.Close()
	}

	replay := h.snapshotLocked()
	for _, n := range replay {
		if err := t.Send(n); err != nil {
			logrus.Debugf("[WS] Replay a %s falló: %v", id, err)
			t.Close()
			return
		}
	}

	connected := NewNotification(TypeConnectionStatus, map[string]any{"status": "connected", "client_id": id})
	if err := t.Send(connected); err != nil {
		t.Close()
		return
	}

	h.clients[id] = t
	logrus.Debugf("[WS] Cliente %s registrado (%d eventos reenviados)", id, len(replay))
}

// Remove drops a client. Removing an unknown id is a no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	t, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if ok {
		t.Close()
		logrus.Debugf("[WS] Cliente %s desconectado", id)
	}
}

// Broadcast stores the notification in history and delivers it to every
// client. A client whose send fails is removed; the rest still get it.
func (h *Hub) Broadcast(notifType string, payload map[string]any) {
	n := NewNotification(notifType, payload)
	h.deliver(n, true)

	if h.vk != nil {
		h.publishToValkey(n)
	}
}

// SendTo delivers a notification to a single client. Everything except
// connection notices lands in the shared history, same as a broadcast.
// Returns false when the client is unknown.
func (h *Hub) SendTo(id, notifType string, payload map[string]any) bool {
	n := NewNotification(notifType, payload)

	h.mu.Lock()
	t, ok := h.clients[id]
	if !ok {
		h.mu.Unlock()
		return false
	}
	if n.Type != TypeConnectionStatus {
		h.storeLocked(n)
	}
	h.mu.Unlock()

	if err := t.Send(n); err != nil {
		h.Remove(id)
		return false
	}
	return true
}

// NotifyNewMessage publishes a processed-message event to the dashboard.
func (h *Hub) NotifyNewMessage(payload map[string]any) {
	h.Broadcast(TypeNewMessage, payload)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// History returns the stored notifications oldest first.
func (h *Hub) History() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) deliver(n Notification, store bool) {
	h.mu.Lock()
	if store {
		h.storeLocked(n)
	}

	var failed []string
	for id, t := range h.clients {
		if err := t.Send(n); err != nil {
			logrus.Debugf("[WS] Envío a %s falló: %v", id, err)
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		if t, ok := h.clients[id]; ok {
			delete(h.clients, id)
			t.Close()
		}
	}
	h.mu.Unlock()
}

func (h *Hub) storeLocked(n Notification) {
	h.history[h.idx] = n
	h.idx = (h.idx + 1) % len(h.history)
	if h.count < len(h.history) {
		h.count++
	}
}

func (h *Hub) snapshotLocked() []Notification {
	res := make([]Notification, 0, h.count)
	start := (h.idx - h.count + len(h.history)) % len(h.history)
	for i := 0; i < h.count; i++ {
		res = append(res, h.history[(start+i)%len(h.history)])
	}
	return res
}

func (h *Hub) publishToValkey(n Notification) {
	n.SenderID = h.localID

	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	ctx := context.Background()
	cmd := h.vk.Inner().B().Publish().Channel(h.wsChan).Message(string(data)).Build()
	if err := h.vk.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.Errorf("[WS] Failed to publish to Valkey: %v", err)
	}
}

// StartValkeySubscriber consumes broadcasts published by other instances.
// Call it once after SetValkeyClient.
func (h *Hub) StartValkeySubscriber(ctx context.Context) {
	if h.vk == nil {
		return
	}

	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		err := h.vk.Inner().Receive(ctx, h.vk.Inner().B().Subscribe().Channel(h.wsChan).Build(), func(msg valkeylib.PubSubMessage) {
			var n Notification
			if err := json.Unmarshal([]byte(msg.Message), &n); err != nil {
				return
			}
			// Avoid loops: ignore messages sent by this same instance
			if n.SenderID == h.localID {
				return
			}
			h.deliver(n, true)
		})
		if err != nil && ctx.Err() == nil {
			logrus.Errorf("[WS] Valkey subscriber failed: %v", err)
		}
	}()
}
