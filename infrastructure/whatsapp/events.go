package whatsapp

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/pipeline"
	"github.com/dvergaraf/wacrm/pkg/chatpresence"
	"github.com/dvergaraf/wacrm/pkg/msgworker"
	"github.com/dvergaraf/wacrm/pkg/utils"
	"github.com/dvergaraf/wacrm/ui/websocket"
)

// EventBridge converts whatsmeow events into pipeline work and pushes
// connection state changes to the dashboard.
type EventBridge struct {
	pool       *msgworker.Pool
	dispatcher *pipeline.Dispatcher
	hub        *websocket.Hub
}

func NewEventBridge(pool *msgworker.Pool, dispatcher *pipeline.Dispatcher, hub *websocket.Hub) *EventBridge {
	return &EventBridge{pool: pool, dispatcher: dispatcher, hub: hub}
}

func (b *EventBridge) Handle(ctx context.Context, rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		b.handleMessage(ctx, evt)
	case *events.Connected, *events.PushNameSetting:
		if client := GetClient(); client != nil && len(client.Store.PushName) > 0 {
			client.SendPresence(context.Background(), types.PresenceAvailable)
		}
		b.notifyStatus("connected", "")
	case *events.ChatPresence:
		b.handleChatPresence(evt)
	case *events.PairSuccess:
		logrus.Infof("[WHATSAPP] Successfully paired with %s", evt.ID.String())
		b.notifyStatus("paired", evt.ID.String())
	case *events.Disconnected:
		b.notifyStatus("disconnected", "")
	case *events.LoggedOut:
		logrus.Warn("[WHATSAPP] Session logged out remotely")
		b.notifyStatus("logged_out", "")
	case *events.StreamReplaced:
		os.Exit(0)
	}
}

func (b *EventBridge) handleMessage(ctx context.Context, evt *events.Message) {
	chatStr := evt.Info.Chat.String()
	if shouldIgnoreChat(evt, chatStr) {
		return
	}

	body := utils.ExtractMessageText(evt.Message)

	// Auto-read
	if config.Global.Whatsapp.AutoMarkRead && !evt.Info.IsFromMe {
		if client := GetClient(); client != nil {
			client.MarkRead(context.Background(), []types.MessageID{evt.Info.ID}, time.Now(), evt.Info.Chat, evt.Info.Sender)
		}
	}

	me := pipeline.MessageEvent{
		ChatID:    utils.FormatJID(chatStr).String(),
		MessageID: string(evt.Info.ID),
		Body:      body,
		FromUser:  !evt.Info.IsFromMe,
		Timestamp: evt.Info.Timestamp,
		PushName:  evt.Info.PushName,
		TraceID:   string(evt.Info.ID),
	}

	if !b.pool.TryDispatch(msgworker.Job{
		ChatID: me.ChatID,
		Handler: func(workerCtx context.Context) error {
			b.dispatcher.Handle(workerCtx, me)
			return nil
		},
	}) {
		logrus.Warnf("[WHATSAPP] Worker queue full, message %s dropped", me.MessageID)
	}
}

// handleChatPresence tracks contact typing and mirrors it to the dashboard
// so operators can see live activity per chat.
func (b *EventBridge) handleChatPresence(evt *events.ChatPresence) {
	raw := strings.TrimSpace(evt.Chat.String())
	if raw == "" || utils.IsGroupJID(raw) || strings.HasPrefix(raw, "status@") {
		return
	}
	chatID := utils.FormatJID(raw).String()
	chatpresence.Update(chatID, evt.State, evt.Media)
	if b.hub != nil {
		b.hub.Broadcast(websocket.TypeUserAction, map[string]any{
			"action":    "contact_typing",
			"chat_id":   chatID,
			"composing": evt.State == types.ChatPresenceComposing,
		})
	}
}

// shouldIgnoreChat filters groups, broadcasts and status updates; the
// pipeline only answers direct conversations.
func shouldIgnoreChat(evt *events.Message, chatStr string) bool {
	if utils.IsGroupJID(chatStr) || evt.Info.IsIncomingBroadcast() {
		return true
	}
	src := strings.ToLower(strings.TrimSpace(evt.Info.SourceString()))
	return strings.HasPrefix(chatStr, "status@") ||
		strings.HasSuffix(chatStr, "@broadcast") ||
		strings.Contains(src, "status@broadcast") ||
		strings.EqualFold(strings.TrimSpace(evt.Info.Category), "status")
}

func (b *EventBridge) notifyStatus(status, deviceID string) {
	if b.hub == nil {
		return
	}
	payload := map[string]any{"status": status}
	if deviceID != "" {
		payload["device_id"] = deviceID
	}
	b.hub.Broadcast(websocket.TypeStatusChange, payload)
}
