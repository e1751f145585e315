package websocket

import (
	"time"

	"github.com/google/uuid"
)

// Notification types pushed to dashboard clients.
const (
	TypeNewMessage       = "NEW_MESSAGE"
	TypeStatusChange     = "STATUS_CHANGE"
	TypeConnectionStatus = "CONNECTION_STATUS"
	TypeCampaignStatus   = "CAMPAIGN_STATUS"
	TypeUserAction       = "USER_ACTION"
	TypeSystemAlert      = "SYSTEM_ALERT"
)

type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
	SenderID  string         `json:"sender_id,omitempty"`
}

func NewNotification(notifType string, payload map[string]any) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
