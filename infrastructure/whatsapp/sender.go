package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/dvergaraf/wacrm/pkg/utils"
)

// Sender delivers outbound text over the connected WhatsApp session.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// SendText sends a plain text message to chatID. The chat JID is
// normalized first so replies never target a device part.
func (s *Sender) SendText(ctx context.Context, chatID, text string) error {
	client := GetClient()
	if client == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if !client.IsConnected() {
		return fmt.Errorf("whatsapp client not connected")
	}

	recipientJID := utils.FormatJID(chatID)
	if recipientJID.String() == "" {
		return fmt.Errorf("invalid chat jid %q", chatID)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty message body")
	}

	// Typing indicator so the reply does not land out of thin air.
	_ = client.SendChatPresence(ctx, recipientJID, types.ChatPresenceComposing, types.ChatPresenceMediaText)
	defer client.SendChatPresence(ctx, recipientJID, types.ChatPresencePaused, types.ChatPresenceMediaText)

	msg := &waE2E.Message{Conversation: proto.String(text)}
	_, err := client.SendMessage(ctx, recipientJID, msg)
	return err
}
