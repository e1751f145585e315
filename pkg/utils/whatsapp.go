package utils

import (
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
)

// FormatJID normalizes a raw JID string into a bare user JID, dropping any
// device part so replies always target the conversation.
func FormatJID(raw string) types.JID {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.JID{}
	}
	if !strings.ContainsRune(trimmed, '@') {
		trimmed += "@" + types.DefaultUserServer
	}
	jid, err := types.ParseJID(trimmed)
	if err != nil {
		return types.JID{}
	}
	return jid.ToNonAD()
}

// IsGroupJID reports whether the JID belongs to a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@"+types.GroupServer)
}

// ExtractMessageText pulls the plain-text body out of a message proto,
// unwrapping view-once and ephemeral envelopes.
func ExtractMessageText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}

	unwrap := func(m *waE2E.Message) *waE2E.Message {
		if v := m.GetViewOnceMessage(); v != nil {
			return v.GetMessage()
		}
		if v := m.GetEphemeralMessage(); v != nil {
			return v.GetMessage()
		}
		if v := m.GetViewOnceMessageV2(); v != nil {
			return v.GetMessage()
		}
		if v := m.GetViewOnceMessageV2Extension(); v != nil {
			return v.GetMessage()
		}
		return nil
	}
	inner := msg
	for i := 0; i < 3; i++ {
		if next := unwrap(inner); next != nil {
			inner = next
		} else {
			break
		}
	}

	if text := inner.GetConversation(); text != "" {
		return text
	}
	if ext := inner.GetExtendedTextMessage(); ext != nil && ext.GetText() != "" {
		return ext.GetText()
	}
	if pm := inner.GetProtocolMessage(); pm != nil && pm.GetEditedMessage() != nil {
		ed := pm.GetEditedMessage()
		if ed.GetConversation() != "" {
			return ed.GetConversation()
		}
		if ext := ed.GetExtendedTextMessage(); ext != nil {
			return ext.GetText()
		}
	}
	if img := inner.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	if vid := inner.GetVideoMessage(); vid != nil {
		return vid.GetCaption()
	}
	return ""
}
