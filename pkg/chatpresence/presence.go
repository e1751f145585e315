package chatpresence

import (
	"strings"
	"sync"
	"time"

	"go.mau.fi/whatsmeow/types"
)

// staleAfter is how long a composing state is trusted before it expires.
// WhatsApp does not always emit a paused event when the contact stops.
const staleAfter = 12 * time.Second

type entry struct {
	composing bool
	media     types.ChatPresenceMedia
	updatedAt time.Time
}

var (
	mu    sync.Mutex
	store = map[string]entry{}
)

// Update records the latest chat presence state for a chat.
func Update(chatJID string, state types.ChatPresence, media types.ChatPresenceMedia) {
	chatJID = strings.TrimSpace(chatJID)
	if chatJID == "" {
		return
	}

	mu.Lock()
	store[chatJID] = entry{
		composing: state == types.ChatPresenceComposing,
		media:     media,
		updatedAt: time.Now(),
	}
	mu.Unlock()
}

// IsComposing reports whether the contact in chatJID is currently typing.
func IsComposing(chatJID string) bool {
	chatJID = strings.TrimSpace(chatJID)
	if chatJID == "" {
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	e, ok := store[chatJID]
	if !ok {
		return false
	}
	if time.Since(e.updatedAt) > staleAfter {
		delete(store, chatJID)
		return false
	}
	return e.composing
}

// Media returns what the contact is composing (text or audio).
func Media(chatJID string) types.ChatPresenceMedia {
	chatJID = strings.TrimSpace(chatJID)
	if chatJID == "" {
		return types.ChatPresenceMediaText
	}

	mu.Lock()
	defer mu.Unlock()
	e, ok := store[chatJID]
	if !ok || time.Since(e.updatedAt) > staleAfter {
		if ok {
			delete(store, chatJID)
		}
		return types.ChatPresenceMediaText
	}
	return e.media
}
