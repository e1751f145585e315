package pipeline

import "time"

// MessageEvent is the normalized inbound message the pipeline works on,
// regardless of which transport delivered it.
type MessageEvent struct {
	ChatID    string
	MessageID string
	Body      string
	FromUser  bool
	Timestamp time.Time
	PushName  string
	TraceID   string
}
