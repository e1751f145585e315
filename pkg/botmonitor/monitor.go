package botmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	StageInbound    = "inbound"
	StageAIRequest  = "ai_request"
	StageAIResponse = "ai_response"
	StageOutbound   = "outbound"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
	// StatusPending marca una petición emitida cuyo desenlace aún no se
	// conoce; el desenlace llega como un evento de etapa posterior.
	StatusPending = "pending"
)

// Event is one observation of the inbound pipeline. Stages follow a message
// through its lifetime: inbound -> ai_request -> ai_response -> outbound.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	TraceID    string    `json:"trace_id"`
	ChatID     string    `json:"chat_id"`
	AgentID    string    `json:"agent_id"`
	Provider   string    `json:"provider"`
	Stage      string    `json:"stage"`       // inbound | ai_request | ai_response | outbound
	Status     string    `json:"status"`      // ok | error | skipped
	Error      string    `json:"error"`       // optional
	DurationMs int64     `json:"duration_ms"` // optional
}

type Stats struct {
	TotalInbound    int64   `json:"total_inbound"`
	TotalAIRequests int64   `json:"total_ai_requests"`
	TotalAIReplies  int64   `json:"total_ai_replies"`
	TotalOutbound   int64   `json:"total_outbound"`
	TotalSkipped    int64   `json:"total_skipped"`
	TotalErrors     int64   `json:"total_errors"`
	RecentEvents    []Event `json:"recent_events"`
}

// Monitor keeps pipeline counters plus a fixed-size ring of recent events
// for the dashboard's monitoring view.
type Monitor struct {
	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int

	totalInbound    int64
	totalAIRequests int64
	totalAIReplies  int64
	totalOutbound   int64
	totalSkipped    int64
	totalErrors     int64
}

func New(size int) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{events: make([]Event, size)}
}

func (m *Monitor) Record(e Event) {
	e.Timestamp = time.Now().UTC()

	switch e.Stage {
	case StageInbound:
		atomic.AddInt64(&m.totalInbound, 1)
	case StageAIRequest:
		atomic.AddInt64(&m.totalAIRequests, 1)
	case StageAIResponse:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalAIReplies, 1)
		}
	case StageOutbound:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalOutbound, 1)
		}
	}

	switch e.Status {
	case StatusError:
		atomic.AddInt64(&m.totalErrors, 1)
	case StatusSkipped:
		atomic.AddInt64(&m.totalSkipped, 1)
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

func (m *Monitor) GetStats() Stats {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	res := make([]Event, 0, m.count)
	start := (m.idx - m.count) % len(m.events)
	if start < 0 {
		start += len(m.events)
	}
	for i := 0; i < m.count; i++ {
		res = append(res, m.events[(start+i)%len(m.events)])
	}

	return Stats{
		TotalInbound:    atomic.LoadInt64(&m.totalInbound),
		TotalAIRequests: atomic.LoadInt64(&m.totalAIRequests),
		TotalAIReplies:  atomic.LoadInt64(&m.totalAIReplies),
		TotalOutbound:   atomic.LoadInt64(&m.totalOutbound),
		TotalSkipped:    atomic.LoadInt64(&m.totalSkipped),
		TotalErrors:     atomic.LoadInt64(&m.totalErrors),
		RecentEvents:    res,
	}
}
