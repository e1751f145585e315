package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dvergaraf/wacrm/agents"
	"github.com/dvergaraf/wacrm/pkg/botmonitor"
	"github.com/dvergaraf/wacrm/pkg/dedup"
	"github.com/dvergaraf/wacrm/pkg/liveness"
)

// DefaultGenerationTimeout bounds a single provider round trip.
const DefaultGenerationTimeout = 30 * time.Second

// Generator produces the automatic reply for an inbound message.
type Generator interface {
	GenerateReply(ctx context.Context, chatID, prompt string) (agents.Reply, error)
}

// Sender delivers outbound text to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// Notifier fans processed-message events out to dashboard clients.
type Notifier interface {
	NotifyNewMessage(payload map[string]any)
}

// Dispatcher runs the inbound pipeline for one message at a time per chat.
// The worker pool above it guarantees per-chat serialization; everything
// the dispatcher touches is still safe under concurrent calls for
// different chats.
type Dispatcher struct {
	ledger     *dedup.Ledger
	registry   *liveness.Registry
	classifier *Classifier
	generator  Generator
	sender     Sender
	notifier   Notifier
	monitor    *botmonitor.Monitor
	timeout    time.Duration
}

type DispatcherOpts struct {
	Ledger     *dedup.Ledger
	Registry   *liveness.Registry
	Classifier *Classifier
	Generator  Generator
	Sender     Sender
	Notifier   Notifier
	Monitor    *botmonitor.Monitor
	Timeout    time.Duration
}

func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGenerationTimeout
	}
	return &Dispatcher{
		ledger:     opts.Ledger,
		registry:   opts.Registry,
		classifier: opts.Classifier,
		generator:  opts.Generator,
		sender:     opts.Sender,
		notifier:   opts.Notifier,
		monitor:    opts.Monitor,
		timeout:    opts.Timeout,
	}
}

// Handle processes one inbound message end to end and reports whether a
// reply was generated and sent. It never returns an error: every failure
// is recorded and swallowed so one bad message can not take the transport
// event loop down.
func (d *Dispatcher) Handle(ctx context.Context, evt MessageEvent) bool {
	if !d.registry.IsActive(evt.ChatID) {
		d.record(evt, agents.Reply{}, botmonitor.StageInbound, botmonitor.StatusSkipped, "chat_inactive", 0)
		return false
	}

	if verdict := d.classifier.Classify(evt); !verdict.Eligible {
		logrus.Debugf("[PIPELINE] Mensaje %s descartado: %s", evt.MessageID, verdict.Reason)
		d.record(evt, agents.Reply{}, botmonitor.StageInbound, botmonitor.StatusSkipped, verdict.Reason, 0)
		return false
	}

	// Punto de no retorno: si otra entrega del mismo mensaje llegó primero,
	// esta pierde y no responde.
	if !d.ledger.MarkIfNew(evt.MessageID) {
		d.record(evt, agents.Reply{}, botmonitor.StageInbound, botmonitor.StatusSkipped, "duplicate", 0)
		return false
	}
	d.record(evt, agents.Reply{}, botmonitor.StageInbound, botmonitor.StatusOK, "", 0)

	// Se marca como procesado ANTES de generar. Si la generación falla el
	// mensaje no se reintenta: preferimos perder una respuesta a duplicarla.
	d.registry.SetLastProcessed(evt.ChatID, evt.MessageID)

	genCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	d.record(evt, agents.Reply{}, botmonitor.StageAIRequest, botmonitor.StatusPending, "", 0)
	reply, err := d.generator.GenerateReply(genCtx, evt.ChatID, evt.Body)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logrus.Warnf("[PIPELINE] Generación falló para chat %s: %v", evt.ChatID, err)
		d.record(evt, reply, botmonitor.StageAIResponse, botmonitor.StatusError, err.Error(), elapsed)
		return false
	}
	if reply.Text == "" {
		d.record(evt, reply, botmonitor.StageAIResponse, botmonitor.StatusSkipped, "empty_reply", elapsed)
		return false
	}
	d.record(evt, reply, botmonitor.StageAIResponse, botmonitor.StatusOK, "", elapsed)

	if err := d.sender.SendText(ctx, evt.ChatID, reply.Text); err != nil {
		logrus.Errorf("[PIPELINE] Envío falló para chat %s: %v", evt.ChatID, err)
		d.record(evt, reply, botmonitor.StageOutbound, botmonitor.StatusError, err.Error(), 0)
		return false
	}
	d.record(evt, reply, botmonitor.StageOutbound, botmonitor.StatusOK, "", 0)

	if d.notifier != nil {
		d.notifier.NotifyNewMessage(map[string]any{
			"chat_id":    evt.ChatID,
			"message_id": evt.MessageID,
			"body":       evt.Body,
			"reply":      reply.Text,
			"agent_id":   reply.AgentID,
			"agent_name": reply.AgentName,
			"provider":   reply.Provider,
			"push_name":  evt.PushName,
		})
	}
	return true
}

func (d *Dispatcher) record(evt MessageEvent, reply agents.Reply, stage, status, errMsg string, durationMs int64) {
	if d.monitor == nil {
		return
	}
	d.monitor.Record(botmonitor.Event{
		TraceID:    evt.TraceID,
		ChatID:     evt.ChatID,
		AgentID:    reply.AgentID,
		Provider:   reply.Provider,
		Stage:      stage,
		Status:     status,
		Error:      errMsg,
		DurationMs: durationMs,
	})
}
