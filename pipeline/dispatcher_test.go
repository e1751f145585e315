package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvergaraf/wacrm/agents"
	"github.com/dvergaraf/wacrm/pkg/botmonitor"
	"github.com/dvergaraf/wacrm/pkg/clock"
	"github.com/dvergaraf/wacrm/pkg/dedup"
	"github.com/dvergaraf/wacrm/pkg/liveness"
)

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (g *stubGenerator) GenerateReply(ctx context.Context, chatID, prompt string) (agents.Reply, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return agents.Reply{}, g.err
	}
	return agents.Reply{Text: g.reply, AgentID: "a1", AgentName: "Test", Provider: "webagent"}, nil
}

func (g *stubGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *stubSender) SendText(ctx context.Context, chatID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.sent = append(s.sent, text)
	s.mu.Unlock()
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubNotifier struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (n *stubNotifier) NotifyNewMessage(payload map[string]any) {
	n.mu.Lock()
	n.payloads = append(n.payloads, payload)
	n.mu.Unlock()
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

type testPipeline struct {
	dispatcher *Dispatcher
	registry   *liveness.Registry
	generator  *stubGenerator
	sender     *stubSender
	notifier   *stubNotifier
	monitor    *botmonitor.Monitor
}

func newTestPipeline(t *testing.T, now time.Time) *testPipeline {
	t.Helper()
	reg := liveness.New()
	gen := &stubGenerator{reply: "¡Hola! ¿En qué puedo ayudarte?"}
	snd := &stubSender{}
	ntf := &stubNotifier{}
	mon := botmonitor.New(50)

	d := NewDispatcher(DispatcherOpts{
		Ledger:     dedup.New(),
		Registry:   reg,
		Classifier: NewClassifier(reg, clock.Fixed(now), DefaultRecencyWindow),
		Generator:  gen,
		Sender:     snd,
		Notifier:   ntf,
		Monitor:    mon,
	})
	return &testPipeline{dispatcher: d, registry: reg, generator: gen, sender: snd, notifier: ntf, monitor: mon}
}

func freshEvent(now time.Time) MessageEvent {
	return MessageEvent{
		ChatID:    "c1",
		MessageID: "m1",
		Body:      "Hola",
		FromUser:  true,
		Timestamp: now.Add(-5 * time.Second),
	}
}

func TestHandleHappyPath(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")

	sent := p.dispatcher.Handle(context.Background(), freshEvent(now))

	assert.True(t, sent)
	require.Equal(t, 1, p.generator.count())
	require.Equal(t, 1, p.sender.count())
	require.Equal(t, 1, p.notifier.count())
	assert.Equal(t, "m1", p.registry.LastProcessed("c1"))

	payload := p.notifier.payloads[0]
	assert.Equal(t, "c1", payload["chat_id"])
	assert.Equal(t, "¡Hola! ¿En qué puedo ayudarte?", payload["reply"])

	stats := p.monitor.GetStats()
	assert.Equal(t, int64(1), stats.TotalInbound)
	assert.Equal(t, int64(1), stats.TotalOutbound)
}

// La reentrega del mismo mensaje no genera ni envía una segunda vez.
func TestHandleRedeliveryIsIdempotent(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")

	evt := freshEvent(now)
	assert.True(t, p.dispatcher.Handle(context.Background(), evt))
	assert.False(t, p.dispatcher.Handle(context.Background(), evt))
	assert.False(t, p.dispatcher.Handle(context.Background(), evt))

	assert.Equal(t, 1, p.generator.count())
	assert.Equal(t, 1, p.sender.count())
	assert.Equal(t, 1, p.notifier.count())
}

func TestHandleInactiveChat(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	// c1 nunca fue activado.

	assert.False(t, p.dispatcher.Handle(context.Background(), freshEvent(now)))

	assert.Equal(t, 0, p.generator.count())
	assert.Equal(t, 0, p.sender.count())
	assert.Equal(t, 0, p.notifier.count())
	assert.Empty(t, p.registry.LastProcessed("c1"))
}

func TestHandleDeactivatedChat(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")
	p.registry.Deactivate("c1")

	p.dispatcher.Handle(context.Background(), freshEvent(now))

	assert.Equal(t, 0, p.generator.count())
}

func TestHandleOwnMessageSkipped(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")

	evt := freshEvent(now)
	evt.FromUser = false
	p.dispatcher.Handle(context.Background(), evt)

	assert.Equal(t, 0, p.generator.count())
	assert.Equal(t, int64(1), p.monitor.GetStats().TotalSkipped)
}

// El mensaje queda marcado como procesado aunque la generación falle:
// no se reintenta en una reentrega posterior.
func TestHandleGenerationFailureMarksProcessed(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")
	p.generator.err = errors.New("provider timeout")

	evt := freshEvent(now)
	p.dispatcher.Handle(context.Background(), evt)

	assert.Equal(t, 1, p.generator.count())
	assert.Equal(t, 0, p.sender.count())
	assert.Equal(t, 0, p.notifier.count())
	assert.Equal(t, "m1", p.registry.LastProcessed("c1"))

	// Reentrega tras el fallo: descartada, no se vuelve a generar.
	p.dispatcher.Handle(context.Background(), evt)
	assert.Equal(t, 1, p.generator.count())

	stats := p.monitor.GetStats()
	assert.Equal(t, int64(1), stats.TotalErrors)

	// El evento de petición queda en pendiente; el desenlace real lo
	// lleva el evento de respuesta.
	for _, e := range stats.RecentEvents {
		if e.Stage == botmonitor.StageAIRequest {
			assert.Equal(t, botmonitor.StatusPending, e.Status)
		}
		if e.Stage == botmonitor.StageAIResponse {
			assert.Equal(t, botmonitor.StatusError, e.Status)
		}
	}
}

func TestHandleSendFailureNoNotification(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")
	p.sender.err = errors.New("not connected")

	p.dispatcher.Handle(context.Background(), freshEvent(now))

	assert.Equal(t, 1, p.generator.count())
	assert.Equal(t, 0, p.notifier.count())
	assert.Equal(t, int64(1), p.monitor.GetStats().TotalErrors)
}

func TestHandleEmptyReplySkipsSend(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")
	p.generator.reply = ""

	p.dispatcher.Handle(context.Background(), freshEvent(now))

	assert.Equal(t, 1, p.generator.count())
	assert.Equal(t, 0, p.sender.count())
	assert.Equal(t, 0, p.notifier.count())
}

// Entregas concurrentes del mismo mensaje: exactamente una gana.
func TestHandleConcurrentRedelivery(t *testing.T) {
	now := time.Now()
	p := newTestPipeline(t, now)
	p.registry.Activate("c1")

	evt := freshEvent(now)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.dispatcher.Handle(context.Background(), evt)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, p.sender.count())
	assert.Equal(t, 1, p.notifier.count())
}
