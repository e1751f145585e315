package pipeline

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dvergaraf/wacrm/pkg/clock"
	"github.com/dvergaraf/wacrm/pkg/liveness"
)

// DefaultRecencyWindow acota la antigüedad de un mensaje para que todavía
// merezca respuesta automática.
const DefaultRecencyWindow = 2 * time.Minute

// Verdict explains why a message was or was not eligible for an automatic
// response. Skipped messages still count as processed upstream.
type Verdict struct {
	Eligible bool
	Reason   string
}

// Classifier decides whether an inbound message should trigger the
// auto-response flow. It is stateless except for the registry lookups it
// is handed, so it is safe for concurrent use.
type Classifier struct {
	registry *liveness.Registry
	clk      clock.Clock
	window   time.Duration
}

func NewClassifier(registry *liveness.Registry, clk clock.Clock, window time.Duration) *Classifier {
	if clk == nil {
		clk = clock.System()
	}
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	return &Classifier{registry: registry, clk: clk, window: window}
}

// Classify applies the eligibility rules in order and returns the first
// reason that disqualifies the message, or an eligible verdict.
func (c *Classifier) Classify(evt MessageEvent) Verdict {
	if !evt.FromUser {
		return Verdict{Reason: "own_message"}
	}
	if last := c.registry.LastProcessed(evt.ChatID); last != "" && last == evt.MessageID {
		return Verdict{Reason: "already_processed"}
	}
	if age := c.clk.Now().Sub(evt.Timestamp); age > c.window {
		logrus.Debugf("[CLASSIFIER] Mensaje %s fuera de ventana (%s)", evt.MessageID, age)
		return Verdict{Reason: "stale"}
	}
	if strings.TrimSpace(evt.Body) == "" {
		return Verdict{Reason: "empty_body"}
	}
	return Verdict{Eligible: true}
}

// IsEligible is the boolean form of Classify.
func (c *Classifier) IsEligible(evt MessageEvent) bool {
	return c.Classify(evt).Eligible
}
