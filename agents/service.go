package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Reply is the outcome of a generation request, tagged with the persona
// that produced it for telemetry.
type Reply struct {
	Text      string
	AgentID   string
	AgentName string
	Provider  string
}

// Service resolves the persona for a chat and routes generation to the
// provider that persona is configured for.
type Service struct {
	repo      Repository
	providers map[string]Provider
}

func NewService(repo Repository, providers ...Provider) *Service {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{repo: repo, providers: m}
}

// AgentForChat resolves the persona answering for chatID. Today every chat
// shares the default persona (the most recently updated enabled agent).
// TODO(dv): per-chat persona assignment once the dashboard exposes it.
func (s *Service) AgentForChat(ctx context.Context, chatID string) (*Agent, error) {
	return s.repo.FirstEnabled(ctx)
}

// GenerateReply produces a reply for an inbound message on chatID. An
// unknown provider or disabled persona is an error; the dispatcher treats
// any error as "no response produced".
func (s *Service) GenerateReply(ctx context.Context, chatID, prompt string) (Reply, error) {
	agent, err := s.AgentForChat(ctx, chatID)
	if err != nil {
		return Reply{}, err
	}
	if agent == nil || !agent.Enabled {
		return Reply{}, fmt.Errorf("no enabled agent for chat %s", chatID)
	}

	provider, ok := s.providers[strings.TrimSpace(agent.Provider)]
	if !ok {
		return Reply{}, fmt.Errorf("agent %s references unknown provider %q", agent.ID, agent.Provider)
	}

	text, err := provider.Generate(ctx, *agent, prompt)
	if err != nil {
		return Reply{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logrus.Debugf("[AGENT] Provider %s returned empty reply for chat %s", provider.Name(), chatID)
	}
	return Reply{
		Text:      text,
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Provider:  provider.Name(),
	}, nil
}
