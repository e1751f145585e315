package agents

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode"
)

// AgentType classifies an external agent by the platform its URL points at.
type AgentType string

const (
	AgentTypeChatGPT AgentType = "chatgpt"
	AgentTypeClaude  AgentType = "claude"
	AgentTypeGemini  AgentType = "gemini"
	AgentTypeUnknown AgentType = "unknown"
)

// Providers a persona can be configured with.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderWebAgent = "webagent"
)

// Agent is an auto-responder persona. A chat whose liveness flag is on gets
// its replies generated by the resolved agent's provider.
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Provider      string    `json:"provider"` // gemini | openai | webagent
	Model         string    `json:"model"`
	APIKey        string    `json:"-"`
	SystemPrompt  string    `json:"system_prompt"`
	KnowledgeBase string    `json:"knowledge_base"`
	Timezone      string    `json:"timezone"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Type derives the agent platform from its URL.
func (a Agent) Type() AgentType {
	return DetectAgentType(a.URL)
}

// Provider produces a reply for a prompt on behalf of an agent persona.
// Implementations must honor ctx cancellation; the dispatcher imposes the
// timeout.
type Provider interface {
	Name() string
	Generate(ctx context.Context, agent Agent, prompt string) (string, error)
}

// Repository persists agent personas.
type Repository interface {
	Create(ctx context.Context, agent *Agent) error
	GetByID(ctx context.Context, id string) (*Agent, error)
	List(ctx context.Context) ([]Agent, error)
	Update(ctx context.Context, agent *Agent) error
	Delete(ctx context.Context, id string) error
	FirstEnabled(ctx context.Context) (*Agent, error)
}

// DetectAgentType maps an agent URL to the platform behind it.
func DetectAgentType(agentURL string) AgentType {
	switch {
	case strings.Contains(agentURL, "chatgpt.com"), strings.Contains(agentURL, "openai.com"):
		return AgentTypeChatGPT
	case strings.Contains(agentURL, "claude.ai"):
		return AgentTypeClaude
	case strings.Contains(agentURL, "bard.google.com"), strings.Contains(agentURL, "gemini.google.com"):
		return AgentTypeGemini
	default:
		return AgentTypeUnknown
	}
}

// ExtractAgentName guesses a display name for an agent from its URL. Custom
// GPT links (chatgpt.com/g/<slug>) carry the name in the trailing slug
// words; for anything else the domain is used.
func ExtractAgentName(agentURL string) string {
	if idx := strings.Index(agentURL, "chatgpt.com/g/"); idx >= 0 {
		slug := agentURL[idx+len("chatgpt.com/g/"):]
		if cut := strings.IndexAny(slug, "/?#"); cut >= 0 {
			slug = slug[:cut]
		}
		parts := strings.Split(slug, "-")
		var words []string
		start := 0
		if len(parts) > 3 {
			start = len(parts) - 3
		}
		for _, part := range parts[start:] {
			if part == "" || isDigits(part) || len(part) <= 2 {
				continue
			}
			words = append(words, capitalize(part))
		}
		if len(words) > 0 {
			return strings.Join(words, " ")
		}
	}

	parsed, err := url.Parse(agentURL)
	if err != nil || parsed.Host == "" {
		return "Agente IA"
	}
	domain := strings.TrimPrefix(parsed.Host, "www.")
	if dot := strings.Index(domain, "."); dot > 0 {
		domain = domain[:dot]
	}
	if domain == "" {
		return "Agente IA"
	}
	return capitalize(domain)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
