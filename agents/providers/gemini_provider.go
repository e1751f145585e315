package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvergaraf/wacrm/agents"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider generates replies through the Gemini API.
type GeminiProvider struct {
	globalSystemPrompt string
}

func NewGeminiProvider(globalSystemPrompt string) *GeminiProvider {
	return &GeminiProvider{globalSystemPrompt: globalSystemPrompt}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, agent agents.Agent, prompt string) (string, error) {
	if strings.TrimSpace(agent.APIKey) == "" {
		return "", fmt.Errorf("agent %s has no API key", agent.ID)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  agent.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	model := strings.TrimSpace(agent.Model)
	if model == "" {
		model = defaultGeminiModel
	}

	var genConfig *genai.GenerateContentConfig
	if systemText := buildSystemText(p.globalSystemPrompt, agent); systemText != "" {
		genConfig = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemText, genai.RoleUser),
		}
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return strings.TrimSpace(result.Text()), nil
}

// buildSystemText stacks the global prompt, the persona prompt, its
// knowledge base and a timezone-aware current-date header, mirroring what
// the dashboard shows the operator when editing a persona.
func buildSystemText(globalPrompt string, agent agents.Agent) string {
	systemText := strings.TrimSpace(globalPrompt)
	for _, part := range []string{agent.SystemPrompt, agent.KnowledgeBase} {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if systemText != "" {
			systemText = systemText + "\n\n" + part
		} else {
			systemText = part
		}
	}

	tz := strings.TrimSpace(agent.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	weekday := now.Format("Monday")
	currentTimeText := fmt.Sprintf("IMPORTANT - Current date and time (%s timezone): %s, %s %d, %d at %s (Day of week: %s)",
		tz,
		weekday,
		now.Format("January"),
		now.Day(),
		now.Year(),
		now.Format("15:04"),
		weekday)
	if systemText != "" {
		return currentTimeText + "\n\n" + systemText
	}
	return currentTimeText
}
