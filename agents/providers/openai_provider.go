package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvergaraf/wacrm/agents"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider generates replies through the OpenAI chat completions API.
type OpenAIProvider struct {
	globalSystemPrompt string
}

func NewOpenAIProvider(globalSystemPrompt string) *OpenAIProvider {
	return &OpenAIProvider{globalSystemPrompt: globalSystemPrompt}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, agent agents.Agent, prompt string) (string, error) {
	if strings.TrimSpace(agent.APIKey) == "" {
		return "", fmt.Errorf("agent %s has no API key", agent.ID)
	}

	client := openai.NewClient(
		option.WithAPIKey(agent.APIKey),
	)

	model := strings.TrimSpace(agent.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if systemText := buildSystemText(p.globalSystemPrompt, agent); systemText != "" {
		messages = append(messages, openai.SystemMessage(systemText))
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
