package rest

// AgentResponse hides sensitive fields and adds derived ones for the
// dashboard.
type AgentResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Type          string `json:"type"`
	SystemPrompt  string `json:"system_prompt"`
	KnowledgeBase string `json:"knowledge_base"`
	Timezone      string `json:"timezone"`
	Enabled       bool   `json:"enabled"`
	HasAPIKey     bool   `json:"has_api_key"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
