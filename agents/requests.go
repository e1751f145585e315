package agents

// UpsertAgentRequest carries the fields a dashboard user may set when
// creating or updating a persona.
type UpsertAgentRequest struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	APIKey        string `json:"api_key"`
	SystemPrompt  string `json:"system_prompt"`
	KnowledgeBase string `json:"knowledge_base"`
	Timezone      string `json:"timezone"`
	Enabled       *bool  `json:"enabled"`
}

// Apply copies the request onto an agent, resolving derived fields.
func (r UpsertAgentRequest) Apply(agent *Agent) {
	agent.URL = r.URL
	agent.Provider = r.Provider
	agent.Model = r.Model
	if r.APIKey != "" {
		agent.APIKey = r.APIKey
	}
	agent.SystemPrompt = r.SystemPrompt
	agent.KnowledgeBase = r.KnowledgeBase
	agent.Timezone = r.Timezone
	if r.Enabled != nil {
		agent.Enabled = *r.Enabled
	}
	if r.Name != "" {
		agent.Name = r.Name
	} else if agent.Name == "" {
		agent.Name = ExtractAgentName(r.URL)
	}
}
