package domain

import "context"

// Setting represents a dynamic configuration value stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	// Basic CRUD
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)

	// InitSchema creates the necessary tables
	InitSchema(ctx context.Context) error
}

// Common Keys defined in the system
const (
	KeyAIGlobalSystemPrompt        = "ai_global_system_prompt"
	KeyAITimezone                  = "ai_timezone"
	KeyPipelineRecencyWindowSec    = "pipeline_recency_window_sec"
	KeyPipelineGenerationTimeoutMs = "pipeline_generation_timeout_ms"
	KeyWhatsappAutoMarkRead        = "whatsapp_auto_mark_read"
)
