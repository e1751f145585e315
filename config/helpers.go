package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns a map of the dynamic settings currently loaded in
// memory, for the monitoring endpoint.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_debug":                   Global.App.Debug,
		"app_version":                 Global.App.Version,
		"ai_global_system_prompt":     Global.AI.GlobalSystemPrompt,
		"ai_timezone":                 Global.AI.Timezone,
		"pipeline_recency_window":     Global.Pipeline.RecencyWindow.String(),
		"pipeline_generation_timeout": Global.Pipeline.GenerationTimeout.String(),
		"worker_pool_size":            Global.WorkerPool.Size,
		"hub_history_size":            Global.Hub.HistorySize,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
