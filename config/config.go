package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Whatsapp   WhatsappConfig
	AI         AIConfig
	Pipeline   PipelineConfig
	WorkerPool WorkerPoolConfig
	Hub        HubConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	OS                 string
	Platform           waCompanionReg.DeviceProps_PlatformType
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
	EncryptionKey      string
}

type PathsConfig struct {
	Storages string
	QRCode   string
}

type DatabaseConfig struct {
	Driver   string // sqlite | postgres
	Name     string // File path for SQLite, DB Name for Postgres
	Host     string
	Port     int
	User     string
	Password string

	// Whatsmeow session store
	URI string

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WhatsappConfig struct {
	LogLevel     string
	AutoMarkRead bool
	TypeUser     string
	TypeGroup    string
}

type AIConfig struct {
	GlobalSystemPrompt string
	Timezone           string
	GeminiAPIKey       string
	OpenAIAPIKey       string
}

// PipelineConfig tunes the inbound auto-response flow.
type PipelineConfig struct {
	RecencyWindow     time.Duration
	GenerationTimeout time.Duration
	DedupMaxEntries   int
	DedupKeepEntries  int
	LivenessThreshold int
	LivenessRetain    int
	CleanupInterval   time.Duration
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type HubConfig struct {
	HistorySize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from a .env file (when present) and
// environment variables, falling back to defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		OS:                 getEnv("APP_OS", "WaCRM"),
		Platform:           waCompanionReg.DeviceProps_PlatformType(1), // Chrome
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
		EncryptionKey:      getEnv("APP_ENCRYPTION_KEY", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		Storages: getEnv("APP_BASE_DIR", "storages"),
		QRCode:   getEnv("PATH_QRCODE", filepath.Join("statics", "qrcode")),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "app.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		URI:             getEnv("DB_URI", fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(pathsCfg.Storages, "whatsapp.db"))),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "wacrm:"),
	}

	waCfg := WhatsappConfig{
		LogLevel:     getEnv("WHATSAPP_LOG_LEVEL", "ERROR"),
		AutoMarkRead: getEnvBool("WHATSAPP_AUTO_MARK_READ", false),
		TypeUser:     "@s.whatsapp.net",
		TypeGroup:    "@g.us",
	}

	aiCfg := AIConfig{
		GlobalSystemPrompt: getEnv("AI_GLOBAL_SYSTEM_PROMPT", ""),
		Timezone:           getEnv("AI_TIMEZONE", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
	}

	pipelineCfg := PipelineConfig{
		RecencyWindow:     getEnvDuration("PIPELINE_RECENCY_WINDOW", 2*time.Minute),
		GenerationTimeout: getEnvDuration("PIPELINE_GENERATION_TIMEOUT", 30*time.Second),
		DedupMaxEntries:   getEnvInt("PIPELINE_DEDUP_MAX_ENTRIES", 10000),
		DedupKeepEntries:  getEnvInt("PIPELINE_DEDUP_KEEP_ENTRIES", 5000),
		LivenessThreshold: getEnvInt("PIPELINE_LIVENESS_THRESHOLD", 100),
		LivenessRetain:    getEnvInt("PIPELINE_LIVENESS_RETAIN", 50),
		CleanupInterval:   getEnvDuration("PIPELINE_CLEANUP_INTERVAL", time.Hour),
	}

	cfg := &Config{
		App:        appCfg,
		Paths:      pathsCfg,
		Database:   dbCfg,
		Whatsapp:   waCfg,
		AI:         aiCfg,
		Pipeline:   pipelineCfg,
		WorkerPool: WorkerPoolConfig{Size: getEnvInt("MESSAGE_WORKER_POOL_SIZE", 10), QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 100)},
		Hub:        HubConfig{HistorySize: getEnvInt("HUB_HISTORY_SIZE", 100)},
	}

	Global = cfg
	return cfg, nil
}
