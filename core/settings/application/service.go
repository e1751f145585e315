package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/core/settings/domain"
	"github.com/dvergaraf/wacrm/core/settings/infrastructure"
	"gorm.io/gorm"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewGlobalSettingsGormRepository(db),
	}
}

func NewSettingsServiceWithRepo(repo domain.ISettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// DynamicSettings son los ajustes que pueden cambiar en caliente sin
// reiniciar el proceso. Un puntero nil significa "sin override".
type DynamicSettings struct {
	AIGlobalSystemPrompt string
	AITimezone           string
	RecencyWindow        *time.Duration
	GenerationTimeout    *time.Duration
	AutoMarkRead         *bool
}

func (s *SettingsService) GetDynamicSettings(ctx context.Context) (*DynamicSettings, error) {
	if err := s.repo.InitSchema(ctx); err != nil {
		return nil, err
	}

	ds := &DynamicSettings{}

	if val, _ := s.repo.Get(ctx, domain.KeyAIGlobalSystemPrompt); val != "" {
		ds.AIGlobalSystemPrompt = val
	}
	if val, _ := s.repo.Get(ctx, domain.KeyAITimezone); val != "" {
		ds.AITimezone = val
	}
	if val, _ := s.repo.Get(ctx, domain.KeyPipelineRecencyWindowSec); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			d := time.Duration(n) * time.Second
			ds.RecencyWindow = &d
		}
	}
	if val, _ := s.repo.Get(ctx, domain.KeyPipelineGenerationTimeoutMs); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			d := time.Duration(n) * time.Millisecond
			ds.GenerationTimeout = &d
		}
	}
	if val, _ := s.repo.Get(ctx, domain.KeyWhatsappAutoMarkRead); val != "" {
		vLower := strings.ToLower(val)
		isOn := vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
		ds.AutoMarkRead = &isOn
	}
	return ds, nil
}

// ApplyToConfig vuelca los overrides persistidos sobre la configuracion
// cargada de entorno. Se llama una vez en el arranque.
func (s *SettingsService) ApplyToConfig(ctx context.Context, cfg *config.Config) error {
	ds, err := s.GetDynamicSettings(ctx)
	if err != nil {
		return err
	}
	if ds.AIGlobalSystemPrompt != "" {
		cfg.AI.GlobalSystemPrompt = ds.AIGlobalSystemPrompt
	}
	if ds.AITimezone != "" {
		cfg.AI.Timezone = ds.AITimezone
	}
	if ds.RecencyWindow != nil {
		cfg.Pipeline.RecencyWindow = *ds.RecencyWindow
	}
	if ds.GenerationTimeout != nil {
		cfg.Pipeline.GenerationTimeout = *ds.GenerationTimeout
	}
	if ds.AutoMarkRead != nil {
		cfg.Whatsapp.AutoMarkRead = *ds.AutoMarkRead
	}
	return nil
}

// Overrides devuelve los pares crudos guardados, para el panel de monitoreo.
func (s *SettingsService) Overrides(ctx context.Context) (map[string]string, error) {
	return s.repo.List(ctx)
}

func (s *SettingsService) SetSystemPrompt(ctx context.Context, v string) error {
	return s.repo.Set(ctx, domain.KeyAIGlobalSystemPrompt, strings.TrimSpace(v))
}

func (s *SettingsService) SetTimezone(ctx context.Context, v string) error {
	return s.repo.Set(ctx, domain.KeyAITimezone, strings.TrimSpace(v))
}

func (s *SettingsService) SetRecencyWindow(ctx context.Context, v time.Duration) error {
	if v <= 0 {
		return s.repo.Delete(ctx, domain.KeyPipelineRecencyWindowSec)
	}
	return s.repo.Set(ctx, domain.KeyPipelineRecencyWindowSec, fmt.Sprintf("%d", int(v.Seconds())))
}

func (s *SettingsService) SetGenerationTimeout(ctx context.Context, v time.Duration) error {
	if v <= 0 {
		return s.repo.Delete(ctx, domain.KeyPipelineGenerationTimeoutMs)
	}
	return s.repo.Set(ctx, domain.KeyPipelineGenerationTimeoutMs, fmt.Sprintf("%d", v.Milliseconds()))
}

func (s *SettingsService) SetAutoMarkRead(ctx context.Context, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return s.repo.Set(ctx, domain.KeyWhatsappAutoMarkRead, val)
}
