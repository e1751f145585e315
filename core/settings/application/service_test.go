package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/core/settings/domain"
)

type memSettingsRepo struct {
	values map[string]string
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{values: map[string]string{}}
}

func (r *memSettingsRepo) Get(_ context.Context, key string) (string, error) {
	return r.values[key], nil
}

func (r *memSettingsRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *memSettingsRepo) Delete(_ context.Context, key string) error {
	delete(r.values, key)
	return nil
}

func (r *memSettingsRepo) List(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func (r *memSettingsRepo) InitSchema(_ context.Context) error { return nil }

func TestApplyToConfigOverridesOnlyStoredKeys(t *testing.T) {
	repo := newMemSettingsRepo()
	svc := NewSettingsServiceWithRepo(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetSystemPrompt(ctx, "  Eres un asistente de viajes.  "))
	require.NoError(t, svc.SetRecencyWindow(ctx, 5*time.Minute))

	cfg := &config.Config{}
	cfg.AI.Timezone = "America/Mexico_City"
	cfg.Pipeline.GenerationTimeout = 30 * time.Second

	require.NoError(t, svc.ApplyToConfig(ctx, cfg))

	assert.Equal(t, "Eres un asistente de viajes.", cfg.AI.GlobalSystemPrompt)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.RecencyWindow)
	// sin override guardado, los valores de entorno no se tocan
	assert.Equal(t, "America/Mexico_City", cfg.AI.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.GenerationTimeout)
}

func TestRecencyWindowZeroClearsOverride(t *testing.T) {
	repo := newMemSettingsRepo()
	svc := NewSettingsServiceWithRepo(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetRecencyWindow(ctx, 90*time.Second))
	assert.Contains(t, repo.values, domain.KeyPipelineRecencyWindowSec)

	require.NoError(t, svc.SetRecencyWindow(ctx, 0))
	assert.NotContains(t, repo.values, domain.KeyPipelineRecencyWindowSec)
}

func TestAutoMarkReadParsesBooleanForms(t *testing.T) {
	repo := newMemSettingsRepo()
	svc := NewSettingsServiceWithRepo(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetAutoMarkRead(ctx, true))
	ds, err := svc.GetDynamicSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, ds.AutoMarkRead)
	assert.True(t, *ds.AutoMarkRead)

	repo.values[domain.KeyWhatsappAutoMarkRead] = "yes"
	ds, err = svc.GetDynamicSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, ds.AutoMarkRead)
	assert.True(t, *ds.AutoMarkRead)
}
