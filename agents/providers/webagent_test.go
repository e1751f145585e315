package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvergaraf/wacrm/agents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAgent_GenerateUsesPersonaName(t *testing.T) {
	p := NewWebAgentProvider()

	reply, err := p.Generate(context.Background(), agents.Agent{Name: "Smartflyer Viajes"}, "vuelo a Madrid")
	require.NoError(t, err)

	assert.Contains(t, reply, "Smartflyer Viajes")
	assert.Contains(t, reply, "vuelo a Madrid")
}

func TestWebAgent_EmptyPromptIsNoop(t *testing.T) {
	p := NewWebAgentProvider()

	reply, err := p.Generate(context.Background(), agents.Agent{Name: "X"}, "   ")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestWebAgent_ScrapesTitleForName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Agente Ventas Pro - ChatGPT</title></head><body></body></html>`))
	}))
	defer srv.Close()

	p := NewWebAgentProvider()
	reply, err := p.Generate(context.Background(), agents.Agent{URL: srv.URL}, "necesito una cotización")
	require.NoError(t, err)

	// Title wins over the URL-derived name, platform suffix stripped.
	assert.Contains(t, reply, "Agente Ventas Pro")
}

func TestWebAgent_UnreachableURLFallsBack(t *testing.T) {
	p := NewWebAgentProvider()

	reply, err := p.Generate(context.Background(), agents.Agent{URL: "http://127.0.0.1:1/nothing", Name: "Backup"}, "hola")
	require.NoError(t, err)
	assert.Contains(t, reply, "Backup")
}

func TestCategoryForAgent(t *testing.T) {
	assert.Equal(t, "travel", categoryForAgent("Smartflyer"))
	assert.Equal(t, "travel", categoryForAgent("Asesor de Viajes"))
	assert.Equal(t, "planner", categoryForAgent("SmartPlanner"))
	assert.Equal(t, "technical", categoryForAgent("Soporte Técnico"))
	assert.Equal(t, "sales", categoryForAgent("Equipo de Ventas"))
	assert.Equal(t, "general", categoryForAgent("Asistente"))
}
