package providers

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvergaraf/wacrm/agents"
	"github.com/sirupsen/logrus"
)

const webAgentUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// WebAgentProvider answers on behalf of an external web agent (a custom
// GPT, a Claude project, etc). Driving those pages from a headless server
// is not reliable, so the provider scrapes the agent page for its display
// name and produces a contextual reply keyed by the agent's specialty.
type WebAgentProvider struct {
	client *http.Client
	rng    *rand.Rand
}

func NewWebAgentProvider() *WebAgentProvider {
	return &WebAgentProvider{
		client: &http.Client{Timeout: 15 * time.Second},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *WebAgentProvider) Name() string { return "webagent" }

func (p *WebAgentProvider) Generate(ctx context.Context, agent agents.Agent, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", nil
	}

	name := strings.TrimSpace(agent.Name)
	if name == "" {
		name = agents.ExtractAgentName(agent.URL)
	}
	if scraped := p.scrapeAgentTitle(ctx, agent.URL); scraped != "" {
		name = scraped
	}

	category := categoryForAgent(name)
	templates := responseTemplates[category]
	reply := fmt.Sprintf(templates[p.rng.Intn(len(templates))], name, prompt)
	return reply, nil
}

// scrapeAgentTitle fetches the agent page and pulls its <title>. Best
// effort only; a failed fetch falls back to the URL-derived name.
func (p *WebAgentProvider) scrapeAgentTitle(ctx context.Context, agentURL string) string {
	if strings.TrimSpace(agentURL) == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, agentURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", webAgentUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		logrus.WithError(err).Debugf("[AGENT] Failed to fetch agent page %s", agentURL)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Strip platform suffixes like "Smartflyer - ChatGPT".
	for _, sep := range []string{" - ", " | "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

// categoryForAgent buckets a persona by the specialty its name suggests.
func categoryForAgent(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "smartflyer"), strings.Contains(lower, "viaj"):
		return "travel"
	case strings.Contains(lower, "smartplanner"), strings.Contains(lower, "plann"):
		return "planner"
	case strings.Contains(lower, "técnico"), strings.Contains(lower, "technical"):
		return "technical"
	case strings.Contains(lower, "ventas"), strings.Contains(lower, "sales"):
		return "sales"
	default:
		return "general"
	}
}

// Respuestas contextualizadas en español según la especialidad del agente.
// Cada plantilla toma (nombre del agente, mensaje del usuario).
var responseTemplates = map[string][]string{
	"general": {
		"Hola, soy %s. He recibido tu consulta: '%s'. Como asistente de IA, puedo ayudarte con información, análisis y recomendaciones. ¿En qué aspecto específico te gustaría que me enfoque?",
		"Gracias por contactar a %s. Tu mensaje sobre '%s' es muy interesante. Puedo sugerirte algunas opciones y enfoques para abordar tu consulta. ¿Te gustaría que profundice en algún punto particular?",
	},
	"travel": {
		"¡Hola! Soy %s, tu asistente especializado en viajes. He visto tu consulta sobre '%s'. Puedo ayudarte con reservas de vuelos, hoteles, itinerarios personalizados y recomendaciones de destinos. ¿En qué aspecto específico de tu viaje puedo asistirte?",
		"Bienvenido a %s. Tu consulta sobre '%s' me permite entender tus necesidades de viaje. ¿Cuáles son tus fechas y destino preferido?",
	},
	"planner": {
		"Hola, soy %s, tu asistente de planificación inteligente. He analizado tu solicitud sobre '%s'. Puedo ayudarte a organizar proyectos, gestionar tiempos y crear estrategias efectivas. ¿Qué aspecto de la planificación necesitas desarrollar?",
		"Como %s, entiendo que buscas optimizar '%s'. Puedo ayudarte con cronogramas, asignación de recursos y seguimiento de objetivos. ¿Cuál es tu meta principal?",
	},
	"technical": {
		"Saludos, soy %s, especialista en gestión técnica. He revisado tu consulta sobre '%s'. Puedo asistirte con análisis técnicos, resolución de problemas y optimización de procesos. ¿Qué desafío técnico específico enfrentas?",
		"Hola, soy %s. He analizado tu mensaje sobre '%s' desde una perspectiva técnica. ¿Qué recursos técnicos tienes disponibles?",
	},
	"sales": {
		"¡Hola! Soy %s, tu especialista en ventas. He recibido tu consulta sobre '%s'. Puedo ayudarte con estrategias de ventas, análisis de mercado y cierre de negocios. ¿Qué oportunidad comercial estás explorando?",
		"Bienvenido, soy %s. Tu mensaje sobre '%s' me permite identificar oportunidades comerciales. ¿Qué tipo de cliente estás buscando?",
	},
}
