package repository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dvergaraf/wacrm/agents"
	"github.com/dvergaraf/wacrm/pkg/crypto"
	pkgError "github.com/dvergaraf/wacrm/pkg/error"
)

// agentModel es el modelo de persistencia para GORM.
// Mantiene el dominio puro al no añadir tags de GORM en el struct de dominio.
type agentModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	URL           string `gorm:"column:url"`
	Provider      string
	Model         string
	APIKey        string `gorm:"column:api_key"`
	SystemPrompt  string
	KnowledgeBase string
	Timezone      string
	Enabled       bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName especifica el nombre de la tabla para GORM.
func (agentModel) TableName() string {
	return "agents"
}

// AgentGormRepository implementa agents.Repository usando GORM.
type AgentGormRepository struct {
	db *gorm.DB
}

func NewAgentGormRepository(db *gorm.DB) *AgentGormRepository {
	return &AgentGormRepository{db: db}
}

// Init inicializa el esquema usando AutoMigrate.
func (r *AgentGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&agentModel{})
}

func (r *AgentGormRepository) Create(ctx context.Context, agent *agents.Agent) error {
	model := toAgentModel(*agent)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	agent.CreatedAt = model.CreatedAt
	agent.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AgentGormRepository) GetByID(ctx context.Context, id string) (*agents.Agent, error) {
	var model agentModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("agent not found")
		}
		return nil, err
	}
	agent := fromAgentModel(model)
	return &agent, nil
}

// List retorna todos los agentes ordenados por nombre.
func (r *AgentGormRepository) List(ctx context.Context) ([]agents.Agent, error) {
	var models []agentModel
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]agents.Agent, len(models))
	for i, m := range models {
		result[i] = fromAgentModel(m)
	}
	return result, nil
}

func (r *AgentGormRepository) Update(ctx context.Context, agent *agents.Agent) error {
	model := toAgentModel(*agent)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *AgentGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&agentModel{}, "id = ?", id).Error
}

// FirstEnabled retorna el agente habilitado más recientemente actualizado,
// que actúa como persona por defecto del auto-responder.
func (r *AgentGormRepository) FirstEnabled(ctx context.Context) (*agents.Agent, error) {
	var model agentModel
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("updated_at DESC").First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("no enabled agent")
		}
		return nil, err
	}
	agent := fromAgentModel(model)
	return &agent, nil
}

// Mappers manuales para mantener la pureza del dominio. Las API keys se
// cifran en reposo cuando hay clave configurada.
func toAgentModel(a agents.Agent) agentModel {
	encKey, err := crypto.Encrypt(a.APIKey)
	if err != nil {
		logrus.Errorf("[AGENTS] Failed to encrypt api key for agent %s: %v", a.ID, err)
		encKey = a.APIKey
	}
	return agentModel{
		ID:            a.ID,
		Name:          a.Name,
		URL:           a.URL,
		Provider:      a.Provider,
		Model:         a.Model,
		APIKey:        encKey,
		SystemPrompt:  a.SystemPrompt,
		KnowledgeBase: a.KnowledgeBase,
		Timezone:      a.Timezone,
		Enabled:       a.Enabled,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func fromAgentModel(m agentModel) agents.Agent {
	plainKey, err := crypto.Decrypt(m.APIKey)
	if err != nil {
		logrus.Errorf("[AGENTS] Failed to decrypt api key for agent %s: %v", m.ID, err)
		plainKey = ""
	}
	return agents.Agent{
		ID:            m.ID,
		Name:          m.Name,
		URL:           m.URL,
		Provider:      m.Provider,
		Model:         m.Model,
		APIKey:        plainKey,
		SystemPrompt:  m.SystemPrompt,
		KnowledgeBase: m.KnowledgeBase,
		Timezone:      m.Timezone,
		Enabled:       m.Enabled,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
