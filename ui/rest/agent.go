package rest

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dvergaraf/wacrm/agents"
	pkgError "github.com/dvergaraf/wacrm/pkg/error"
	"github.com/dvergaraf/wacrm/pkg/utils"
	"github.com/dvergaraf/wacrm/validations"
)

type Agent struct {
	Repo agents.Repository
}

func InitRestAgent(app fiber.Router, repo agents.Repository) Agent {
	handler := Agent{Repo: repo}

	group := app.Group("/agents")
	group.Get("/", handler.List)
	group.Post("/", handler.Create)
	group.Get("/:id", handler.Get)
	group.Put("/:id", handler.Update)
	group.Delete("/:id", handler.Delete)

	return handler
}

func (h *Agent) List(c *fiber.Ctx) error {
	list, err := h.Repo.List(c.UserContext())
	if err != nil {
		return internalError(c, err)
	}
	out := make([]AgentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAgentResponse(a))
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agents retrieved",
		Results: out,
	})
}

func (h *Agent) Create(c *fiber.Ctx) error {
	var req agents.UpsertAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validations.ValidateUpsertAgent(c.UserContext(), req); err != nil {
		return badRequest(c, err.Error())
	}

	agent := agents.Agent{ID: uuid.NewString(), Enabled: true}
	req.Apply(&agent)

	if err := h.Repo.Create(c.UserContext(), &agent); err != nil {
		return internalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Agent created",
		Results: toAgentResponse(agent),
	})
}

func (h *Agent) Get(c *fiber.Ctx) error {
	agent, err := h.Repo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return repoError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agent retrieved",
		Results: toAgentResponse(*agent),
	})
}

func (h *Agent) Update(c *fiber.Ctx) error {
	agent, err := h.Repo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return repoError(c, err)
	}

	var req agents.UpsertAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validations.ValidateUpsertAgent(c.UserContext(), req); err != nil {
		return badRequest(c, err.Error())
	}

	req.Apply(agent)
	if err := h.Repo.Update(c.UserContext(), agent); err != nil {
		return repoError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agent updated",
		Results: toAgentResponse(*agent),
	})
}

func (h *Agent) Delete(c *fiber.Ctx) error {
	if err := h.Repo.Delete(c.UserContext(), c.Params("id")); err != nil {
		return repoError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Agent deleted",
	})
}

func toAgentResponse(a agents.Agent) AgentResponse {
	return AgentResponse{
		ID:            a.ID,
		Name:          a.Name,
		URL:           a.URL,
		Provider:      a.Provider,
		Model:         a.Model,
		Type:          string(a.Type()),
		SystemPrompt:  a.SystemPrompt,
		KnowledgeBase: a.KnowledgeBase,
		Timezone:      a.Timezone,
		Enabled:       a.Enabled,
		HasAPIKey:     a.APIKey != "",
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(utils.ResponseData{
		Status:  400,
		Code:    "VALIDATION_ERROR",
		Message: msg,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
		Status:  500,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: err.Error(),
	})
}

func repoError(c *fiber.Ctx, err error) error {
	var nf pkgError.NotFoundError
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(utils.ResponseData{
			Status:  404,
			Code:    nf.ErrCode(),
			Message: nf.Error(),
		})
	}
	return internalError(c, err)
}
