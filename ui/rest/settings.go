package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/dvergaraf/wacrm/core/settings/application"
	"github.com/dvergaraf/wacrm/pkg/utils"
)

// Settings exposes the DB-backed dynamic overrides. Changes take effect
// on the next process start; the stored values survive restarts.
type Settings struct {
	Service *application.SettingsService
}

type updateSettingsRequest struct {
	SystemPrompt        *string `json:"system_prompt"`
	Timezone            *string `json:"timezone"`
	RecencyWindowSec    *int    `json:"recency_window_sec"`
	GenerationTimeoutMs *int    `json:"generation_timeout_ms"`
	AutoMarkRead        *bool   `json:"auto_mark_read"`
}

func InitRestSettings(app fiber.Router, service *application.SettingsService) Settings {
	handler := Settings{Service: service}

	group := app.Group("/settings")
	group.Get("/", handler.List)
	group.Put("/", handler.Update)

	return handler
}

func (h *Settings) List(c *fiber.Ctx) error {
	overrides, err := h.Service.Overrides(c.UserContext())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Dynamic settings retrieved",
		Results: overrides,
	})
}

func (h *Settings) Update(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx := c.UserContext()
	if req.SystemPrompt != nil {
		if err := h.Service.SetSystemPrompt(ctx, *req.SystemPrompt); err != nil {
			return internalError(c, err)
		}
	}
	if req.Timezone != nil {
		if err := h.Service.SetTimezone(ctx, *req.Timezone); err != nil {
			return internalError(c, err)
		}
	}
	if req.RecencyWindowSec != nil {
		d := time.Duration(*req.RecencyWindowSec) * time.Second
		if err := h.Service.SetRecencyWindow(ctx, d); err != nil {
			return internalError(c, err)
		}
	}
	if req.GenerationTimeoutMs != nil {
		d := time.Duration(*req.GenerationTimeoutMs) * time.Millisecond
		if err := h.Service.SetGenerationTimeout(ctx, d); err != nil {
			return internalError(c, err)
		}
	}
	if req.AutoMarkRead != nil {
		if err := h.Service.SetAutoMarkRead(ctx, *req.AutoMarkRead); err != nil {
			return internalError(c, err)
		}
	}

	logrus.Info("[SETTINGS] Overrides dinamicos actualizados")
	overrides, err := h.Service.Overrides(ctx)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Dynamic settings updated",
		Results: overrides,
	})
}
