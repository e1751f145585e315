package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/infrastructure/whatsapp"
	"github.com/dvergaraf/wacrm/pkg/utils"
)

type Health struct{}

func InitRestHealth(app fiber.Router) Health {
	handler := Health{}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	connected, loggedIn, deviceID := whatsapp.GetConnectionStatus()
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: fiber.Map{
			"version":            config.Global.App.Version,
			"whatsapp_connected": connected,
			"whatsapp_logged_in": loggedIn,
			"device_id":          deviceID,
		},
	})
}
