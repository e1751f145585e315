package rest

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/dvergaraf/wacrm/config"
	"github.com/dvergaraf/wacrm/infrastructure/whatsapp"
	"github.com/dvergaraf/wacrm/pkg/utils"
)

// App manages the WhatsApp session lifecycle (pairing, logout, reconnect).
type App struct{}

func InitRestApp(app fiber.Router) App {
	rest := App{}
	app.Get("/app/login", rest.Login)
	app.Get("/app/login-with-code", rest.LoginWithCode)
	app.Get("/app/logout", rest.Logout)
	app.Get("/app/reconnect", rest.Reconnect)
	app.Get("/app/version", rest.GetVersion)

	return rest
}

func (handler *App) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": config.Global.App.Version,
		"os":      config.Global.App.OS,
	})
}

func (handler *App) Login(c *fiber.Ctx) error {
	result, err := whatsapp.Login(c.UserContext())
	if err != nil {
		if errors.Is(err, whatsapp.ErrAlreadyLoggedIn) || errors.Is(err, whatsapp.ErrSessionSaved) {
			return c.JSON(utils.ResponseData{
				Status:  200,
				Code:    "ALREADY_LOGGED_IN",
				Message: err.Error(),
			})
		}
		return internalError(c, err)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Login success",
		Results: map[string]any{
			"qr_link":     fmt.Sprintf("%s://%s%s/%s", c.Protocol(), c.Hostname(), config.Global.App.BasePath, result.ImagePath),
			"qr_duration": result.Duration,
		},
	})
}

func (handler *App) LoginWithCode(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return badRequest(c, "phone query parameter is required")
	}
	pairCode, err := whatsapp.LoginWithCode(c.UserContext(), phone)
	if err != nil {
		if errors.Is(err, whatsapp.ErrAlreadyLoggedIn) {
			return badRequest(c, err.Error())
		}
		return internalError(c, err)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Login with code success",
		Results: map[string]any{
			"pair_code": pairCode,
		},
	})
}

func (handler *App) Logout(c *fiber.Ctx) error {
	if err := whatsapp.Logout(c.UserContext()); err != nil {
		return internalError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success logout",
	})
}

func (handler *App) Reconnect(c *fiber.Ctx) error {
	if err := whatsapp.Reconnect(); err != nil {
		return internalError(c, err)
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reconnect success",
	})
}
