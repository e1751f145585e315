package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/dvergaraf/wacrm/pkg/chatpresence"
	"github.com/dvergaraf/wacrm/pkg/liveness"
	"github.com/dvergaraf/wacrm/pkg/utils"
	"github.com/dvergaraf/wacrm/ui/websocket"
)

// Chat exposes the per-conversation auto-response switch.
type Chat struct {
	Registry *liveness.Registry
	Hub      *websocket.Hub
}

func InitRestChat(app fiber.Router, registry *liveness.Registry, hub *websocket.Hub) Chat {
	handler := Chat{Registry: registry, Hub: hub}

	group := app.Group("/chats")
	group.Get("/", handler.List)
	group.Get("/:jid", handler.Status)
	group.Post("/:jid/activate", handler.Activate)
	group.Post("/:jid/deactivate", handler.Deactivate)

	return handler
}

func (h *Chat) List(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tracked chats retrieved",
		Results: h.Registry.Snapshot(),
	})
}

func (h *Chat) Status(c *fiber.Ctx) error {
	jid := utils.FormatJID(c.Params("jid")).String()
	if jid == "" {
		return badRequest(c, "invalid chat jid")
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chat status retrieved",
		Results: fiber.Map{
			"chat_id":        jid,
			"active":         h.Registry.IsActive(jid),
			"last_processed": h.Registry.LastProcessed(jid),
			"composing":      chatpresence.IsComposing(jid),
		},
	})
}

func (h *Chat) Activate(c *fiber.Ctx) error {
	return h.toggle(c, true)
}

func (h *Chat) Deactivate(c *fiber.Ctx) error {
	return h.toggle(c, false)
}

func (h *Chat) toggle(c *fiber.Ctx, active bool) error {
	jid := utils.FormatJID(c.Params("jid")).String()
	if jid == "" {
		return badRequest(c, "invalid chat jid")
	}

	if active {
		h.Registry.Activate(jid)
	} else {
		h.Registry.Deactivate(jid)
	}
	logrus.Infof("[CHAT] Auto-response for %s set to %v", jid, active)

	if h.Hub != nil {
		h.Hub.Broadcast(websocket.TypeUserAction, map[string]any{
			"action":  "chat_toggle",
			"chat_id": jid,
			"active":  active,
		})
	}

	msg := "Auto-response activated"
	if !active {
		msg = "Auto-response deactivated"
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: msg,
		Results: liveness.ChatState{ChatID: jid, Active: active, LastProcessed: h.Registry.LastProcessed(jid)},
	})
}
