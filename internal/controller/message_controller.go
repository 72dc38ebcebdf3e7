package controller

import (
	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
}

type messageController struct {
	messageService service.IMessageService
	rateLimiter    fiber.Handler
}

// NewMessageController gates Send behind rateLimiter, which must run before
// the body is parsed.
func NewMessageController(messageService service.IMessageService, rateLimiter fiber.Handler) IMessageController {
	return &messageController{
		messageService: messageService,
		rateLimiter:    rateLimiter,
	}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/messages")
	if c.rateLimiter != nil {
		h.Post("", c.rateLimiter, c.Send)
		return
	}
	h.Post("", c.Send)
}

func (c *messageController) Send(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	res, err := c.messageService.SendMessage(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	message := "Success send message"
	if res.Degraded {
		message = constant.DegradedSendNotice
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
