package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chats")
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":ref", c.Show)
	h.Patch(":ref", c.Update)
	h.Delete(":ref", c.Delete)
	h.Get(":ref/messages", c.GetMessages)
}

func (c *chatController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetAll(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all chats", res))
}

func (c *chatController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	res, err := c.chatService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat", res))
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	res, err := c.chatService.Show(ctx.UserContext(), ctx.Params("ref"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show chat", res))
}

func (c *chatController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	res, err := c.chatService.Update(ctx.UserContext(), ctx.Params("ref"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update chat", res))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	if err := c.chatService.Delete(ctx.UserContext(), ctx.Params("ref")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat", nil))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetMessages(ctx.UserContext(), ctx.Params("ref"), ctx.Query("author"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}
