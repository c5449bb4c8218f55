package controller

import (
	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/serverutils"
	"ai-merchbot-be/internal/service"
	"errors"

	"github.com/gofiber/fiber/v2"
)

type IDesignController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
}

type designController struct {
	conversationService service.IConversationService
}

func NewDesignController(conversationService service.IConversationService) IDesignController {
	return &designController{
		conversationService: conversationService,
	}
}

func (c *designController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/design/v1")
	h.Post("generate", c.Generate)
}

func (c *designController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateDesignRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.conversationService.GenerateDesign(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate design", res))
}
