package controller

import (
	"ai-merchbot-be/internal/pkg/serverutils"
	"ai-merchbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProductController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type productController struct {
	conversationService service.IConversationService
}

func NewProductController(conversationService service.IConversationService) IProductController {
	return &productController{
		conversationService: conversationService,
	}
}

func (c *productController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/product/v1")
	h.Get("search", c.Search)
}

func (c *productController) Search(ctx *fiber.Ctx) error {
	query := ctx.Query("q")

	res, err := c.conversationService.SearchProducts(ctx.Context(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search products", res))
}
