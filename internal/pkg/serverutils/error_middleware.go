package serverutils

import (
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/printify"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses and the
// standard response envelope. Remote-capability failures surface as 502
// since the fault is upstream, not in the request.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError

		var (
			fiberErr      *fiber.Error
			validationErr *ValidationError
			genErr        *design.GenerationError
			cfgErr        *configure.ConfigurationError
			catalogErr    *printify.CatalogError
		)
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		case errors.As(err, &validationErr):
			code = fiber.StatusBadRequest
		case errors.As(err, &genErr), errors.As(err, &cfgErr), errors.As(err, &catalogErr):
			code = fiber.StatusBadGateway
		}

		return ctx.Status(code).JSON(Response[any]{
			Success: false,
			Code:    code,
			Message: err.Error(),
		})
	}
}
