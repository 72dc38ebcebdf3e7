package serverutils

import (
	"errors"

	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, message := StatusFor(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}

		var data any
		if fields := apperror.FieldsOf(err); len(fields) > 0 {
			data = fields
		}
		if errors.Is(err, apperror.ErrRateLimited) {
			if retry := ctx.GetRespHeader(fiber.HeaderRetryAfter); retry != "" {
				data = fiber.Map{"retry_after": retry}
			}
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message, data))
	}
}

// StatusFor maps an error to its HTTP status and caller-facing message.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest, apperror.Message(err)
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound, apperror.Message(err)
	case errors.Is(err, apperror.ErrRateLimited):
		return fiber.StatusTooManyRequests, apperror.Message(err)
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict, apperror.Message(err)
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}
