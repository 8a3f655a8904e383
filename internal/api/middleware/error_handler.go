package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := RequestID(c)

		// Fiber errors: body limit, unknown route, bad method
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusRequestEntityTooLarge {
				return writeError(c, domain.ErrPayloadTooLarge, requestID)
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "HTTP_ERROR",
					"message":    fiberErr.Message,
					"request_id": requestID,
				},
			})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.String("request_id", requestID),
					slog.Any("error", appErr.Err),
				)
			}
			return writeError(c, appErr, requestID)
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.String("request_id", requestID),
		)

		return writeError(c, domain.ErrInternal, requestID)
	}
}

func writeError(c *fiber.Ctx, appErr *domain.AppError, requestID string) error {
	return c.Status(appErr.StatusCode).JSON(fiber.Map{
		"error": fiber.Map{
			"code":       appErr.Code,
			"message":    appErr.Message,
			"request_id": requestID,
		},
	})
}
