package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Recover turns a handler panic into the standard INTERNAL_ERROR body and logs the stack.
// It must run after requestid so the logged id matches the one returned to the client.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestID := RequestID(c)
			appErr := domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
			logger.ErrorContext(c.UserContext(), "handler panicked",
				slog.String("request_id", requestID),
				slog.String("route", routePattern(c)),
				slog.Any("error", appErr.Err),
				slog.String("stack", string(debug.Stack())),
			)
			err = writeError(c, appErr, requestID)
		}()
		return c.Next()
	}
}
