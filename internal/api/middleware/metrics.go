package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// HTTPRecorder is implemented by *metrics.Manager
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// Metrics records one observation per request, labelled by the matched route template.
// Registered ahead of Logger, which has already written error responses by the time it returns.
func Metrics(recorder HTTPRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		recorder.RecordHTTPRequest(routePattern(c), c.Method(), status, time.Since(start))
		return err
	}
}

// routePattern keeps label cardinality bounded by using the registered path, not the raw URL
func routePattern(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	return "unmatched"
}

func statusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return domain.AsAppError(err).StatusCode
}
