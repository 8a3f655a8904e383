package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// LocalRequestID is the locals key used by the requestid middleware
const LocalRequestID = "requestid"

// RequestID returns the id assigned by the requestid middleware, falling back to the inbound header
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalRequestID).(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
