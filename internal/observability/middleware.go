package observability

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CorrelationMiddleware copies the request ID into the request context so
// services logging through WithContextLogger pick it up. It runs after the
// requestid middleware.
func CorrelationMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if correlationID == "" {
			if value, ok := c.Locals("requestid").(string); ok {
				correlationID = strings.TrimSpace(value)
			}
		}
		if correlationID != "" {
			c.Context().SetUserValue(correlationIDKey{}, correlationID)
		}
		return c.Next()
	}
}
