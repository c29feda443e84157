package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/domain"
)

// UserStore resolves API keys to accounts.
type UserStore interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error)
}

// APIKeyAuth authenticates requests with `Authorization: Bearer <api key>`
// and stores the owning user's id in locals for downstream handlers.
func APIKeyAuth(users UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := bearerToken(c.Get(fiber.HeaderAuthorization))
		if apiKey == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing api key")
		}

		user, err := users.GetByAPIKey(c.Context(), apiKey)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
			}
			return err
		}

		c.Locals(userIDKey, user.ID)
		return c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
