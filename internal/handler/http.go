package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/domain"
)

// userIDKey is the fiber locals slot set by the auth middleware.
const userIDKey = "userID"

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func authUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(userIDKey).(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return userID, nil
}
