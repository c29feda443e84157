package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/emailcheck"
)

type EmailChecker interface {
	CheckAll(ctx context.Context, emails []string) ([]emailcheck.Result, error)
}

type EmailCheckHandler struct {
	checker EmailChecker
}

func NewEmailCheckHandler(checker EmailChecker) (*EmailCheckHandler, error) {
	if checker == nil {
		return nil, fmt.Errorf("email checker is required")
	}
	return &EmailCheckHandler{checker: checker}, nil
}

func RegisterEmailCheckRoutes(router fiber.Router, checker EmailChecker) error {
	h, err := NewEmailCheckHandler(checker)
	if err != nil {
		return err
	}

	router.Post("/emails/validate", h.ValidateEmails)
	return nil
}

type validateEmailsRequest struct {
	Emails []string `json:"emails"`
}

func (h *EmailCheckHandler) ValidateEmails(c *fiber.Ctx) error {
	if _, err := authUserID(c); err != nil {
		return err
	}

	var req validateEmailsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Emails) == 0 {
		return toHTTPError(fmt.Errorf("%w: emails is required", domain.ErrValidation))
	}

	results, err := h.checker.CheckAll(c.Context(), req.Emails)
	if err != nil {
		return toHTTPError(err)
	}

	valid := 0
	for _, r := range results {
		if r.IsValid && r.HasMXRecord && r.IsReachable {
			valid++
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"results":    results,
		"totalCount": len(results),
		"validCount": valid,
	})
}
