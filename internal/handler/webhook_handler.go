package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/service"
)

type WebhookService interface {
	HandleEvent(ctx context.Context, event service.ProviderEvent) error
}

type WebhookHandler struct {
	service WebhookService
}

func NewWebhookHandler(service WebhookService) (*WebhookHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("webhook service is required")
	}
	return &WebhookHandler{service: service}, nil
}

func RegisterWebhookRoutes(router fiber.Router, service WebhookService) error {
	h, err := NewWebhookHandler(service)
	if err != nil {
		return err
	}

	router.Post("/webhooks/resend", h.HandleResendWebhook)
	return nil
}

type resendWebhookRequest struct {
	Type string `json:"type"`
	Data struct {
		To          recipientList `json:"to"`
		BroadcastID string        `json:"broadcast_id"`
	} `json:"data"`
}

// recipientList tolerates both shapes the provider emits for "to": a single
// recipient as a JSON string or a list of recipients.
type recipientList []string

func (r *recipientList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*r = many
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*r = recipientList{one}
	return nil
}

// HandleResendWebhook ingests provider delivery events. The endpoint answers
// 200 for everything it can safely ignore so the provider does not retry
// malformed or irrelevant deliveries; only storage failures surface as 5xx.
func (h *WebhookHandler) HandleResendWebhook(c *fiber.Ctx) error {
	var req resendWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}

	recipient := ""
	if len(req.Data.To) > 0 {
		recipient = req.Data.To[0]
	}

	err := h.service.HandleEvent(c.Context(), service.ProviderEvent{
		Type:        req.Type,
		Recipient:   recipient,
		BroadcastID: req.Data.BroadcastID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
