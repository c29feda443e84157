package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/repository"
)

type ContactListService interface {
	Create(ctx context.Context, userID string, name string, emails []string, audienceID *string) (*domain.ContactList, error)
	List(ctx context.Context, userID string) ([]repository.ContactListWithCampaigns, error)
	Get(ctx context.Context, userID string, id string) (*domain.ContactList, error)
	Update(ctx context.Context, userID string, id string, name string, emails []string, audienceID *string) (*domain.ContactList, error)
	Delete(ctx context.Context, userID string, id string) error
}

type ContactListHandler struct {
	service ContactListService
}

func NewContactListHandler(service ContactListService) (*ContactListHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("contact list service is required")
	}
	return &ContactListHandler{service: service}, nil
}

func RegisterContactListRoutes(router fiber.Router, service ContactListService) error {
	h, err := NewContactListHandler(service)
	if err != nil {
		return err
	}

	router.Post("/contact-lists", h.CreateContactList)
	router.Get("/contact-lists", h.ListContactLists)
	router.Get("/contact-lists/:id", h.GetContactList)
	router.Put("/contact-lists/:id", h.UpdateContactList)
	router.Delete("/contact-lists/:id", h.DeleteContactList)

	return nil
}

type contactListRequest struct {
	Name       string   `json:"name"`
	Emails     []string `json:"emails"`
	AudienceID *string  `json:"audienceId"`
}

type contactListResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Emails        []string  `json:"emails"`
	EmailCount    int       `json:"emailCount"`
	AudienceID    *string   `json:"audienceId,omitempty"`
	CampaignCount int       `json:"campaignCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (h *ContactListHandler) CreateContactList(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	var req contactListRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.service.Create(c.Context(), userID, req.Name, req.Emails, req.AudienceID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toContactListResponse(list, 0))
}

func (h *ContactListHandler) ListContactLists(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	lists, err := h.service.List(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]contactListResponse, 0, len(lists))
	for i := range lists {
		responses = append(responses, toContactListResponse(&lists[i].List, lists[i].CampaignCount))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func (h *ContactListHandler) GetContactList(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	list, err := h.service.Get(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toContactListResponse(list, 0))
}

func (h *ContactListHandler) UpdateContactList(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	var req contactListRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.service.Update(c.Context(), userID, strings.TrimSpace(c.Params("id")), req.Name, req.Emails, req.AudienceID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toContactListResponse(list, 0))
}

func (h *ContactListHandler) DeleteContactList(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"contactListId": id,
		"deleted":       true,
	})
}

func toContactListResponse(l *domain.ContactList, campaignCount int) contactListResponse {
	if l == nil {
		return contactListResponse{}
	}

	return contactListResponse{
		ID:            l.ID,
		Name:          l.Name,
		Emails:        l.Emails,
		EmailCount:    len(l.Emails),
		AudienceID:    l.AudienceID,
		CampaignCount: campaignCount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}
