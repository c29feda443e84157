package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/repository"
	"github.com/seralp/mailcast/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

type CampaignService interface {
	Send(ctx context.Context, userID string, in service.SendInput) (*service.SendOutcome, error)
	GetByID(ctx context.Context, userID string, id string) (*domain.Campaign, error)
	List(ctx context.Context, userID string, params repository.ListParams) ([]domain.Campaign, int64, error)
	Delete(ctx context.Context, userID string, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	Summary(ctx context.Context, userID string) (*repository.UserSummary, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	router.Post("/campaigns/send", h.SendCampaign)
	router.Get("/campaigns", h.ListCampaigns)
	router.Get("/campaigns/:id", h.GetCampaign)
	router.Delete("/campaigns/:id", h.DeleteCampaign)
	router.Delete("/campaigns", h.DeleteAllCampaigns)
	router.Get("/dashboard/summary", h.GetDashboardSummary)

	return nil
}

type sendCampaignRequest struct {
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	ContactListID string `json:"contactListId"`
}

type sendCampaignResponse struct {
	Success        bool   `json:"success"`
	CampaignID     string `json:"campaignId"`
	RecipientCount int    `json:"recipientCount"`
	SuccessCount   int    `json:"successCount"`
	FailedCount    int    `json:"failedCount"`
}

type campaignResponse struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body,omitempty"`
	ContactListID  string    `json:"contactListId"`
	Status         string    `json:"status"`
	SentCount      int       `json:"sentCount"`
	DeliveredCount int       `json:"deliveredCount"`
	OpenedCount    int       `json:"openedCount"`
	FailedCount    int       `json:"failedCount"`
	DeliveryRate   float64   `json:"deliveryRate"`
	OpenRate       float64   `json:"openRate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type listCampaignsResponse struct {
	Data []campaignResponse `json:"data"`
	Meta listMeta           `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type dashboardSummaryResponse struct {
	Campaigns int64 `json:"campaigns"`
	Sent      int64 `json:"sent"`
	Delivered int64 `json:"delivered"`
	Opened    int64 `json:"opened"`
	Failed    int64 `json:"failed"`
}

func (h *CampaignHandler) SendCampaign(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	var req sendCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.service.Send(c.Context(), userID, service.SendInput{
		Subject:       req.Subject,
		Body:          req.Body,
		ContactListID: req.ContactListID,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(sendCampaignResponse{
		Success:        outcome.SuccessCount > 0,
		CampaignID:     outcome.CampaignID,
		RecipientCount: outcome.RecipientCount,
		SuccessCount:   outcome.SuccessCount,
		FailedCount:    outcome.FailedCount,
	})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	campaigns, total, err := h.service.List(c.Context(), userID, params)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, toCampaignResponse(&campaigns[i], false))
	}

	return c.Status(fiber.StatusOK).JSON(listCampaignsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	campaign, err := h.service.GetByID(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign, true))
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"campaignId": id,
		"deleted":    true,
	})
}

func (h *CampaignHandler) DeleteAllCampaigns(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	deleted, err := h.service.DeleteAll(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"deletedCount": deleted,
	})
}

func (h *CampaignHandler) GetDashboardSummary(c *fiber.Ctx) error {
	userID, err := authUserID(c)
	if err != nil {
		return err
	}

	summary, err := h.service.Summary(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(dashboardSummaryResponse{
		Campaigns: summary.Campaigns,
		Sent:      summary.Sent,
		Delivered: summary.Delivered,
		Opened:    summary.Opened,
		Failed:    summary.Failed,
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseCampaignStatus(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	return params, nil
}

func toCampaignResponse(campaign *domain.Campaign, includeBody bool) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	resp := campaignResponse{
		ID:             campaign.ID,
		Subject:        campaign.Subject,
		ContactListID:  campaign.ContactListID,
		Status:         campaign.Status.String(),
		SentCount:      campaign.SentCount,
		DeliveredCount: campaign.DeliveredCount,
		OpenedCount:    campaign.OpenedCount,
		FailedCount:    campaign.FailedCount,
		DeliveryRate:   campaign.DeliveryRate(),
		OpenRate:       campaign.OpenRate(),
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
	if includeBody {
		resp.Body = campaign.Body
	}
	return resp
}
