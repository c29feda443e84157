package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/observability"
	"github.com/seralp/mailcast/internal/repository"
	"go.uber.org/zap"
)

// ProviderEvent is one inbound delivery-lifecycle notification.
type ProviderEvent struct {
	Type        string
	Recipient   string
	BroadcastID string
}

// WebhookService reconciles provider webhook events into campaign counters.
// It is deliberately forgiving: unknown event kinds, unknown broadcast IDs,
// and replayed deliveries are all benign no-ops so the provider never sees a
// retryable failure for conditions that will not improve. Only storage errors
// propagate.
type WebhookService struct {
	campaigns repository.CampaignRepository
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewWebhookService(campaigns repository.CampaignRepository, logger *zap.Logger) (*WebhookService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookService{
		campaigns: campaigns,
		logger:    logger,
	}, nil
}

func (s *WebhookService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HandleEvent records the event and increments at most one campaign counter,
// exactly once per distinct (campaign, recipient, kind).
func (s *WebhookService) HandleEvent(ctx context.Context, event ProviderEvent) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(s.logger, ctx)

	kind, ok := domain.KindFromProviderType(event.Type)
	if !ok {
		logger.Debug("ignoring unhandled webhook event type", zap.String("type", event.Type))
		s.metrics.IncWebhookEvent(observability.WebhookUnknownKind)
		return nil
	}

	broadcastID := strings.TrimSpace(event.BroadcastID)
	recipient := strings.TrimSpace(event.Recipient)
	if broadcastID == "" || recipient == "" {
		logger.Warn("webhook event missing correlation fields",
			zap.String("type", event.Type),
			zap.Bool("hasBroadcastId", broadcastID != ""),
			zap.Bool("hasRecipient", recipient != ""),
		)
		s.metrics.IncWebhookEvent(observability.WebhookUnknownCampaign)
		return nil
	}

	campaign, err := s.campaigns.GetByBroadcastID(ctx, broadcastID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Test events and webhooks for other instances land here.
			logger.Info("webhook for unknown broadcast", zap.String("broadcastId", broadcastID))
			s.metrics.IncWebhookEvent(observability.WebhookUnknownCampaign)
			return nil
		}
		return fmt.Errorf("failed to resolve campaign for webhook: %w", err)
	}

	recorded, err := s.campaigns.RecordRecipientEvent(ctx, campaign.ID, recipient, kind)
	if err != nil {
		return fmt.Errorf("failed to record recipient event: %w", err)
	}

	if !recorded {
		logger.Debug("duplicate webhook delivery ignored",
			zap.String("campaignId", campaign.ID),
			zap.String("kind", kind.String()),
		)
		s.metrics.IncWebhookEvent(observability.WebhookDuplicate)
		return nil
	}

	logger.Info("webhook event recorded",
		zap.String("campaignId", campaign.ID),
		zap.String("kind", kind.String()),
	)
	s.metrics.IncWebhookEvent(observability.WebhookProcessed)
	return nil
}
