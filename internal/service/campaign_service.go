package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/observability"
	"github.com/seralp/mailcast/internal/provider"
	"github.com/seralp/mailcast/internal/ratelimit"
	"github.com/seralp/mailcast/internal/repository"
	"go.uber.org/zap"
)

// sendScope is the rate-limit bucket shared by all outbound sends.
const sendScope = "email"

type CampaignService struct {
	campaigns repository.CampaignRepository
	lists     repository.ContactListRepository
	sender    provider.EmailSender
	limiter   ratelimit.Limiter
	metrics   *observability.Metrics
	logger    *zap.Logger
	from      string
	fromName  string
	now       func() time.Time
}

// SendInput is one campaign dispatch request.
type SendInput struct {
	Subject       string
	Body          string
	ContactListID string
}

// SendOutcome is the batch sender's aggregate result. SuccessCount plus
// FailedCount always equals RecipientCount.
type SendOutcome struct {
	CampaignID     string
	BroadcastID    string
	RecipientCount int
	SuccessCount   int
	FailedCount    int
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	lists repository.ContactListRepository,
	sender provider.EmailSender,
	limiter ratelimit.Limiter,
	from string,
	fromName string,
	logger *zap.Logger,
) (*CampaignService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if lists == nil {
		return nil, fmt.Errorf("contact list repository is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns: campaigns,
		lists:     lists,
		sender:    sender,
		limiter:   limiter,
		logger:    logger,
		from:      from,
		fromName:  fromName,
		now:       time.Now,
	}, nil
}

func (s *CampaignService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Send runs one campaign dispatch: validate, create the campaign row in
// SENDING state with zero aggregates, then send to each recipient in turn
// with a throttle gap between sends, and finally write the aggregate counts
// in a single update. Per-recipient failures do not stop the loop; only
// precondition failures abort before any send is issued.
func (s *CampaignService) Send(ctx context.Context, userID string, in SendInput) (*SendOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	campaign := &domain.Campaign{
		ID:            uuid.NewString(),
		UserID:        strings.TrimSpace(userID),
		ContactListID: strings.TrimSpace(in.ContactListID),
		Subject:       strings.TrimSpace(in.Subject),
		Body:          in.Body,
		BroadcastID:   uuid.NewString(),
		Status:        domain.StatusSending,
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	list, err := s.lists.GetByID(ctx, campaign.ContactListID, campaign.UserID)
	if err != nil {
		return nil, err
	}
	if len(list.Emails) == 0 {
		return nil, fmt.Errorf("%w: contact list is empty", domain.ErrValidation)
	}

	html, err := RenderEmailHTML(campaign.Body, campaign.Subject, s.fromName)
	if err != nil {
		return nil, err
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	logger := observability.WithContextLogger(s.logger, ctx).With(
		zap.String("campaignId", campaign.ID),
		zap.String("broadcastId", campaign.BroadcastID),
	)
	logger.Info("campaign dispatch started", zap.Int("recipients", len(list.Emails)))

	outcome := s.sendToRecipients(ctx, logger, campaign, list.Emails, html)

	status := domain.StatusSent
	if outcome.SuccessCount == 0 {
		status = domain.StatusFailed
	}

	if err := s.campaigns.FinalizeSend(
		ctx,
		campaign.ID,
		status,
		outcome.SuccessCount,
		outcome.FailedCount,
		outcome.providerMessageIDs,
	); err != nil {
		return nil, fmt.Errorf("failed to finalize campaign aggregates: %w", err)
	}
	s.metrics.IncCampaignDispatched(status.String())

	logger.Info("campaign dispatch finished",
		zap.String("status", status.String()),
		zap.Int("succeeded", outcome.SuccessCount),
		zap.Int("failed", outcome.FailedCount),
	)

	return &SendOutcome{
		CampaignID:     campaign.ID,
		BroadcastID:    campaign.BroadcastID,
		RecipientCount: len(list.Emails),
		SuccessCount:   outcome.SuccessCount,
		FailedCount:    outcome.FailedCount,
	}, nil
}

type batchOutcome struct {
	SuccessCount       int
	FailedCount        int
	providerMessageIDs []string
}

// sendToRecipients is the throttled loop. It never returns an error: each
// failure is absorbed into the failed count. An auth rejection or a broken
// context marks every remaining recipient failed, since retrying them inside
// this batch would fail identically.
func (s *CampaignService) sendToRecipients(
	ctx context.Context,
	logger *zap.Logger,
	campaign *domain.Campaign,
	recipients []string,
	html string,
) batchOutcome {
	outcome := batchOutcome{
		providerMessageIDs: make([]string, 0, len(recipients)),
	}

	for i, recipient := range recipients {
		if err := s.limiter.Wait(ctx, sendScope); err != nil {
			logger.Warn("throttle interrupted, failing remaining recipients",
				zap.Int("remaining", len(recipients)-i),
				zap.Error(err),
			)
			outcome.FailedCount += len(recipients) - i
			break
		}

		sendStart := s.now()
		result, err := s.sender.Send(ctx, provider.Message{
			From:        s.from,
			To:          recipient,
			Subject:     campaign.Subject,
			HTML:        html,
			BroadcastID: campaign.BroadcastID,
		})
		s.metrics.ObserveEmailSendDuration(s.now().Sub(sendStart))

		if err == nil {
			outcome.SuccessCount++
			if result != nil && strings.TrimSpace(result.MessageID) != "" {
				outcome.providerMessageIDs = append(outcome.providerMessageIDs, result.MessageID)
			}
			s.metrics.IncEmailSent()
			continue
		}

		reason := provider.FailureReason(err)
		logger.Warn("recipient send failed",
			zap.String("recipient", recipient),
			zap.String("reason", reason),
			zap.Error(err),
		)
		s.metrics.IncEmailFailed(reason)
		outcome.FailedCount++

		if provider.IsAuthError(err) {
			remaining := len(recipients) - i - 1
			if remaining > 0 {
				logger.Error("provider rejected credentials, failing remaining recipients",
					zap.Int("remaining", remaining),
				)
				for j := 0; j < remaining; j++ {
					s.metrics.IncEmailFailed(reason)
				}
				outcome.FailedCount += remaining
			}
			break
		}
	}

	return outcome
}

func (s *CampaignService) GetByID(ctx context.Context, userID string, id string) (*domain.Campaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}
	return s.campaigns.GetByID(ctx, strings.TrimSpace(id), userID)
}

func (s *CampaignService) List(ctx context.Context, userID string, params repository.ListParams) ([]domain.Campaign, int64, error) {
	return s.campaigns.List(ctx, userID, params)
}

func (s *CampaignService) Delete(ctx context.Context, userID string, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}
	return s.campaigns.Delete(ctx, strings.TrimSpace(id), userID)
}

func (s *CampaignService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return s.campaigns.DeleteAllByUser(ctx, userID)
}

func (s *CampaignService) Summary(ctx context.Context, userID string) (*repository.UserSummary, error) {
	return s.campaigns.SummaryByUser(ctx, userID)
}
