package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/repository"
	"go.uber.org/zap"
)

type ContactListService struct {
	lists  repository.ContactListRepository
	logger *zap.Logger
}

func NewContactListService(lists repository.ContactListRepository, logger *zap.Logger) (*ContactListService, error) {
	if lists == nil {
		return nil, fmt.Errorf("contact list repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ContactListService{
		lists:  lists,
		logger: logger,
	}, nil
}

func (s *ContactListService) Create(ctx context.Context, userID string, name string, emails []string, audienceID *string) (*domain.ContactList, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	list := &domain.ContactList{
		ID:         uuid.NewString(),
		UserID:     strings.TrimSpace(userID),
		Name:       strings.TrimSpace(name),
		Emails:     domain.NormalizeAddresses(emails),
		AudienceID: normalizeAudienceID(audienceID),
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}

	if err := s.lists.Create(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("contact list created",
		zap.String("contactListId", list.ID),
		zap.Int("emails", len(list.Emails)),
	)
	return list, nil
}

func (s *ContactListService) List(ctx context.Context, userID string) ([]repository.ContactListWithCampaigns, error) {
	return s.lists.ListByUser(ctx, userID)
}

func (s *ContactListService) Get(ctx context.Context, userID string, id string) (*domain.ContactList, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: contact list id is required", domain.ErrValidation)
	}
	return s.lists.GetByID(ctx, strings.TrimSpace(id), userID)
}

func (s *ContactListService) Update(ctx context.Context, userID string, id string, name string, emails []string, audienceID *string) (*domain.ContactList, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: contact list id is required", domain.ErrValidation)
	}

	list := &domain.ContactList{
		ID:         strings.TrimSpace(id),
		UserID:     strings.TrimSpace(userID),
		Name:       strings.TrimSpace(name),
		Emails:     domain.NormalizeAddresses(emails),
		AudienceID: normalizeAudienceID(audienceID),
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}

	if err := s.lists.Update(ctx, list); err != nil {
		return nil, err
	}

	return s.lists.GetByID(ctx, list.ID, list.UserID)
}

// normalizeAudienceID trims the provider audience reference and collapses a
// blank value to absent.
func normalizeAudienceID(audienceID *string) *string {
	if audienceID == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*audienceID)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *ContactListService) Delete(ctx context.Context, userID string, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: contact list id is required", domain.ErrValidation)
	}

	if err := s.lists.Delete(ctx, strings.TrimSpace(id), userID); err != nil {
		return err
	}

	s.logger.Info("contact list deleted", zap.String("contactListId", id))
	return nil
}
