package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/seralp/mailcast/internal/domain"
	"github.com/seralp/mailcast/internal/provider"
	"github.com/seralp/mailcast/internal/repository"
	"go.uber.org/zap"
)

type finalizeCall struct {
	id          string
	status      domain.CampaignStatus
	sentCount   int
	failedCount int
	messageIDs  []string
}

type fakeCampaignRepo struct {
	created       []*domain.Campaign
	finalizeCalls []finalizeCall
	createErr     error
	finalizeErr   error

	byBroadcastID map[string]*domain.Campaign
	broadcastErr  error

	recordedInsert bool
	recordErr      error
	recordCalls    []string
}

func (f *fakeCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeCampaignRepo) GetByID(ctx context.Context, id string, userID string) (*domain.Campaign, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeCampaignRepo) GetByBroadcastID(ctx context.Context, broadcastID string) (*domain.Campaign, error) {
	if f.broadcastErr != nil {
		return nil, f.broadcastErr
	}
	c, ok := f.byBroadcastID[broadcastID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCampaignRepo) List(ctx context.Context, userID string, params repository.ListParams) ([]domain.Campaign, int64, error) {
	return nil, 0, nil
}

func (f *fakeCampaignRepo) FinalizeSend(ctx context.Context, id string, status domain.CampaignStatus, sentCount int, failedCount int, providerMessageIDs []string) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalizeCalls = append(f.finalizeCalls, finalizeCall{
		id:          id,
		status:      status,
		sentCount:   sentCount,
		failedCount: failedCount,
		messageIDs:  providerMessageIDs,
	})
	return nil
}

func (f *fakeCampaignRepo) Delete(ctx context.Context, id string, userID string) error {
	return nil
}

func (f *fakeCampaignRepo) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (f *fakeCampaignRepo) SummaryByUser(ctx context.Context, userID string) (*repository.UserSummary, error) {
	return &repository.UserSummary{}, nil
}

func (f *fakeCampaignRepo) RecordRecipientEvent(ctx context.Context, campaignID string, recipient string, kind domain.EventKind) (bool, error) {
	f.recordCalls = append(f.recordCalls, campaignID+"/"+recipient+"/"+kind.String())
	if f.recordErr != nil {
		return false, f.recordErr
	}
	return f.recordedInsert, nil
}

type fakeListRepo struct {
	lists   map[string]*domain.ContactList
	created []*domain.ContactList
	updated []*domain.ContactList
	deleted []string
}

func (f *fakeListRepo) Create(ctx context.Context, l *domain.ContactList) error {
	f.created = append(f.created, l)
	return nil
}

func (f *fakeListRepo) GetByID(ctx context.Context, id string, userID string) (*domain.ContactList, error) {
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (f *fakeListRepo) ListByUser(ctx context.Context, userID string) ([]repository.ContactListWithCampaigns, error) {
	return nil, nil
}

func (f *fakeListRepo) Update(ctx context.Context, l *domain.ContactList) error {
	f.updated = append(f.updated, l)
	f.lists[l.ID] = l
	return nil
}

func (f *fakeListRepo) Delete(ctx context.Context, id string, userID string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeSender fails recipients listed in failWith and succeeds otherwise.
type fakeSender struct {
	sent     []provider.Message
	failWith map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg provider.Message) (*provider.SendResult, error) {
	f.sent = append(f.sent, msg)
	if err, ok := f.failWith[msg.To]; ok {
		return nil, err
	}
	return &provider.SendResult{
		MessageID:  fmt.Sprintf("msg-%d", len(f.sent)),
		StatusCode: http.StatusOK,
	}, nil
}

type fakeLimiter struct {
	waits   int
	waitErr error
}

func (f *fakeLimiter) Wait(ctx context.Context, scope string) error {
	f.waits++
	return f.waitErr
}

func newTestCampaignService(t *testing.T, campaigns *fakeCampaignRepo, lists *fakeListRepo, sender *fakeSender, limiter *fakeLimiter) *CampaignService {
	t.Helper()

	svc, err := NewCampaignService(campaigns, lists, sender, limiter, "noreply@mailcast.dev", "Mailcast", zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}
	return svc
}

func testList(userID string, emails ...string) *fakeListRepo {
	return &fakeListRepo{
		lists: map[string]*domain.ContactList{
			"list-1": {
				ID:     "list-1",
				UserID: userID,
				Name:   "launch",
				Emails: emails,
			},
		},
	}
}

func TestCampaignServiceSendAllSucceed(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	lists := testList("user-1", "a@example.com", "b@example.com", "c@example.com")
	sender := &fakeSender{}
	limiter := &fakeLimiter{}

	svc := newTestCampaignService(t, campaigns, lists, sender, limiter)

	outcome, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "Launch day",
		Body:          "<p>We are live.</p>",
		ContactListID: "list-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.RecipientCount != 3 || outcome.SuccessCount != 3 || outcome.FailedCount != 0 {
		t.Fatalf("outcome = %+v, want 3/3/0", outcome)
	}
	if outcome.SuccessCount+outcome.FailedCount != outcome.RecipientCount {
		t.Fatalf("counts do not partition recipients: %+v", outcome)
	}

	if limiter.waits != 3 {
		t.Fatalf("limiter waits = %d, want one per recipient", limiter.waits)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("sends = %d, want 3", len(sender.sent))
	}
	for _, msg := range sender.sent {
		if msg.BroadcastID != outcome.BroadcastID {
			t.Fatalf("message broadcast id = %q, want %q", msg.BroadcastID, outcome.BroadcastID)
		}
		if !strings.Contains(msg.HTML, "We are live.") {
			t.Fatal("rendered HTML does not contain campaign body")
		}
	}

	if len(campaigns.created) != 1 {
		t.Fatalf("created campaigns = %d, want 1", len(campaigns.created))
	}
	if campaigns.created[0].Status != domain.StatusSending {
		t.Fatalf("initial status = %s, want SENDING", campaigns.created[0].Status)
	}

	if len(campaigns.finalizeCalls) != 1 {
		t.Fatalf("finalize calls = %d, want exactly 1", len(campaigns.finalizeCalls))
	}
	final := campaigns.finalizeCalls[0]
	if final.status != domain.StatusSent || final.sentCount != 3 || final.failedCount != 0 {
		t.Fatalf("finalize = %+v, want SENT 3/0", final)
	}
	if len(final.messageIDs) != 3 {
		t.Fatalf("provider message ids = %d, want 3", len(final.messageIDs))
	}
}

func TestCampaignServiceSendPartialFailure(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	lists := testList("user-1", "a@example.com", "b@example.com", "c@example.com")
	sender := &fakeSender{
		failWith: map[string]error{
			"b@example.com": &provider.Error{StatusCode: http.StatusUnprocessableEntity, Message: "invalid to"},
		},
	}
	limiter := &fakeLimiter{}

	svc := newTestCampaignService(t, campaigns, lists, sender, limiter)

	outcome, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "Launch day",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.SuccessCount != 2 || outcome.FailedCount != 1 {
		t.Fatalf("outcome = %+v, want 2 succeeded 1 failed", outcome)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("sends = %d, want the loop to continue past the failure", len(sender.sent))
	}

	final := campaigns.finalizeCalls[0]
	if final.status != domain.StatusSent {
		t.Fatalf("status = %s, want SENT despite partial failure", final.status)
	}
	if len(final.messageIDs) != 2 {
		t.Fatalf("provider message ids = %d, want 2", len(final.messageIDs))
	}
}

func TestCampaignServiceSendAllFail(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	lists := testList("user-1", "a@example.com", "b@example.com")
	sender := &fakeSender{
		failWith: map[string]error{
			"a@example.com": errors.New("dial tcp: timeout"),
			"b@example.com": errors.New("dial tcp: timeout"),
		},
	}

	svc := newTestCampaignService(t, campaigns, lists, sender, &fakeLimiter{})

	outcome, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "Launch day",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.SuccessCount != 0 || outcome.FailedCount != 2 {
		t.Fatalf("outcome = %+v, want 0/2", outcome)
	}
	if got := campaigns.finalizeCalls[0].status; got != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED when nothing was sent", got)
	}
}

func TestCampaignServiceSendAuthErrorFailsRemaining(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	lists := testList("user-1", "a@example.com", "b@example.com", "c@example.com", "d@example.com")
	sender := &fakeSender{
		failWith: map[string]error{
			"b@example.com": &provider.Error{StatusCode: http.StatusUnauthorized, Message: "invalid api key"},
		},
	}

	svc := newTestCampaignService(t, campaigns, lists, sender, &fakeLimiter{})

	outcome, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "Launch day",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sends = %d, want the loop to stop at the auth rejection", len(sender.sent))
	}
	if outcome.SuccessCount != 1 || outcome.FailedCount != 3 {
		t.Fatalf("outcome = %+v, want remaining recipients counted as failed", outcome)
	}
	if outcome.SuccessCount+outcome.FailedCount != outcome.RecipientCount {
		t.Fatalf("counts do not partition recipients: %+v", outcome)
	}
}

func TestCampaignServiceSendThrottleErrorFailsRemaining(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	lists := testList("user-1", "a@example.com", "b@example.com")

	svc := newTestCampaignService(t, campaigns, lists, &fakeSender{}, &fakeLimiter{waitErr: context.Canceled})

	outcome, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "Launch day",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if outcome.SuccessCount != 0 || outcome.FailedCount != 2 {
		t.Fatalf("outcome = %+v, want all recipients failed", outcome)
	}
	if got := campaigns.finalizeCalls[0].status; got != domain.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got)
	}
}

func TestCampaignServiceSendValidation(t *testing.T) {
	t.Parallel()

	longSubject := strings.Repeat("s", domain.MaxSubjectLen+1)

	tests := []struct {
		name  string
		input SendInput
	}{
		{"missing subject", SendInput{Body: "<p>hi</p>", ContactListID: "list-1"}},
		{"subject too long", SendInput{Subject: longSubject, Body: "<p>hi</p>", ContactListID: "list-1"}},
		{"missing body", SendInput{Subject: "hello", ContactListID: "list-1"}},
		{"blank body", SendInput{Subject: "hello", Body: "   ", ContactListID: "list-1"}},
		{"missing list", SendInput{Subject: "hello", Body: "<p>hi</p>"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			campaigns := &fakeCampaignRepo{}
			sender := &fakeSender{}
			svc := newTestCampaignService(t, campaigns, testList("user-1", "a@example.com"), sender, &fakeLimiter{})

			_, err := svc.Send(context.Background(), "user-1", tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Send() error = %v, want ErrValidation", err)
			}
			if len(sender.sent) != 0 {
				t.Fatal("no sends should happen on validation failure")
			}
			if len(campaigns.created) != 0 {
				t.Fatal("no campaign row should be created on validation failure")
			}
		})
	}
}

func TestCampaignServiceSendListNotFound(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	svc := newTestCampaignService(t, &fakeCampaignRepo{}, testList("someone-else", "a@example.com"), sender, &fakeLimiter{})

	_, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "hello",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Send() error = %v, want ErrNotFound for another user's list", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("no sends should happen when the list is not found")
	}
}

func TestCampaignServiceSendEmptyList(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{}
	svc := newTestCampaignService(t, campaigns, testList("user-1"), &fakeSender{}, &fakeLimiter{})

	_, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "hello",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Send() error = %v, want ErrValidation for empty list", err)
	}
	if len(campaigns.created) != 0 {
		t.Fatal("no campaign row should be created for an empty list")
	}
}

func TestCampaignServiceSendFinalizeError(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaignRepo{finalizeErr: errors.New("connection reset")}
	svc := newTestCampaignService(t, campaigns, testList("user-1", "a@example.com"), &fakeSender{}, &fakeLimiter{})

	_, err := svc.Send(context.Background(), "user-1", SendInput{
		Subject:       "hello",
		Body:          "<p>hi</p>",
		ContactListID: "list-1",
	})
	if err == nil {
		t.Fatal("expected error when the aggregate write fails")
	}
}
