package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultSendTimeout = 10 * time.Second
	broadcastTagName   = "broadcast_id"
)

type sendEmailRequest struct {
	From    string     `json:"from"`
	To      []string   `json:"to"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html"`
	Tags    []emailTag `json:"tags,omitempty"`
}

type emailTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ResendClient sends email through a Resend-compatible HTTP API. It is
// constructed once at startup and injected wherever sends happen; there is no
// package-level client.
type ResendClient struct {
	client  *resty.Client
	baseURL string
}

var _ EmailSender = (*ResendClient)(nil)

func NewResendClient(baseURL string, apiKey string) (*ResendClient, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return NewResendClientWithClient(baseURL, apiKey, client)
}

func NewResendClientWithClient(baseURL string, apiKey string, client *resty.Client) (*ResendClient, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBaseURL == "" {
		return nil, fmt.Errorf("provider base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("provider api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)
	client.SetAuthToken(apiKey)

	return &ResendClient{
		client:  client,
		baseURL: trimmedBaseURL,
	}, nil
}

func (c *ResendClient) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(msg.To) == "" {
		return nil, fmt.Errorf("recipient is required")
	}

	reqBody := sendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	if msg.BroadcastID != "" {
		reqBody.Tags = []emailTag{{Name: broadcastTagName, Value: msg.BroadcastID}}
	}

	var okBody sendEmailResponse
	var errBody apiError

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&okBody).
		SetError(&errBody).
		Post(c.baseURL + "/emails")
	if err != nil {
		return nil, &Error{
			Message: "provider request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &Error{Message: "provider returned empty response"}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			MessageID:  okBody.ID,
			StatusCode: statusCode,
		}, nil
	}

	message := strings.TrimSpace(errBody.Message)
	if message == "" {
		message = strings.TrimSpace(response.String())
	}
	return nil, &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("provider returned status %d: %s", statusCode, message),
	}
}
