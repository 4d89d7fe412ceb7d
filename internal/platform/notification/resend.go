package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ResendSender delivers email through the Resend HTTP API.
type ResendSender struct {
	client *resty.Client
	from   string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// NewResendSender creates a sender for the given API base URL and key.
func NewResendSender(baseURL, apiKey, from string) *ResendSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendSender{client: client, from: from}
}

func (s *ResendSender) SendEmail(ctx context.Context, email Email) error {
	var result resendResponse
	var apiErr resendError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    s.from,
			To:      []string{email.To},
			Subject: email.Subject,
			Text:    email.Text,
			HTML:    email.HTML,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("resend: %s (status %d)", apiErr.Message, resp.StatusCode())
		}
		return fmt.Errorf("resend: unexpected status %d", resp.StatusCode())
	}
	if result.ID == "" {
		return fmt.Errorf("resend: response missing message id")
	}
	return nil
}
