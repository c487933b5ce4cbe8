package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// MailMessage is the payload accepted by the external mail function.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// MailDelivery defines a transport for outbound mail. Callers treat delivery
// as best effort; no delivery confirmation is tracked.
type MailDelivery interface {
	Deliver(ctx context.Context, message MailMessage) error
}

// HTTPMailDelivery posts messages to an HTTP mail function authorized by a
// static bearer credential.
type HTTPMailDelivery struct {
	endpoint string
	token    string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTPMailDelivery constructs the HTTP transport.
func NewHTTPMailDelivery(endpoint, token string, logger zerolog.Logger) *HTTPMailDelivery {
	return &HTTPMailDelivery{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With().Str("component", "mail_delivery").Logger(),
	}
}

// Deliver posts the message to the mail endpoint.
func (d *HTTPMailDelivery) Deliver(ctx context.Context, message MailMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail endpoint returned status %d", resp.StatusCode)
	}

	d.logger.Info().Str("to", message.To).Str("subject", message.Subject).Msg("mail dispatched")

	return nil
}

// LogMailDelivery logs messages instead of sending them. Used when no mail
// endpoint is configured, for example in development.
type LogMailDelivery struct {
	logger zerolog.Logger
}

// NewLogMailDelivery constructs a logging transport.
func NewLogMailDelivery(logger zerolog.Logger) *LogMailDelivery {
	return &LogMailDelivery{logger: logger.With().Str("component", "mail_delivery").Logger()}
}

// Deliver logs the message and reports success.
func (l *LogMailDelivery) Deliver(ctx context.Context, message MailMessage) error {
	l.logger.Info().Str("to", message.To).Str("subject", message.Subject).Msg("mail delivery skipped, no endpoint configured")
	return nil
}
