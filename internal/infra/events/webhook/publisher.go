// Package webhook delivers reservation events to an HTTP endpoint.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
)

// Headers set on every delivery.
const (
	HeaderEventID   = "X-Event-Id"
	HeaderEventType = "X-Event-Type"
	HeaderSource    = "X-Event-Source"
	HeaderSignature = "X-Signature-256"
)

// Config holds webhook delivery settings.
type Config struct {
	BaseURL  string
	Endpoint string
	Source   string
	// Secret signs the body with HMAC-SHA256 when non-empty.
	Secret  string
	Timeout time.Duration
	Retry   RetryConfig
	CB      CBConfig
}

// Publisher implements domain.EventPublisher by POSTing JSON events.
type Publisher struct {
	endpoint string
	source   string
	secret   []byte
	client   *resty.Client
	cb       *gobreaker.CircuitBreaker[*resty.Response]
	logger   *zap.Logger
}

// NewPublisher creates a webhook publisher.
func NewPublisher(cfg Config, logger *zap.Logger) *Publisher {
	return &Publisher{
		endpoint: cfg.Endpoint,
		source:   cfg.Source,
		secret:   []byte(cfg.Secret),
		client:   newRestyClient(cfg.BaseURL, cfg.Timeout, cfg.Retry),
		cb:       newCircuitBreaker[*resty.Response]("events_webhook", cfg.CB, logger),
		logger:   logger,
	}
}

// Publish implements domain.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	_, err = p.cb.Execute(func() (*resty.Response, error) {
		req := p.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader(HeaderEventID, event.ID).
			SetHeader(HeaderEventType, string(event.Type)).
			SetHeader(HeaderSource, p.source).
			SetBody(body)
		if len(p.secret) > 0 {
			req.SetHeader(HeaderSignature, "sha256="+Sign(p.secret, body))
		}

		r, err := req.Post(p.endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("webhook returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		p.logger.Warn("webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("state", p.cb.State().String()),
			zap.Error(err),
		)

		return fmt.Errorf("delivering %s event: %w", event.Type, err)
	}

	return nil
}

// Close implements domain.EventPublisher.
func (p *Publisher) Close() error {
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}
