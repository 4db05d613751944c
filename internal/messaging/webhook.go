package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/resilience"
)

// WebhookTransport POSTs {"to","text"} to a messaging gateway.
type WebhookTransport struct {
	url     string
	token   string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

type webhookRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type webhookResponse struct {
	ID string `json:"id"`
}

// NewWebhookTransport creates a rate-limited transport with retries and a
// circuit breaker around the gateway.
func NewWebhookTransport(cfg config.MessagingConfig) *WebhookTransport {
	t := &WebhookTransport{
		url:     cfg.WebhookURL,
		token:   cfg.Token,
		timeout: cfg.Timeout,
		http:    &http.Client{},
		breaker: resilience.NewBreaker("messaging", cfg.BreakerThreshold, cfg.BreakerCooldown),
		retry:   resilience.DefaultRetryConfig(),
	}
	if t.timeout <= 0 {
		t.timeout = 10 * time.Second
	}
	if cfg.RatePerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(int(cfg.RatePerSecond), 1))
	}
	t.retry.AttemptTimeout = t.timeout
	t.retry.OnRetry = resilience.RetryLogger("messaging", "send")
	return t
}

// Send delivers text to contact.
func (t *WebhookTransport) Send(ctx context.Context, contact, text string) (*Delivery, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "messaging: rate limit")
		}
	}

	body, err := json.Marshal(webhookRequest{To: contact, Text: text})
	if err != nil {
		return nil, eris.Wrap(err, "messaging: marshal")
	}

	var d *Delivery
	err = t.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		d, err = resilience.DoVal(ctx, t.retry, func(ctx context.Context) (*Delivery, error) {
			return t.post(ctx, contact, body)
		})
		return err
	})
	if err != nil {
		return nil, eris.Wrapf(err, "messaging: send to %s", contact)
	}
	return d, nil
}

func (t *WebhookTransport) post(ctx context.Context, contact string, body []byte) (*Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "messaging: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("gateway status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	d := &Delivery{Contact: contact, SentAt: time.Now().UTC()}
	var wr webhookResponse
	if json.Unmarshal(data, &wr) == nil && wr.ID != "" {
		d.ID = wr.ID
	} else {
		d.ID = uuid.NewString()
	}
	zap.L().Debug("messaging: delivered", zap.String("delivery_id", d.ID), zap.String("contact", contact))
	return d, nil
}
