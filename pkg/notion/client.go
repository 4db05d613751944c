// Package notion reads the mentor directory kept in a Notion database.
package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond matches the average rate Notion allows per
// integration.
const DefaultRequestsPerSecond = 3

// Client is the read-only part of the Notion API the mentor import uses.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// ClientOption configures NewClient.
type ClientOption func(*throttledClient)

// WithRateLimit sets the request rate. rps <= 0 turns throttling off, which
// is only sensible against a stub server.
func WithRateLimit(rps float64) ClientOption {
	return func(c *throttledClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithHTTPTimeout bounds each Notion request.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *throttledClient) { c.timeout = d }
}

type throttledClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient returns a Client for an internal integration token. Requests
// share one limiter, so concurrent imports stay under the rate limit.
func NewClient(token string, opts ...ClientOption) Client {
	c := &throttledClient{
		api:     notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(DefaultRequestsPerSecond, 1),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *throttledClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "notion: waiting to query %s", dbID)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query database %s", dbID)
	}
	return resp, nil
}
