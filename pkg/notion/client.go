// Package notion wraps the Notion API calls the lead log makes: database
// queries, page creation and page property updates.
package notion

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Client defines the Notion API operations used by this application.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// DefaultRateLimit is Notion's documented average of 3 requests per second.
const DefaultRateLimit = 3.0

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides DefaultRateLimit. A non-positive rps disables
// throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry sets how often a call Notion rejected as rate limited, conflicting
// or unavailable is repeated. ShouldRetry and OnRetry are always replaced.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *notionClient) { c.retry = cfg }
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Notion client for the given integration token,
// throttled to DefaultRateLimit and retrying transient rejections 3 times.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(DefaultRateLimit, 1),
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     10 * time.Second,
			Multiplier:     2,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retryable reports whether Notion rejected a request in a way that may
// succeed on a later attempt: 429 rate_limited, 409 conflict_error, or 503.
func Retryable(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusTooManyRequests, http.StatusConflict, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}
	return nil
}

// call throttles and retries fn. Every attempt waits on the limiter.
func call[T any](ctx context.Context, c *notionClient, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := c.retry
	cfg.ShouldRetry = Retryable
	cfg.OnRetry = resilience.RetryLogger("notion", op)

	v, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		if err := c.wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return fn(ctx)
	})
	if err != nil {
		return v, eris.Wrap(err, "notion: "+op)
	}
	return v, nil
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return call(ctx, c, "query database "+dbID, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "create page", func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Create(ctx, req)
	})
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "update page "+pageID, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}
