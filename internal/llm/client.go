package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// Generator is the uniform text-generation contract used by the pipeline.
type Generator interface {
	Generate(ctx context.Context, p Provider, req model.GenerationRequest) (model.GenerationResult, error)
}

// Client dispatches requests to registered adapters and retries failed
// attempts with exponential backoff.
type Client struct {
	registry *Registry
	retry    resilience.RetryConfig
	timeout  time.Duration
}

// NewClient creates a retrying client. A zero timeout disables the per-call
// deadline.
func NewClient(reg *Registry, retry resilience.RetryConfig, timeout time.Duration) *Client {
	return &Client{registry: reg, retry: retry, timeout: timeout}
}

// Generate runs req against provider p. Every attempt that fails is retried
// until the attempt budget runs out; the error returned after exhaustion is a
// *model.Error of kind KindUpstreamCall wrapping a
// *resilience.ExhaustedError around the last failure.
func (c *Client) Generate(ctx context.Context, p Provider, req model.GenerationRequest) (model.GenerationResult, error) {
	op := "llm: " + string(p)

	adapter, ok := c.registry.Adapter(p)
	if !ok {
		return model.GenerationResult{}, model.NewError(model.KindUpstreamCall, op, "provider not configured")
	}

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger(string(p), "generate")

	attempts := 0
	start := time.Now()
	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (model.GenerationResult, error) {
		attempts++
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return adapter.Generate(callCtx, req)
	})
	if err != nil {
		zap.L().Warn("llm: generation failed",
			zap.String("provider", string(p)),
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return model.GenerationResult{}, classify(op, err)
	}

	res.Provider = string(p)
	res.Attempts = attempts
	zap.L().Debug("llm: generation complete",
		zap.String("provider", string(p)),
		zap.String("model", res.Model),
		zap.Int("attempts", attempts),
		zap.Int64("output_tokens", res.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// classify turns a retry-loop error into a KindUpstreamCall *model.Error,
// carrying over the HTTP status and detail of the last adapter failure.
func classify(op string, err error) error {
	out := model.WrapError(model.KindUpstreamCall, op, "generation failed", err)

	var last *model.Error
	if errors.As(err, &last) {
		out.Status = last.Status
	}

	var exhausted *resilience.ExhaustedError
	if !errors.As(err, &exhausted) {
		out.Message = "generation aborted"
	}
	return out
}
