package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

type anthropicAdapter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAdapter adapts the Anthropic Messages API.
func NewAnthropicAdapter(client anthropic.Client, defaultModel string) Adapter {
	return &anthropicAdapter{client: client, model: defaultModel}
}

func (a *anthropicAdapter) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	const op = "llm: anthropic"

	m := modelOr(req, a.model)
	temp := req.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       m,
		MaxTokens:   int64(req.MaxOutputTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		status := 0
		var se *anthropic.StatusError
		if errors.As(err, &se) {
			status = se.StatusCode
		}
		return model.GenerationResult{}, upstreamError(op, err, status, "")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return model.GenerationResult{}, emptyAnswer(op)
	}

	return model.GenerationResult{
		Text:         text,
		Model:        m,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
