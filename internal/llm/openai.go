package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/chatcompletion"
)

type chatAdapter struct {
	client chatcompletion.Client
	model  string
}

// NewChatCompletionAdapter adapts any OpenAI-compatible chat completions API.
func NewChatCompletionAdapter(client chatcompletion.Client, defaultModel string) Adapter {
	return &chatAdapter{client: client, model: defaultModel}
}

func (a *chatAdapter) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	const op = "llm: openai"

	m := modelOr(req, a.model)
	temp, maxTokens := req.Temperature, req.MaxOutputTokens
	resp, err := a.client.ChatCompletion(ctx, chatcompletion.Request{
		Model:       m,
		Messages:    []chatcompletion.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		var se *chatcompletion.StatusError
		if errors.As(err, &se) {
			return model.GenerationResult{}, upstreamError(op, err, se.StatusCode, se.Body)
		}
		return model.GenerationResult{}, upstreamError(op, err, 0, "")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return model.GenerationResult{}, emptyAnswer(op)
	}

	if resp.Model != "" {
		m = resp.Model
	}
	return model.GenerationResult{
		Text:         text,
		Model:        m,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
