package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// geminiAPI is the slice of the genai client used by the adapter.
type geminiAPI interface {
	GenerateContent(ctx context.Context, modelID string, temperature float32, maxTokens int32, prompt string) (*genai.GenerateContentResponse, error)
}

type genaiBackend struct {
	client *genai.Client
}

func (b *genaiBackend) GenerateContent(ctx context.Context, modelID string, temperature float32, maxTokens int32, prompt string) (*genai.GenerateContentResponse, error) {
	m := b.client.GenerativeModel(modelID)
	m.SetTemperature(temperature)
	if maxTokens > 0 {
		m.SetMaxOutputTokens(maxTokens)
	}
	return m.GenerateContent(ctx, genai.Text(prompt))
}

// GeminiAdapter adapts the Gemini generateContent API.
type GeminiAdapter struct {
	api   geminiAPI
	model string
	close func() error
}

// NewGeminiAdapter creates a Gemini client for apiKey. Close releases it.
func NewGeminiAdapter(ctx context.Context, apiKey, defaultModel string) (*GeminiAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	return &GeminiAdapter{api: &genaiBackend{client: client}, model: defaultModel, close: client.Close}, nil
}

// Close releases the underlying client.
func (a *GeminiAdapter) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func (a *GeminiAdapter) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	const op = "llm: gemini"

	m := modelOr(req, a.model)
	resp, err := a.api.GenerateContent(ctx, m, float32(req.Temperature), int32(req.MaxOutputTokens), req.Prompt)
	if err != nil {
		return model.GenerationResult{}, upstreamError(op, err, 0, "")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.GenerationResult{}, emptyAnswer(op)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return model.GenerationResult{}, emptyAnswer(op)
	}

	res := model.GenerationResult{Text: text, Model: m}
	if resp.UsageMetadata != nil {
		res.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		res.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return res, nil
}
