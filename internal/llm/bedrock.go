package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// BedrockConverseAPI is the slice of the Bedrock runtime client used by the
// adapter.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type bedrockAdapter struct {
	api   BedrockConverseAPI
	model string
}

// NewBedrockAdapter adapts the Bedrock Converse API.
func NewBedrockAdapter(api BedrockConverseAPI, defaultModel string) Adapter {
	return &bedrockAdapter{api: api, model: defaultModel}
}

func (a *bedrockAdapter) Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error) {
	const op = "llm: bedrock"

	m := modelOr(req, a.model)
	inference := &brtypes.InferenceConfiguration{
		Temperature: aws.Float32(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(req.MaxOutputTokens))
	}

	out, err := a.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(m),
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: req.Prompt}},
		}},
		InferenceConfig: inference,
	})
	if err != nil {
		status := 0
		var re *smithyhttp.ResponseError
		if errors.As(err, &re) {
			status = re.HTTPStatusCode()
		}
		return model.GenerationResult{}, upstreamError(op, err, status, "")
	}

	text := strings.TrimSpace(converseText(out))
	if text == "" {
		return model.GenerationResult{}, emptyAnswer(op)
	}

	res := model.GenerationResult{Text: text, Model: m}
	if out.Usage != nil {
		res.InputTokens = int64(aws.ToInt32(out.Usage.InputTokens))
		res.OutputTokens = int64(aws.ToInt32(out.Usage.OutputTokens))
	}
	return res, nil
}

func converseText(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}
