package llm

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/chatcompletion"
)

// FromConfig builds a Client with adapters for every provider the research
// and build stages select. The returned cleanup releases adapter resources.
func FromConfig(ctx context.Context, cfg *config.Config) (*Client, func(), error) {
	reg := NewRegistry()
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	seen := map[Provider]bool{}
	for _, name := range []string{cfg.Research.Provider, cfg.Build.Provider} {
		p, err := ParseProvider(name)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true

		switch p {
		case ProviderAnthropic:
			client := anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
			reg.Register(p, NewAnthropicAdapter(client, cfg.Anthropic.Model))
		case ProviderOpenAI:
			client := chatcompletion.NewClient(cfg.OpenAI.Key,
				chatcompletion.WithBaseURL(cfg.OpenAI.BaseURL),
				chatcompletion.WithModel(cfg.OpenAI.Model),
			)
			reg.Register(p, NewChatCompletionAdapter(client, cfg.OpenAI.Model))
		case ProviderGemini:
			a, err := NewGeminiAdapter(ctx, cfg.Gemini.Key, cfg.Gemini.Model)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			closers = append(closers, a.Close)
			reg.Register(p, a)
		case ProviderBedrock:
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Bedrock.Region))
			if err != nil {
				cleanup()
				return nil, nil, eris.Wrap(err, "llm: load aws config")
			}
			reg.Register(p, NewBedrockAdapter(bedrockruntime.NewFromConfig(awsCfg), cfg.Bedrock.Model))
		}
	}

	retry := resilience.FromRetryConfig(cfg.LLM.RetryAttempts, cfg.LLM.RetryBaseDelayMs, 0, 2.0, 0)
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	return NewClient(reg, retry, timeout), cleanup, nil
}
