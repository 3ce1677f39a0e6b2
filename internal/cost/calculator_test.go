package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		"anthropic": {
			"haiku":  {Input: 0.80, Output: 4.00},
			"sonnet": {Input: 3.00, Output: 15.00},
		},
		"bedrock": {
			"anthropic.claude-3-haiku-20240307-v1:0": {Input: 0.25, Output: 1.25},
		},
	}
}

func TestGeneration(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name     string
		provider string
		model    string
		input    int64
		output   int64
		want     float64
	}{
		{name: "sonnet", provider: "anthropic", model: "sonnet", input: 1_000_000, output: 100_000, want: 4.50},
		{name: "haiku small", provider: "anthropic", model: "haiku", input: 10_000, output: 2_000, want: 0.016},
		{name: "provider case", provider: "Anthropic", model: "haiku", input: 1_000_000, want: 0.80},
		{name: "region prefix", provider: "bedrock", model: "us.anthropic.claude-3-haiku-20240307-v1:0", input: 1_000_000, output: 1_000_000, want: 1.50},
		{name: "unknown model", provider: "anthropic", model: "mystery", input: 1_000_000, want: 0},
		{name: "unknown provider", provider: "cohere", model: "command", input: 1_000_000, want: 0},
		{name: "zero tokens", provider: "anthropic", model: "sonnet", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Generation(tt.provider, tt.model, tt.input, tt.output)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDefaultRates_CoverConfiguredDefaults(t *testing.T) {
	rates := DefaultRates()
	for provider, model := range map[string]string{
		"anthropic": "claude-sonnet-4-5-20250929",
		"openai":    "gpt-4o",
		"gemini":    "gemini-2.5-flash",
		"bedrock":   "anthropic.claude-3-5-sonnet-20240620-v1:0",
	} {
		_, ok := rates[provider][model]
		assert.True(t, ok, "%s/%s should be priced", provider, model)
	}
}
