// Package cost estimates the spend of text-generation calls.
package cost

import "strings"

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps provider name to model ID to pricing.
type Rates map[string]map[string]ModelRate

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Generation computes the cost of one generation call. Unknown providers or
// models cost 0. Bedrock model IDs may carry a region prefix ("us.") which is
// ignored for lookup.
func (c *Calculator) Generation(provider, model string, input, output int64) float64 {
	models, ok := c.rates[strings.ToLower(provider)]
	if !ok {
		return 0
	}
	rate, ok := models[model]
	if !ok {
		if _, rest, found := strings.Cut(model, "."); found {
			rate, ok = models[rest]
		}
		if !ok {
			return 0
		}
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		"anthropic": {
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		"openai": {
			"gpt-4o":      {Input: 2.50, Output: 10.00},
			"gpt-4o-mini": {Input: 0.15, Output: 0.60},
		},
		"gemini": {
			"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
		},
		"bedrock": {
			"anthropic.claude-3-5-sonnet-20240620-v1:0": {Input: 3.00, Output: 15.00},
			"anthropic.claude-3-haiku-20240307-v1:0":    {Input: 0.25, Output: 1.25},
		},
	}
}
