// Package llm is the text-generation layer: one Adapter per backend, a
// Registry keyed by the closed Provider enum, and a Client owning the retry
// policy shared by every backend.
package llm

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderBedrock   Provider = "bedrock"
)

// Providers lists every supported backend.
var Providers = []Provider{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderBedrock}

// ParseProvider maps a configured name onto the Provider enum.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", eris.Errorf("llm: unknown provider %q", s)
}

// Adapter performs exactly one generation call against a backend. Failures
// are returned as *model.Error values; adapters never panic.
type Adapter interface {
	Generate(ctx context.Context, req model.GenerationRequest) (model.GenerationResult, error)
}

// Registry holds one Adapter per Provider.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Provider]Adapter)}
}

// Register installs a for p, replacing any existing adapter.
func (r *Registry) Register(p Provider, a Adapter) {
	r.adapters[p] = a
}

// Adapter returns the adapter for p.
func (r *Registry) Adapter(p Provider) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// Registered returns the providers with an adapter, sorted.
func (r *Registry) Registered() []Provider {
	out := make([]Provider, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
