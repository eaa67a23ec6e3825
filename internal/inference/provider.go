// Package inference calls hosted chat models and falls back across them in a
// fixed order.
package inference

import (
	"context"
	"net/http"
	"time"

	"github.com/jimikki-app/backend/internal/prompt"
)

const defaultTimeout = 90 * time.Second

// Provider generates one reply for a message list.
type Provider interface {
	// Name identifies the model in logs and errors.
	Name() string
	Generate(ctx context.Context, messages []prompt.Message) (string, error)
}

// ModelSpec is the per-model request budget.
type ModelSpec struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func float(v float64) *float64 {
	return &v
}

// WorkersAISpecs attaches token budgets to Workers AI model ids. The compact
// Llama fallback gets a smaller budget and a low temperature.
func WorkersAISpecs(models []string) []ModelSpec {
	specs := make([]ModelSpec, 0, len(models))
	for _, m := range models {
		spec := ModelSpec{Model: m, MaxTokens: 2048}
		if m == "@cf/meta/llama-3.3-70b-instruct-fp8-fast" {
			spec.MaxTokens = 1500
			spec.Temperature = float(0.1)
		}
		specs = append(specs, spec)
	}
	return specs
}
