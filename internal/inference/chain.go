package inference

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jimikki-app/backend/internal/config"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/prompt"
)

// EmptyReply replaces a reply that is blank once reasoning is stripped.
const EmptyReply = "No response generated."

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	// A closer without an opener: the template put the opener in the prompt.
	strayClose = regexp.MustCompile(`(?is)^.*</think>`)
	// An opener without a closer: reasoning was cut off by the token budget.
	strayOpen = regexp.MustCompile(`(?is)<think>.*$`)
)

// StripReasoning removes model reasoning and returns the trimmed answer, which
// is empty when the model produced nothing but reasoning.
func StripReasoning(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	text = strayClose.ReplaceAllString(text, "")
	text = strayOpen.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CleanReply strips reasoning and substitutes EmptyReply for a blank answer.
func CleanReply(text string) string {
	if cleaned := StripReasoning(text); cleaned != "" {
		return cleaned
	}
	return EmptyReply
}

// Chain tries providers in order and returns the first non-empty reply.
type Chain struct {
	providers []Provider
	log       logging.Logger
}

// NewChain creates a chain over providers in priority order.
func NewChain(log logging.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, log: log}
}

// NewChainFromConfig builds the Workers AI models followed by Gemini, skipping
// whichever backends have no credentials.
func NewChainFromConfig(cfg *config.Config, log logging.Logger) *Chain {
	var providers []Provider
	if cfg.WorkersAIConfigured() {
		for _, spec := range WorkersAISpecs(cfg.WorkersAIModels) {
			providers = append(providers, NewWorkersAIClient(cfg.CFAccountID, cfg.CFAPIToken, spec))
		}
	}
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, NewGeminiClient(cfg.GeminiAPIKey, ModelSpec{Model: cfg.GeminiModel, MaxTokens: 2048}))
	}
	return NewChain(log, providers...)
}

// Configured reports whether at least one provider is available.
func (c *Chain) Configured() bool {
	return len(c.providers) > 0
}

// Models lists provider names in the order they are tried.
func (c *Chain) Models() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate returns the cleaned reply and the model that produced it. A reply
// that is blank once reasoning is stripped counts as a failure and moves on to
// the next provider.
func (c *Chain) Generate(ctx context.Context, messages []prompt.Message) (string, string, error) {
	if !c.Configured() {
		return "", "", &InferenceError{Code: ErrNotConfigured, Message: "no inference provider configured"}
	}

	var causes []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			causes = append(causes, err)
			break
		}

		start := time.Now()
		raw, err := p.Generate(ctx, messages)
		reply := StripReasoning(raw)
		if err == nil && reply == "" {
			err = &InferenceError{Code: ErrEmptyResponse, Model: p.Name(), Message: "model returned no answer"}
		}
		if err != nil {
			c.log.Warn(ctx, "model failed, trying next",
				"model", p.Name(),
				"duration", time.Since(start),
				"error", err)
			causes = append(causes, err)
			continue
		}

		c.log.Info(ctx, "model replied", "model", p.Name(), "duration", time.Since(start))
		return reply, p.Name(), nil
	}

	return "", "", &InferenceError{
		Code:    ErrAllModelsFailed,
		Message: fmt.Sprintf("%d of %d models failed", len(causes), len(c.providers)),
		Cause:   errors.Join(causes...),
	}
}
