// Package chat answers a user's question about their own finances by feeding
// the stored document through the aggregator and prompt into a chat model.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/inference"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/model"
	"github.com/jimikki-app/backend/internal/prompt"
	"github.com/jimikki-app/backend/internal/store"
)

// Error labels returned alongside a degraded reply.
const (
	ErrorNotConfigured = "inference_not_configured"
	ErrorUnavailable   = "inference_unavailable"
)

const (
	notConfiguredReply = "⚙️ AI inference is not configured.\n\nSet CF_ACCOUNT_ID and CF_API_TOKEN for Workers AI, or GEMINI_API_KEY for Gemini, then restart the server."
	unavailableReply   = "❌ All AI models failed to respond. Please try again in a moment."
)

// Generator produces a reply from an ordered set of models.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, messages []prompt.Message) (reply, model string, err error)
}

// Request is the chat request body.
type Request struct {
	Message  string           `json:"message"`
	History  []prompt.Message `json:"history"`
	UserData json.RawMessage  `json:"userData,omitempty"`
}

// Response is the chat response body.
type Response struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
	Model string `json:"model,omitempty"`
}

// Service runs the chat pipeline.
type Service struct {
	store   store.Store
	gen     Generator
	builder *prompt.Builder
	opts    finance.Options
	log     logging.Logger
}

// NewService creates a new chat service.
func NewService(st store.Store, gen Generator, builder *prompt.Builder, log logging.Logger) *Service {
	return &Service{
		store:   st,
		gen:     gen,
		builder: builder,
		opts:    finance.DefaultOptions(),
		log:     log.With("component", "chat"),
	}
}

// NoDataReply is the answer given when the user has nothing saved yet.
func NoDataReply(email string) string {
	return fmt.Sprintf("I don't have any financial data for your account yet (%s). Please add some transactions in the app first, then I'll be able to analyze everything for you!", email)
}

// Reply answers req for email. When every model fails the returned response
// still carries a labelled reply and err wraps the inference failure.
func (s *Service) Reply(ctx context.Context, email string, req Request) (*Response, error) {
	doc := s.loadDocument(ctx, email, req.UserData)
	if doc == nil {
		return &Response{Reply: NoDataReply(email)}, nil
	}

	if !s.gen.Configured() {
		s.log.Warn(ctx, "chat requested but no inference provider is configured")
		return &Response{Reply: notConfiguredReply, Error: ErrorNotConfigured}, nil
	}

	report := finance.Aggregate(doc, s.opts)
	messages := s.builder.Messages(email, report, req.History, req.Message)

	reply, model, err := s.gen.Generate(ctx, messages)
	if err != nil {
		s.log.Error(ctx, "all models failed", "email", email, "error", err)
		return &Response{Reply: unavailableReply, Error: ErrorUnavailable}, fmt.Errorf("generate reply: %w", err)
	}

	s.log.Info(ctx, "chat answered", "email", email, "model", model, "transactions", len(report.Transactions))
	return &Response{Reply: reply, Model: model}, nil
}

// loadDocument prefers the stored document and falls back to the copy the
// client sent. Read and decode failures count as no data.
func (s *Service) loadDocument(ctx context.Context, email string, fallback json.RawMessage) *model.UserDocument {
	raw, err := s.store.GetUserData(ctx, email)
	switch {
	case err == nil:
		doc, derr := model.Decode([]byte(raw))
		if derr == nil {
			return doc
		}
		s.log.Warn(ctx, "stored document is unreadable", "email", email, "error", derr)
	case errors.Is(err, store.ErrNotFound):
	default:
		s.log.Error(ctx, "failed to read user data", "email", email, "error", err)
	}

	if len(fallback) == 0 || string(fallback) == "null" {
		return nil
	}
	doc, err := model.Decode(fallback)
	if err != nil {
		s.log.Warn(ctx, "request userData is unreadable", "email", email, "error", err)
		return nil
	}
	return doc
}

var _ Generator = (*inference.Chain)(nil)
