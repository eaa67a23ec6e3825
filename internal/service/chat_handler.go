package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jimikki-app/backend/internal/auth"
	"github.com/jimikki-app/backend/internal/chat"
	"github.com/jimikki-app/backend/internal/inference"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/prompt"
)

// MaxChatBody caps the chat request size.
const MaxChatBody = 64 << 10

// ChatHandler serves the assistant endpoint.
type ChatHandler struct {
	chat *chat.Service
	log  logging.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *chat.Service, log logging.Logger) *ChatHandler {
	return &ChatHandler{chat: svc, log: log.With("component", "chat")}
}

type chatBody struct {
	Message  json.RawMessage  `json:"message"`
	History  []prompt.Message `json:"history"`
	UserData json.RawMessage  `json:"userData"`
}

// Chat answers one message. The message must be a non-empty string.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := auth.RequireAuth(ctx)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, chat.Response{Reply: "🔒 Not authenticated.", Error: "unauthenticated"})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxChatBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, chat.Response{Reply: "Message too long.", Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, chat.Response{Reply: "Invalid request.", Error: "bad request"})
		return
	}

	var body chatBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, chat.Response{Reply: "Invalid request.", Error: "bad request"})
		return
	}
	var message string
	if err := json.Unmarshal(body.Message, &message); err != nil || message == "" {
		writeJSON(w, http.StatusBadRequest, chat.Response{Reply: "No message provided.", Error: "bad request"})
		return
	}

	resp, err := h.chat.Reply(ctx, email, chat.Request{
		Message:  message,
		History:  body.History,
		UserData: body.UserData,
	})
	if err != nil {
		if resp != nil && inference.HasCode(err, inference.ErrAllModelsFailed) {
			writeJSON(w, http.StatusBadGateway, resp)
			return
		}
		h.log.Error(ctx, "chat failed", "email", email, "error", err)
		writeJSON(w, http.StatusInternalServerError, chat.Response{Reply: "❌ Something went wrong. Please try again.", Error: "server error"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
