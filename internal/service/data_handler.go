package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jimikki-app/backend/internal/auth"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/model"
	"github.com/jimikki-app/backend/internal/sheets"
	"github.com/jimikki-app/backend/internal/store"
)

// MaxDataBody caps the saved document size.
const MaxDataBody = 5 << 20

// Exporter mirrors a saved document somewhere the user can browse it.
type Exporter interface {
	Export(ctx context.Context, email string, doc *model.UserDocument) (string, error)
}

// DataHandler serves the per-user document.
type DataHandler struct {
	store    store.Store
	exporter Exporter
	log      logging.Logger
}

// NewDataHandler creates a new data handler. A nil exporter disables the
// spreadsheet mirror.
func NewDataHandler(s store.Store, exporter Exporter, log logging.Logger) *DataHandler {
	return &DataHandler{store: s, exporter: exporter, log: log.With("component", "store")}
}

type saveResponse struct {
	OK       bool    `json:"ok"`
	SheetURL *string `json:"sheetUrl"`
}

// GetData returns the stored document with email and sheetUrl filled in, or
// the empty shape when nothing has been saved.
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := auth.RequireAuth(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	doc := map[string]json.RawMessage{
		"holders":      json.RawMessage(`[]`),
		"transactions": json.RawMessage(`[]`),
		"expBuckets":   json.RawMessage(`null`),
		"incBuckets":   json.RawMessage(`null`),
	}

	raw, err := h.store.GetUserData(ctx, email)
	switch {
	case err == nil:
		doc = nil
		if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
			h.log.Error(ctx, "stored document is not a JSON object", "email", email, "error", err)
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		h.log.Error(ctx, "failed to read user data", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	emailJSON, _ := json.Marshal(email)
	urlJSON, _ := json.Marshal(h.sheetURL(ctx, email))
	doc["email"] = emailJSON
	doc["sheetUrl"] = urlJSON

	writeJSON(w, http.StatusOK, doc)
}

// SaveData stores the request body verbatim and refreshes the spreadsheet.
// Export failures are logged and reported as a null sheetUrl.
func (h *DataHandler) SaveData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, err := auth.RequireAuth(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDataBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if !json.Valid(body) {
		h.log.Warn(ctx, "rejected save with malformed JSON", "email", email, "bytes", len(body))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	doc, err := model.Decode(body)
	if err != nil {
		h.log.Warn(ctx, "rejected invalid document", "email", email, "error", err)
		writeError(w, http.StatusBadRequest, "invalid document")
		return
	}

	if err := h.store.PutUserData(ctx, email, string(body)); err != nil {
		h.log.Error(ctx, "failed to save user data", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.log.Info(ctx, "user data saved", "email", email, "bytes", len(body), "transactions", len(doc.Transactions))

	resp := saveResponse{OK: true}
	if h.exporter != nil {
		url, err := h.exporter.Export(ctx, email, doc)
		if err != nil {
			h.log.Error(ctx, "spreadsheet export failed", "email", email, "error", err)
		} else {
			resp.SheetURL = &url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DataHandler) sheetURL(ctx context.Context, email string) *string {
	id, err := h.store.GetSheetID(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Warn(ctx, "failed to look up spreadsheet", "email", email, "error", err)
		}
		return nil
	}
	if id == "" {
		return nil
	}
	url := sheets.URL(id)
	return &url
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
