// Package sheets mirrors a user's document into a Google spreadsheet owned by
// a service account and shared read-only with the user.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jimikki-app/backend/internal/finance"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/model"
	"github.com/jimikki-app/backend/internal/store"
)

// Export stages reported in ExportError.
const (
	StageConnect = "connect"
	StageLookup  = "lookup"
	StageCreate  = "create"
	StagePersist = "persist"
	StageClear   = "clear"
	StageWrite   = "write"
	StageFormat  = "format"
)

// ExportError is returned when an export stops part way.
type ExportError struct {
	Stage string
	Email string
	Cause error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("sheets export %s for %s: %v", e.Stage, e.Email, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

// URL returns the browser link for a spreadsheet id.
func URL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// Exporter rewrites one spreadsheet per user.
type Exporter struct {
	store    store.Store
	connect  Connector
	folderID string
	money    finance.Formatter
	opts     finance.Options
	now      func() time.Time
	log      logging.Logger
}

// NewExporter creates a new exporter. An empty folderID leaves new
// spreadsheets in the service account's root.
func NewExporter(st store.Store, connect Connector, folderID string, money finance.Formatter, log logging.Logger) *Exporter {
	return &Exporter{
		store:    st,
		connect:  connect,
		folderID: folderID,
		money:    money,
		opts:     finance.DefaultOptions(),
		now:      time.Now,
		log:      log.With("component", "sheets"),
	}
}

// Title is the spreadsheet title for email.
func Title(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return "Jimikki — " + cases.Title(language.Und).String(local)
}

// Export rewrites the user's spreadsheet from doc, creating it on first use,
// and returns its URL.
func (e *Exporter) Export(ctx context.Context, email string, doc *model.UserDocument) (string, error) {
	api, err := e.connect(ctx)
	if err != nil {
		return "", &ExportError{Stage: StageConnect, Email: email, Cause: err}
	}

	id, err := e.ensureSpreadsheet(ctx, api, email)
	if err != nil {
		return "", err
	}

	layout := BuildLayout(email, finance.Aggregate(doc, e.opts), e.money, e.now())

	if err := api.ClearRange(ctx, id, DataRange); err != nil {
		return "", &ExportError{Stage: StageClear, Email: email, Cause: err}
	}
	if err := api.WriteValues(ctx, id, WriteRange, layout.Rows); err != nil {
		return "", &ExportError{Stage: StageWrite, Email: email, Cause: err}
	}
	if err := api.BatchUpdate(ctx, id, FormatRequests(layout)); err != nil {
		return "", &ExportError{Stage: StageFormat, Email: email, Cause: err}
	}

	e.log.Info(ctx, "spreadsheet exported", "email", email, "spreadsheet_id", id, "rows", len(layout.Rows))
	return URL(id), nil
}

// ensureSpreadsheet returns the recorded spreadsheet id or creates, files,
// shares and records a new one. Move and share failures are logged only.
func (e *Exporter) ensureSpreadsheet(ctx context.Context, api API, email string) (string, error) {
	id, err := e.store.GetSheetID(ctx, email)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", &ExportError{Stage: StageLookup, Email: email, Cause: err}
	}

	id, err = api.CreateSpreadsheet(ctx, Title(email))
	if err != nil {
		return "", &ExportError{Stage: StageCreate, Email: email, Cause: err}
	}

	if e.folderID != "" {
		if err := api.MoveToFolder(ctx, id, e.folderID); err != nil {
			e.log.Warn(ctx, "failed to move spreadsheet into folder", "email", email, "spreadsheet_id", id, "error", err)
		}
	}
	if err := api.ShareWithReader(ctx, id, email); err != nil {
		e.log.Warn(ctx, "failed to share spreadsheet", "email", email, "spreadsheet_id", id, "error", err)
	}

	if err := e.store.PutSheetID(ctx, email, id); err != nil {
		return "", &ExportError{Stage: StagePersist, Email: email, Cause: err}
	}

	e.log.Info(ctx, "spreadsheet created", "email", email, "spreadsheet_id", id)
	return id, nil
}
