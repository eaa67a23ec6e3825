package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// API is the subset of the Sheets and Drive APIs the exporter needs.
type API interface {
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	MoveToFolder(ctx context.Context, fileID, folderID string) error
	ShareWithReader(ctx context.Context, fileID, email string) error
	ClearRange(ctx context.Context, spreadsheetID, rng string) error
	WriteValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*gsheets.Request) error
}

// Connector opens an authorised API for one export.
type Connector func(ctx context.Context) (API, error)

// GoogleAPI implements API over the Sheets v4 and Drive v3 clients.
type GoogleAPI struct {
	sheets *gsheets.Service
	drive  *drive.Service
}

// NewGoogleAPI creates both clients with the same options.
func NewGoogleAPI(ctx context.Context, opts ...option.ClientOption) (*GoogleAPI, error) {
	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return &GoogleAPI{sheets: sheetsSvc, drive: driveSvc}, nil
}

// NewGoogleConnector mints a new service-account token on every call.
func NewGoogleConnector(creds Credentials) Connector {
	return func(ctx context.Context) (API, error) {
		tok, err := creds.MintToken(ctx)
		if err != nil {
			return nil, err
		}
		return NewGoogleAPI(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	}
}

func (g *GoogleAPI) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	resp, err := g.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
		Sheets: []*gsheets.Sheet{{
			Properties: &gsheets.SheetProperties{
				Title:           SheetTitle,
				SheetId:         SheetID,
				ForceSendFields: []string{"SheetId"},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", err)
	}
	if resp.SpreadsheetId == "" {
		return "", fmt.Errorf("create spreadsheet: response has no id")
	}
	return resp.SpreadsheetId, nil
}

func (g *GoogleAPI) MoveToFolder(ctx context.Context, fileID, folderID string) error {
	_, err := g.drive.Files.Update(fileID, &drive.File{}).
		AddParents(folderID).
		RemoveParents("root").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("move %s to folder %s: %w", fileID, folderID, err)
	}
	return nil
}

func (g *GoogleAPI) ShareWithReader(ctx context.Context, fileID, email string) error {
	_, err := g.drive.Permissions.Create(fileID, &drive.Permission{
		Role:         "reader",
		Type:         "user",
		EmailAddress: email,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("share %s with %s: %w", fileID, email, err)
	}
	return nil
}

func (g *GoogleAPI) ClearRange(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.sheets.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleAPI) WriteValues(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	_, err := g.sheets.Spreadsheets.Values.Update(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleAPI) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*gsheets.Request) error {
	_, err := g.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}
