// Package store persists one raw JSON document and one spreadsheet id per user
// email. Every backend is last-writer-wins: a put replaces the stored value
// wholesale.
package store

import (
	"context"
	"encoding/base64"
	"errors"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned when no record exists for the requested email.
var ErrNotFound = errors.New("not found")

// Collection and table names shared by the backends.
const (
	userDataCollection   = "user_data"
	userSheetsCollection = "user_sheets"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 100

// Store defines the interface for all persistence used by the service
type Store interface {
	// User document operations. GetUserData returns the raw text exactly as
	// it was saved, or ErrNotFound.
	GetUserData(ctx context.Context, email string) (string, error)
	PutUserData(ctx context.Context, email, data string) error

	// Spreadsheet record operations. GetSheetID returns ErrNotFound when no
	// spreadsheet has been created for email yet.
	GetSheetID(ctx context.Context, email string) (string, error)
	PutSheetID(ctx context.Context, email, sheetID string) error

	// ListUserEmails pages through every email with a saved document, in
	// ascending order. An empty next token means there are no more pages.
	ListUserEmails(ctx context.Context, pageSize int32, pageToken string) ([]string, string, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// EncodePageToken encodes a cursor key into a page token.
func EncodePageToken(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodePageToken decodes a page token back to a cursor key.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func normalizePageSize(pageSize int32) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	if pageSize > 1000 {
		return 1000
	}
	return int(pageSize)
}
