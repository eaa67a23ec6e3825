package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements the Store interface using Firestore. Documents are
// keyed by email in the user_data and user_sheets collections.
type FirestoreStore struct {
	client *firestore.Client
}

type firestoreUserData struct {
	Email     string    `firestore:"email"`
	Data      string    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type firestoreSheet struct {
	Email     string    `firestore:"email"`
	SheetID   string    `firestore:"sheet_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

// applyCursorPagination adds OrderBy + StartAfter + Limit to a query for cursor-based pagination.
// It fetches pageSize+1 docs so the caller can detect whether a next page exists.
func (s *FirestoreStore) applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, int, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(docID)
	}

	size := normalizePageSize(pageSize)
	query = query.Limit(size + 1) // +1 to detect next page
	return query, size, nil
}

// GetUserData reads the raw document saved for email
func (s *FirestoreStore) GetUserData(ctx context.Context, email string) (string, error) {
	doc, err := s.client.Collection(userDataCollection).Doc(email).Get(ctx)
	if err != nil {
		return "", notFoundOr(err, "user data")
	}

	var rec firestoreUserData
	if err := doc.DataTo(&rec); err != nil {
		return "", fmt.Errorf("failed to parse user data: %w", err)
	}
	return rec.Data, nil
}

// PutUserData replaces the raw document saved for email
func (s *FirestoreStore) PutUserData(ctx context.Context, email, data string) error {
	_, err := s.client.Collection(userDataCollection).Doc(email).Set(ctx, firestoreUserData{
		Email:     email,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save user data: %w", err)
	}
	return nil
}

// GetSheetID reads the spreadsheet id recorded for email
func (s *FirestoreStore) GetSheetID(ctx context.Context, email string) (string, error) {
	doc, err := s.client.Collection(userSheetsCollection).Doc(email).Get(ctx)
	if err != nil {
		return "", notFoundOr(err, "sheet record")
	}

	var rec firestoreSheet
	if err := doc.DataTo(&rec); err != nil {
		return "", fmt.Errorf("failed to parse sheet record: %w", err)
	}
	return rec.SheetID, nil
}

// PutSheetID records the spreadsheet id for email
func (s *FirestoreStore) PutSheetID(ctx context.Context, email, sheetID string) error {
	_, err := s.client.Collection(userSheetsCollection).Doc(email).Set(ctx, firestoreSheet{
		Email:     email,
		SheetID:   sheetID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save sheet record: %w", err)
	}
	return nil
}

// ListUserEmails pages through user_data document ids
func (s *FirestoreStore) ListUserEmails(ctx context.Context, pageSize int32, pageToken string) ([]string, string, error) {
	query, size, err := s.applyCursorPagination(s.client.Collection(userDataCollection).Query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}

	var nextToken string
	if len(docs) > size {
		docs = docs[:size]
		nextToken = EncodePageToken(docs[len(docs)-1].Ref.ID)
	}

	emails := make([]string, 0, len(docs))
	for _, doc := range docs {
		emails = append(emails, doc.Ref.ID)
	}
	return emails, nextToken, nil
}

// Ping issues a single-document read against user_data
func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection(userDataCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func notFoundOr(err error, what string) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
