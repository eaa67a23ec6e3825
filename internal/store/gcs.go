package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const jsonExt = ".json"

// GCSStore keeps each record as an object in a Cloud Storage bucket:
// user_data/<email>.json holds the document and user_sheets/<email> the
// spreadsheet id.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a bucket-backed store.
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func dataObject(email string) string {
	return userDataCollection + "/" + email + jsonExt
}

func sheetObject(email string) string {
	return userSheetsCollection + "/" + email
}

func (s *GCSStore) read(ctx context.Context, name string) (string, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(b), nil
}

func (s *GCSStore) write(ctx context.Context, name, contentType, body string) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) GetUserData(ctx context.Context, email string) (string, error) {
	return s.read(ctx, dataObject(email))
}

func (s *GCSStore) PutUserData(ctx context.Context, email, data string) error {
	return s.write(ctx, dataObject(email), "application/json", data)
}

func (s *GCSStore) GetSheetID(ctx context.Context, email string) (string, error) {
	return s.read(ctx, sheetObject(email))
}

func (s *GCSStore) PutSheetID(ctx context.Context, email, sheetID string) error {
	return s.write(ctx, sheetObject(email), "text/plain", sheetID)
}

// ListUserEmails pages through user_data/ objects. Page tokens are the
// bucket listing's own continuation tokens.
func (s *GCSStore) ListUserEmails(ctx context.Context, pageSize int32, pageToken string) ([]string, string, error) {
	prefix := userDataCollection + "/"
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	pager := iterator.NewPager(it, normalizePageSize(pageSize), pageToken)

	var attrs []*storage.ObjectAttrs
	next, err := pager.NextPage(&attrs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}

	emails := make([]string, 0, len(attrs))
	for _, a := range attrs {
		name := strings.TrimPrefix(a.Name, prefix)
		if !strings.HasSuffix(name, jsonExt) {
			continue
		}
		emails = append(emails, strings.TrimSuffix(name, jsonExt))
	}
	return emails, next, nil
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
