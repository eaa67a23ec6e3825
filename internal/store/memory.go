package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryRecord struct {
	value     string
	updatedAt time.Time
}

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	// Storage maps keyed by email
	userData map[string]memoryRecord
	sheets   map[string]memoryRecord
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		userData: make(map[string]memoryRecord),
		sheets:   make(map[string]memoryRecord),
	}
}

// paginateIDs applies cursor-based pagination to a sorted slice of IDs.
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string, error) {
	cursor, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("invalid page token: %w", err)
	}

	start := 0
	if cursor != "" {
		start = sort.SearchStrings(ids, cursor)
		if start < len(ids) && ids[start] == cursor {
			start++
		}
	}

	size := normalizePageSize(pageSize)
	end := start + size
	if end >= len(ids) {
		return ids[start:], "", nil
	}
	page := ids[start:end]
	return page, EncodePageToken(page[len(page)-1]), nil
}

func (m *MemoryStore) GetUserData(ctx context.Context, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.userData[email]
	if !ok {
		return "", ErrNotFound
	}
	return rec.value, nil
}

func (m *MemoryStore) PutUserData(ctx context.Context, email, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userData[email] = memoryRecord{value: data, updatedAt: time.Now().UTC()}
	return nil
}

func (m *MemoryStore) GetSheetID(ctx context.Context, email string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sheets[email]
	if !ok {
		return "", ErrNotFound
	}
	return rec.value, nil
}

func (m *MemoryStore) PutSheetID(ctx context.Context, email, sheetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sheets[email] = memoryRecord{value: sheetID, updatedAt: time.Now().UTC()}
	return nil
}

func (m *MemoryStore) ListUserEmails(ctx context.Context, pageSize int32, pageToken string) ([]string, string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.userData))
	for email := range m.userData {
		ids = append(ids, email)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return paginateIDs(ids, pageSize, pageToken)
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
