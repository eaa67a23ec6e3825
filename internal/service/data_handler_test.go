package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/model"
	"github.com/jimikki-app/backend/internal/store"
)

type fakeExporter struct {
	url   string
	err   error
	email string
	doc   *model.UserDocument
}

func (f *fakeExporter) Export(_ context.Context, email string, doc *model.UserDocument) (string, error) {
	f.email, f.doc = email, doc
	return f.url, f.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetData(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(m *store.MockStore)
		wantStatus int
		want       map[string]any
	}{
		{
			name: "never saved returns the empty shape",
			setupMock: func(m *store.MockStore) {
				m.EXPECT().GetUserData(gomock.Any(), testEmail).Return("", store.ErrNotFound)
				m.EXPECT().GetSheetID(gomock.Any(), testEmail).Return("", store.ErrNotFound)
			},
			wantStatus: http.StatusOK,
			want: map[string]any{
				"email":        testEmail,
				"holders":      []any{},
				"transactions": []any{},
				"expBuckets":   nil,
				"incBuckets":   nil,
				"sheetUrl":     nil,
			},
		},
		{
			name: "stored document is merged with email and sheet url",
			setupMock: func(m *store.MockStore) {
				m.EXPECT().GetUserData(gomock.Any(), testEmail).
					Return(`{"holders":[{"id":"h1"}],"transactions":[],"email":"spoofed@example.com","theme":"dark"}`, nil)
				m.EXPECT().GetSheetID(gomock.Any(), testEmail).Return("sheet-1", nil)
			},
			wantStatus: http.StatusOK,
			want: map[string]any{
				"email":        testEmail,
				"holders":      []any{map[string]any{"id": "h1"}},
				"transactions": []any{},
				"theme":        "dark",
				"sheetUrl":     "https://docs.google.com/spreadsheets/d/sheet-1",
			},
		},
		{
			name: "sheet lookup failure still returns data",
			setupMock: func(m *store.MockStore) {
				m.EXPECT().GetUserData(gomock.Any(), testEmail).Return(`{"holders":[]}`, nil)
				m.EXPECT().GetSheetID(gomock.Any(), testEmail).Return("", errors.New("timeout"))
			},
			wantStatus: http.StatusOK,
			want:       map[string]any{"email": testEmail, "holders": []any{}, "sheetUrl": nil},
		},
		{
			name: "store failure",
			setupMock: func(m *store.MockStore) {
				m.EXPECT().GetUserData(gomock.Any(), testEmail).Return("", errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"error": "server error"},
		},
		{
			name: "corrupt stored document",
			setupMock: func(m *store.MockStore) {
				m.EXPECT().GetUserData(gomock.Any(), testEmail).Return(`[1]`, nil)
			},
			wantStatus: http.StatusInternalServerError,
			want:       map[string]any{"error": "server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockStore := store.NewMockStore(ctrl)
			tt.setupMock(mockStore)

			h := NewDataHandler(mockStore, nil, logging.Nop())
			rec := httptest.NewRecorder()
			h.GetData(rec, newAuthedRequest(http.MethodGet, "/api/data", ""))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, decodeBody(t, rec))
		})
	}
}

func TestGetData_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewDataHandler(store.NewMockStore(ctrl), nil, logging.Nop())

	rec := httptest.NewRecorder()
	h.GetData(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

const validDoc = `{"holders":[{"id":"h1","name":"Bank","balance":100}],"transactions":[{"id":"t1","type":"spending","amount":"12.50","date":"2024-01-02","holderId":"h1","bucketId":"b1"}],"expBuckets":[],"incBuckets":[],"extra":true}`

func TestSaveData(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	exporter := &fakeExporter{url: "https://docs.google.com/spreadsheets/d/s1"}

	mockStore.EXPECT().PutUserData(gomock.Any(), testEmail, validDoc).Return(nil)

	h := NewDataHandler(mockStore, exporter, logging.Nop())
	rec := httptest.NewRecorder()
	h.SaveData(rec, newAuthedRequest(http.MethodPost, "/api/data", validDoc))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ok": true, "sheetUrl": "https://docs.google.com/spreadsheets/d/s1"}, decodeBody(t, rec))
	assert.Equal(t, testEmail, exporter.email)
	require.NotNil(t, exporter.doc)
	assert.Len(t, exporter.doc.Transactions, 1)
}

func TestSaveData_ExportFailureDoesNotFailSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().PutUserData(gomock.Any(), testEmail, validDoc).Return(nil)

	h := NewDataHandler(mockStore, &fakeExporter{err: errors.New("quota exceeded")}, logging.Nop())
	rec := httptest.NewRecorder()
	h.SaveData(rec, newAuthedRequest(http.MethodPost, "/api/data", validDoc))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"ok": true, "sheetUrl": nil}, decodeBody(t, rec))
}

func TestSaveData_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed json", `{"holders":`, http.StatusInternalServerError, "server error"},
		{"not an object", `[1,2]`, http.StatusBadRequest, "invalid document"},
		{"negative amount", `{"transactions":[{"id":"t","type":"spending","amount":-5}]}`, http.StatusBadRequest, "invalid document"},
		{"too large", `{"pad":"` + strings.Repeat("x", MaxDataBody) + `"}`, http.StatusRequestEntityTooLarge, "payload too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			// No store calls are expected.
			h := NewDataHandler(store.NewMockStore(ctrl), &fakeExporter{}, logging.Nop())

			rec := httptest.NewRecorder()
			h.SaveData(rec, newAuthedRequest(http.MethodPost, "/api/data", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, map[string]any{"error": tt.wantError}, decodeBody(t, rec))
		})
	}
}

func TestSaveData_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().PutUserData(gomock.Any(), testEmail, gomock.Any()).Return(errors.New("disk full"))
	exporter := &fakeExporter{}

	h := NewDataHandler(mockStore, exporter, logging.Nop())
	rec := httptest.NewRecorder()
	h.SaveData(rec, newAuthedRequest(http.MethodPost, "/api/data", validDoc))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, exporter.doc, "no export after a failed save")
}

func TestSaveThenGet_RoundTrip(t *testing.T) {
	mem := store.NewMemoryStore()
	h := NewDataHandler(mem, nil, logging.Nop())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.SaveData(rec, newAuthedRequest(http.MethodPost, "/api/data", validDoc))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.GetData(rec, newAuthedRequest(http.MethodGet, "/api/data", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	delete(got, "email")
	delete(got, "sheetUrl")

	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(validDoc), &want))
	assert.Equal(t, want, got)
}
