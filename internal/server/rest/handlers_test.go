package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/dmitrijs2005/kvstore/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEntries struct {
	mock.Mock
}

func (m *mockEntries) Put(ctx context.Context, id uuid.UUID, value json.RawMessage) error {
	args := m.Called(id, string(value))
	return args.Error(0)
}

func (m *mockEntries) Get(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	args := m.Called(id)
	v, _ := args.Get(0).(json.RawMessage)
	return v, args.Error(1)
}

func (m *mockEntries) List(ctx context.Context, opts models.ListOptions) (*models.ListResult, error) {
	args := m.Called(opts)
	res, _ := args.Get(0).(*models.ListResult)
	return res, args.Error(1)
}

func (m *mockEntries) Health(ctx context.Context) error {
	return m.Called().Error(0)
}

type mockSnapshotter struct {
	mock.Mock
}

func (m *mockSnapshotter) Export(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called()
	s, _ := args.Get(0).(*models.Snapshot)
	return s, args.Error(1)
}

const validKey = "550e8400-e29b-41d4-a716-446655440000"

func newTestRouter(svc EntryService, snap Snapshotter, opts Options) http.Handler {
	return NewRouter(NewHandler(svc, snap, logging.Nop{}), nil, logging.Nop{}, opts)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return doRequest(t, h, req)
}

func doRequest(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "healthy",
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"status": "healthy"},
		},
		{
			name:       "unhealthy",
			err:        &services.StoreError{Op: "health", Err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: map[string]any{
				"status": "unhealthy",
				"error":  "Cannot connect to database: connection refused",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockEntries)
			svc.On("Health").Return(tt.err)

			rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestPut(t *testing.T) {
	id := uuid.MustParse(validKey)

	tests := []struct {
		name       string
		path       string
		body       string
		setup      func(*mockEntries)
		wantStatus int
		wantError  string
		wantID     string
	}{
		{
			name: "stores document",
			path: "/kv/" + validKey,
			body: `{"name":"test"}`,
			setup: func(m *mockEntries) {
				m.On("Put", id, `{"name":"test"}`).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantID:     validKey,
		},
		{
			name: "uppercase key is normalised",
			path: "/kv/" + strings.ToUpper(validKey),
			body: `[1,2]`,
			setup: func(m *mockEntries) {
				m.On("Put", id, `[1,2]`).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantID:     validKey,
		},
		{
			name:       "invalid uuid",
			path:       "/kv/not-a-uuid",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid UUID format: expected format like '550e8400-e29b-41d4-a716-446655440000', got 'not-a-uuid'",
		},
		{
			name:       "invalid json",
			path:       "/kv/" + validKey,
			body:       `{"a":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "JSON parse error: unexpected end of JSON input",
		},
		{
			name:       "trailing garbage",
			path:       "/kv/" + validKey,
			body:       `{} {}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "JSON parse error: invalid character '{' after top-level value",
		},
		{
			name: "store error",
			path: "/kv/" + validKey,
			body: `1`,
			setup: func(m *mockEntries) {
				m.On("Put", id, `1`).Return(&services.StoreError{Op: "upsert", Err: errors.New("disk full")})
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Database error: disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockEntries)
			if tt.setup != nil {
				tt.setup(svc)
			}

			rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, tt.wantID, body["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPut_InvalidKeyNeverReachesStore(t *testing.T) {
	svc := new(mockEntries)

	rec, _ := do(t, newTestRouter(svc, nil, Options{}), http.MethodPut, "/kv/550e8400e29b41d4a716446655440000", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestPut_BodyTooLarge(t *testing.T) {
	svc := new(mockEntries)
	big := `"` + strings.Repeat("x", MaxBodyBytes) + `"`

	rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodPut, "/kv/"+validKey, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, body["error"], "Request body too large")
	svc.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestGet(t *testing.T) {
	id := uuid.MustParse(validKey)

	t.Run("found", func(t *testing.T) {
		svc := new(mockEntries)
		svc.On("Get", id).Return(json.RawMessage(`{"name":"test"}`), nil)

		rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv/"+validKey, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, validKey, body["id"])
		assert.Equal(t, map[string]any{"name": "test"}, body["data"])
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mockEntries)
		svc.On("Get", id).Return(nil, common.ErrorNotFound)

		rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv/"+validKey, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Key not found: "+validKey, body["error"])
	})

	t.Run("invalid", func(t *testing.T) {
		svc := new(mockEntries)

		rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv/xyz", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "got 'xyz'")
		svc.AssertNotCalled(t, "Get", mock.Anything)
	})

	t.Run("store error", func(t *testing.T) {
		svc := new(mockEntries)
		svc.On("Get", id).Return(nil, &services.StoreError{Op: "read", Err: errors.New("timeout")})

		rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv/"+validKey, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Database error: timeout", body["error"])
	})
}

func TestList(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC)

	svc := new(mockEntries)
	limit := int64(2)
	prefix := "550e"
	svc.On("List", models.ListOptions{Prefix: &prefix, Sort: models.SortCreatedDesc, Limit: &limit, Offset: 1}).
		Return(&models.ListResult{
			Entries:    []models.Entry{{Key: validKey, Value: json.RawMessage(`{"a":1}`), CreatedAt: ts, UpdatedAt: ts}},
			TotalCount: 4,
		}, nil)

	rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet,
		"/kv?limit=2&offset=1&prefix=550e&sort=created_desc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(4), body["total_count"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	entry := data[0].(map[string]any)
	assert.Equal(t, validKey, entry["key"])
	assert.Equal(t, map[string]any{"a": float64(1)}, entry["value"])
	assert.Equal(t, "2025-01-02T03:04:05.123456789Z", entry["created_at"])
	assert.Equal(t, "2025-01-02T03:04:05.123456789Z", entry["updated_at"])
}

func TestList_EmptyIsArray(t *testing.T) {
	svc := new(mockEntries)
	svc.On("List", models.ListOptions{Sort: models.SortKeyAsc}).
		Return(&models.ListResult{TotalCount: 0}, nil)

	rec, _ := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total_count":0}`, rec.Body.String())
}

func TestList_InvalidParameters(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"sort=bogus", "Invalid query parameter: sort must be one of: key_asc, key_desc, created_asc, created_desc, updated_asc, updated_desc, got 'bogus'"},
		{"limit=x", "Invalid query parameter: limit must be a non-negative integer, got 'x'"},
		{"offset=-3", "Invalid query parameter: offset must be a non-negative integer, got '-3'"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := new(mockEntries)

			rec, body := do(t, newTestRouter(svc, nil, Options{}), http.MethodGet, "/kv?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, body["error"])
			svc.AssertNotCalled(t, "List", mock.Anything)
		})
	}
}

func TestSnapshot(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec, body := do(t, newTestRouter(new(mockEntries), nil, Options{}), http.MethodPost, "/admin/snapshot", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Snapshots are not enabled", body["error"])
	})

	t.Run("exported", func(t *testing.T) {
		snap := new(mockSnapshotter)
		snap.On("Export").Return(&models.Snapshot{Key: "snapshots/2025/01/01/x.json", Count: 3, URL: "http://s3/x"}, nil)

		rec, body := do(t, newTestRouter(new(mockEntries), snap, Options{}), http.MethodPost, "/admin/snapshot", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"key": "snapshots/2025/01/01/x.json", "count": float64(3), "url": "http://s3/x"}, body)
	})

	t.Run("store failure", func(t *testing.T) {
		snap := new(mockSnapshotter)
		snap.On("Export").Return(nil, &services.StoreError{Op: "list", Err: errors.New("gone")})

		rec, body := do(t, newTestRouter(new(mockEntries), snap, Options{}), http.MethodPost, "/admin/snapshot", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Database error: gone", body["error"])
	})

	t.Run("upload failure", func(t *testing.T) {
		snap := new(mockSnapshotter)
		snap.On("Export").Return(nil, errors.New("upload snapshot k: access denied"))

		rec, body := do(t, newTestRouter(new(mockEntries), snap, Options{}), http.MethodPost, "/admin/snapshot", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Snapshot export failed: upload snapshot k: access denied", body["error"])
	})
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := newTestRouter(new(mockEntries), nil, Options{})

	rec, body := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", body["error"])

	rec, _ = do(t, h, http.MethodDelete, "/kv/"+validKey, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
