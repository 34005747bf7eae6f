package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/server/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type putResponse struct {
	ID string `json:"id"`
}

type getResponse struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type entryResponse struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type listResponse struct {
	Data       []entryResponse `json:"data"`
	TotalCount int64           `json:"total_count"`
}

type snapshotResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
	URL   string `json:"url"`
}

func newListResponse(res *models.ListResult) listResponse {
	out := listResponse{
		Data:       make([]entryResponse, 0, len(res.Entries)),
		TotalCount: res.TotalCount,
	}
	for _, e := range res.Entries {
		out.Data = append(out.Data, entryResponse{
			Key:       e.Key,
			Value:     e.Value,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="kvstore"`)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
