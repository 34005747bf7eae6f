package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/dmitrijs2005/kvstore/internal/server/services"
	"github.com/dmitrijs2005/kvstore/internal/server/validate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxBodyBytes caps PUT request bodies.
const MaxBodyBytes = 2 << 20

type EntryService interface {
	Put(ctx context.Context, id uuid.UUID, value json.RawMessage) error
	Get(ctx context.Context, id uuid.UUID) (json.RawMessage, error)
	List(ctx context.Context, opts models.ListOptions) (*models.ListResult, error)
	Health(ctx context.Context) error
}

type Snapshotter interface {
	Export(ctx context.Context) (*models.Snapshot, error)
}

type Handler struct {
	entries  EntryService
	snapshot Snapshotter
	logger   logging.Logger
}

// NewHandler builds the endpoint handlers. snapshot may be nil, in which
// case the export endpoint answers 404.
func NewHandler(entries EntryService, snapshot Snapshotter, l logging.Logger) *Handler {
	return &Handler{entries: entries, snapshot: snapshot, logger: l}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.entries.Health(r.Context()); err != nil {
		msg := err.Error()
		var se *services.StoreError
		if errors.As(err, &se) {
			msg = se.Err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unhealthy",
			Error:  "Cannot connect to database: " + msg,
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ParseKey(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, err)
			return
		}
		writeError(w, fmt.Errorf("%w: %v", common.ErrMalformedBody, err))
		return
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrMalformedBody, err))
		return
	}

	if err := h.entries.Put(r.Context(), id, json.RawMessage(body)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, putResponse{ID: id.String()})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := validate.ParseKey(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	value, err := h.entries.Get(r.Context(), id)
	if errors.Is(err, common.ErrorNotFound) {
		writeError(w, &keyNotFoundError{id: id})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getResponse{ID: id.String(), Data: value})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := validate.ParseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.entries.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(res))
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshot == nil {
		writeError(w, errSnapshotsDisabled)
		return
	}

	snap, err := h.snapshot.Export(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "snapshot export failed", "error", err)
		writeError(w, fmt.Errorf("%w: %w", errSnapshotFailed, err))
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{Key: snap.Key, Count: snap.Count, URL: snap.URL})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
}
