// Package services holds the operations behind the HTTP handlers: storing,
// reading and listing documents, the health probe and snapshot export.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/metrics"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/dmitrijs2005/kvstore/internal/server/repositories/entries"
	"github.com/google/uuid"
)

type EntryService struct {
	repo    entries.Repository
	metrics *metrics.Metrics
	logger  logging.Logger
}

// NewEntryService wires a repository; m may be nil.
func NewEntryService(repo entries.Repository, m *metrics.Metrics, l logging.Logger) *EntryService {
	return &EntryService{
		repo:    repo,
		metrics: m,
		logger:  l.With("module", "entry_service"),
	}
}

func (s *EntryService) observe(op string, start time.Time, err error) {
	// a missing key is an answer, not a store failure
	if errors.Is(err, common.ErrorNotFound) {
		err = nil
	}
	s.metrics.ObserveStore(op, time.Since(start), err)
}

// Put stores value under id, replacing whatever was there.
func (s *EntryService) Put(ctx context.Context, id uuid.UUID, value json.RawMessage) error {
	start := time.Now()
	err := s.repo.Upsert(ctx, id, value)
	s.observe("upsert", start, err)
	if err != nil {
		s.logger.Error(ctx, "failed to store document", "id", id.String(), "error", err)
		return &StoreError{Op: "upsert", Err: err}
	}

	s.logger.Info(ctx, "stored document", "id", id.String())
	return nil
}

// Get returns common.ErrorNotFound for a missing key and a *StoreError for
// any other failure.
func (s *EntryService) Get(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	start := time.Now()
	value, err := s.repo.Read(ctx, id)
	s.observe("read", start, err)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Debug(ctx, "document not found", "id", id.String())
		return nil, common.ErrorNotFound
	case err != nil:
		s.logger.Error(ctx, "failed to read document", "id", id.String(), "error", err)
		return nil, &StoreError{Op: "read", Err: err}
	}

	s.logger.Debug(ctx, "read document", "id", id.String())
	return value, nil
}

func (s *EntryService) List(ctx context.Context, opts models.ListOptions) (*models.ListResult, error) {
	start := time.Now()
	res, err := s.repo.ListAll(ctx, opts)
	s.observe("list", start, err)
	if err != nil {
		s.logger.Error(ctx, "failed to list entries", "error", err)
		return nil, &StoreError{Op: "list", Err: err}
	}

	s.logger.Info(ctx, "listed entries",
		"count", len(res.Entries),
		"total_count", res.TotalCount,
		"sort", string(opts.Sort),
		"offset", opts.Offset,
	)
	return res, nil
}

// Health round-trips to the store.
func (s *EntryService) Health(ctx context.Context) error {
	start := time.Now()
	err := s.repo.HealthCheck(ctx)
	s.observe("health", start, err)
	if err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		return &StoreError{Op: "health", Err: err}
	}
	return nil
}
