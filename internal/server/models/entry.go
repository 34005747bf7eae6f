// Package models holds the entities passed between the repository, service
// and transport layers.
package models

import (
	"encoding/json"
	"time"
)

// Entry is one stored document together with its commit timestamps.
type Entry struct {
	Key       string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListResult is a window of entries plus the number of entries matching the
// filter regardless of pagination.
type ListResult struct {
	Entries    []Entry
	TotalCount int64
}

// ListOptions selects, orders and paginates entries. Nil Prefix means no
// filter; nil Limit means no upper bound.
type ListOptions struct {
	Prefix *string
	Sort   SortOrder
	Limit  *int64
	Offset int64
}
