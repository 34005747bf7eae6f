package models

import (
	"encoding/json"
	"time"
)

// SnapshotEntry is the serialized form of one Entry inside a snapshot.
type SnapshotEntry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SnapshotDocument is the object written to storage by an export.
type SnapshotDocument struct {
	TakenAt    time.Time       `json:"taken_at"`
	TotalCount int64           `json:"total_count"`
	Entries    []SnapshotEntry `json:"entries"`
}

// Snapshot describes a finished export.
type Snapshot struct {
	Key   string
	Count int64
	URL   string
}

func NewSnapshotDocument(takenAt time.Time, res *ListResult) SnapshotDocument {
	doc := SnapshotDocument{
		TakenAt:    takenAt.UTC(),
		TotalCount: res.TotalCount,
		Entries:    make([]SnapshotEntry, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		doc.Entries = append(doc.Entries, SnapshotEntry{
			Key:       e.Key,
			Value:     e.Value,
			CreatedAt: e.CreatedAt.UTC(),
			UpdatedAt: e.UpdatedAt.UTC(),
		})
	}
	return doc
}
