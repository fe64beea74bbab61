// Package audit ships a trail of settings mutations to durable storage.
package audit

import (
	"context"
	"time"
)

// Record describes one successful settings mutation. It never carries key
// material, only the names of the top-level fields that changed.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Operation string    `json:"operation"`
	Fields    []string  `json:"fields,omitempty"`
	Version   int64     `json:"version"`
	Pod       string    `json:"pod,omitempty"`
}

// Sink receives audit records.
type Sink interface {
	// Enqueue hands a record to the sink without blocking. It reports
	// false when the record was dropped.
	Enqueue(rec Record) bool
}

// BatchWriter persists a batch of records and returns where they went.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []Record) (string, error)
}

// NoopSink discards records. Used when the S3 sink is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(Record) bool {
	return true
}
