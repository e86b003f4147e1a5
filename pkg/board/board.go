// Package board owns the ordered collection of graph records.
//
// The board is the only component that mutates records: the HTTP handlers
// and CLI go through Add, UpdateSource, and Remove. Records handed out by
// Get and List are clones, so callers never observe in-place mutation.
//
// Handlers run concurrently, so the board serializes mutation with a
// read-write mutex. Every record id is unique for the lifetime of the board
// and never reused after removal.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/graphpad/pkg/errors"
	"github.com/matzehuels/graphpad/pkg/record"
	"github.com/matzehuels/graphpad/pkg/trace"
)

// Board is an ordered, mutex-guarded collection of graph records.
type Board struct {
	mu      sync.RWMutex
	records []*record.Record
	index   map[string]int // id → position in records

	tracer *trace.Tracer
}

// New creates an empty board. A nil tracer disables tracing.
func New(tracer *trace.Tracer) *Board {
	if tracer == nil {
		tracer = trace.Discard()
	}
	return &Board{
		index:  make(map[string]int),
		tracer: tracer,
	}
}

// Add validates the draft and appends a new record with a fresh id.
// Exactly one record is appended per valid draft; invalid drafts append
// nothing and return the field-scoped validation errors.
func (b *Board) Add(ctx context.Context, d record.Draft) (*record.Record, error) {
	r, err := record.New(d)
	if err != nil {
		b.tracer.Log(trace.CategoryForm, trace.LevelWarn, "submission rejected", "error", err)
		return nil, err
	}

	b.mu.Lock()
	b.index[r.ID] = len(b.records)
	b.records = append(b.records, r)
	b.mu.Unlock()

	b.tracer.Log(trace.CategoryBoard, trace.LevelInfo, "record added", "id", r.ID, "engine", r.Engine)
	return r.Clone(), nil
}

// Remove deletes the record with the given id, preserving the order of the
// remaining records. Removing an absent id is a no-op returning false, so
// repeated deletion is idempotent.
func (b *Board) Remove(ctx context.Context, id string) bool {
	b.mu.Lock()
	pos, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		return false
	}

	b.records = append(b.records[:pos], b.records[pos+1:]...)
	delete(b.index, id)
	for i := pos; i < len(b.records); i++ {
		b.index[b.records[i].ID] = i
	}
	b.mu.Unlock()

	b.tracer.Log(trace.CategoryBoard, trace.LevelInfo, "record removed", "id", id)
	return true
}

// UpdateSource replaces the source text of the matching record, preserving
// id, title, description, and engine. Saving an unchanged source is a no-op:
// the revision is not bumped and changed is false, so nothing downstream
// re-renders. Absent ids return (nil, false, errors.ErrCodeRecordNotFound).
func (b *Board) UpdateSource(ctx context.Context, id, source string) (*record.Record, bool, error) {
	// Edits pass the same source validation as submissions, so an edit can
	// never commit what the form would reject.
	if err := errors.ValidateSource(source); err != nil {
		return nil, false, err
	}

	b.mu.Lock()
	pos, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		return nil, false, errors.New(errors.ErrCodeRecordNotFound, "no graph with id %q", id)
	}

	r := b.records[pos]
	if r.Source == source {
		snap := r.Clone()
		b.mu.Unlock()
		b.tracer.Log(trace.CategoryBoard, trace.LevelDebug, "save with unchanged source", "id", id)
		return snap, false, nil
	}

	r.Source = source
	r.Revision++
	r.UpdatedAt = time.Now().UTC()
	snap := r.Clone()
	b.mu.Unlock()

	b.tracer.Log(trace.CategoryBoard, trace.LevelInfo, "record updated", "id", id, "revision", snap.Revision)
	return snap, true, nil
}

// Get returns a clone of the record with the given id.
func (b *Board) Get(ctx context.Context, id string) (*record.Record, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pos, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return b.records[pos].Clone(), true
}

// List returns clones of all records in insertion order.
func (b *Board) List(ctx context.Context) []*record.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*record.Record, len(b.records))
	for i, r := range b.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of records.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
