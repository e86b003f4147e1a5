// Package record defines the graph record, the in-memory unit representing
// one user-created graph: metadata, DOT source, and the chosen layout engine.
//
// Records are created from a validated [Draft] (the form submission payload)
// and owned by a board (see pkg/board). The ID is generated at creation and
// never reused; Revision increments only when the source actually changes,
// which lets downstream consumers skip work for no-op saves.
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/errors"
)

// Record is one user-created graph.
type Record struct {
	// ID is an opaque unique identifier, assigned at creation.
	ID string `json:"id"`

	// Title is an optional display name.
	Title string `json:"title,omitempty"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Engine is the layout engine used to render Source.
	Engine engine.Engine `json:"engine"`

	// Source is the DOT text describing the graph.
	Source string `json:"source"`

	// Revision counts committed source changes. It starts at 1 and is bumped
	// by the owning board only when a save actually changes Source.
	Revision int `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the record. Boards hand out clones so callers
// never observe in-place mutation.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Draft is the form submission payload for creating a record.
// Engine is the raw engine name as submitted; it is parsed during validation.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Engine      string `json:"engine"`
	Source      string `json:"source"`
}

// Validate checks every field and returns the aggregated field-scoped
// failures, or nil if the draft is valid. No partial result is produced:
// a draft either converts to a record in full or not at all.
func (d Draft) Validate() *errors.ValidationErrors {
	var v errors.ValidationErrors

	v.Add("title", errors.ValidateTitle(d.Title))
	v.Add("description", errors.ValidateDescription(d.Description))
	v.Add("source", errors.ValidateSource(d.Source))

	if _, err := engine.ParseEngine(d.Engine); err != nil {
		v.Add("engine", err)
	}

	if v.Empty() {
		return nil
	}
	return &v
}

// New validates the draft and builds a record with a freshly generated id.
// The returned error is the draft's *errors.ValidationErrors when invalid.
func New(d Draft) (*Record, error) {
	if verr := d.Validate(); verr != nil {
		return nil, verr
	}

	// Engine was validated above; ParseEngine cannot fail here.
	eng, _ := engine.ParseEngine(d.Engine)

	now := time.Now().UTC()
	return &Record{
		ID:          uuid.NewString(),
		Title:       d.Title,
		Description: d.Description,
		Engine:      eng,
		Source:      d.Source,
		Revision:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
