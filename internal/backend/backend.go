// Package backend defines the contract both remote backends implement and
// selects which one is active. Exactly one adapter is active at a time: the
// spreadsheet adapter when spreadsheet mode is configured, the relational
// adapter otherwise.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

var (
	// ErrNoBackend means neither backend is configured.
	ErrNoBackend = errors.New("no remote backend configured")
	// ErrUnsupported means the active backend has no representation for the
	// entity kind (the spreadsheet layout only covers a few tabs).
	ErrUnsupported = errors.New("entity kind not supported by backend")
	// ErrNotFound is returned by updates targeting a record the backend
	// does not have.
	ErrNotFound = errors.New("record not found in backend")
)

//go:generate mockgen -source=backend.go -destination=adapter_mock.go -package=backend
type Adapter interface {
	// FetchAll lists the kind's records in listing order, filtered to
	// active/non-deleted rows where that applies.
	FetchAll(ctx context.Context, kind entity.Kind) ([]store.Record, error)
	Insert(ctx context.Context, kind entity.Kind, payload json.RawMessage) error
	Update(ctx context.Context, kind entity.Kind, payload json.RawMessage) error
	Delete(ctx context.Context, kind entity.Kind, id uuid.UUID) error
}

// Selector resolves the active adapter from the runtime configuration.
type Selector struct {
	runtime    *config.Runtime
	relational Adapter
	sheets     Adapter
}

// NewSelector wires the two adapters. Either may be nil when that backend is
// not available in the current deployment.
func NewSelector(rt *config.Runtime, relational, sheets Adapter) *Selector {
	return &Selector{runtime: rt, relational: relational, sheets: sheets}
}

func (s *Selector) Active() (Adapter, error) {
	if s.sheets != nil && s.runtime.SheetsConfigured() {
		return s.sheets, nil
	}

	if s.relational != nil {
		return s.relational, nil
	}

	return nil, ErrNoBackend
}

func (s *Selector) Runtime() *config.Runtime {
	return s.runtime
}

// deletePayload is the payload shape of delete mutations.
type deletePayload struct {
	ID uuid.UUID `json:"id"`
}

// DeletePayload builds the payload of a delete mutation.
func DeletePayload(id uuid.UUID) json.RawMessage {
	data, _ := json.Marshal(deletePayload{ID: id})
	return data
}

// Apply replays one pending mutation against an adapter, dispatching on the
// operation kind.
func Apply(ctx context.Context, a Adapter, m entity.Mutation) error {
	switch m.Op {
	case entity.OpCreate:
		return a.Insert(ctx, m.Kind, m.Payload)
	case entity.OpUpdate:
		return a.Update(ctx, m.Kind, m.Payload)
	case entity.OpDelete:
		var p deletePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return fmt.Errorf("decoding delete payload: %w", err)
		}

		return a.Delete(ctx, m.Kind, p.ID)
	default:
		return fmt.Errorf("unknown mutation op: %q", m.Op)
	}
}
