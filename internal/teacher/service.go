package teacher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

var ErrNotFound = errors.New("teacher not found")

type Service struct {
	store    *store.Store
	backends *backend.Selector
}

func NewService(st *store.Store, sel *backend.Selector) *Service {
	return &Service{store: st, backends: sel}
}

// List returns active, non-deleted teachers in name order, served from the
// remote backend when reachable and from the cached snapshot otherwise.
func (s *Service) List(ctx context.Context) ([]entity.Teacher, error) {
	teachers, err := backend.FetchWithFallback[entity.Teacher](ctx, s.backends, s.store, entity.KindTeachers)
	if err != nil {
		return nil, err
	}

	out := teachers[:0]

	for _, t := range teachers {
		if t.IsActive && !t.IsDeleted {
			out = append(out, t)
		}
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Teacher, error) {
	raw, err := s.store.GetCachedItem(ctx, entity.KindTeachers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var t entity.Teacher
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decoding teacher: %w", err)
	}

	return &t, nil
}

// Create writes the teacher to the local snapshot and queues the remote
// insert. The write always appears to succeed; the remote side catches up on
// the next sync pass.
func (s *Service) Create(ctx context.Context, name string) (*entity.Teacher, error) {
	if name == "" {
		return nil, errors.New("teacher name is required")
	}

	t := entity.Teacher{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.save(ctx, t, entity.OpCreate); err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) (*entity.Teacher, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = name

	if err := s.save(ctx, *t, entity.OpUpdate); err != nil {
		return nil, err
	}

	return t, nil
}

// SoftDelete retires a teacher: deleted and inactive flags are queued as an
// update and the record leaves the cached listing. Reactivation is not
// exposed for teachers.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	t.IsDeleted = true
	t.IsActive = false

	data, err := entity.Encode(t)
	if err != nil {
		return err
	}

	if _, err := s.store.Enqueue(ctx, entity.OpUpdate, entity.KindTeachers, data); err != nil {
		return err
	}

	return s.store.DeleteCached(ctx, entity.KindTeachers, id)
}

func (s *Service) save(ctx context.Context, t entity.Teacher, op entity.MutationOp) error {
	data, err := entity.Encode(t)
	if err != nil {
		return err
	}

	return s.store.SaveOfflineFirst(ctx, entity.KindTeachers, store.Record{ID: t.ID, Data: data}, op)
}
