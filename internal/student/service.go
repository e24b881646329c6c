package student

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

var ErrNotFound = errors.New("student not found")

type Service struct {
	store    *store.Store
	backends *backend.Selector
}

func NewService(st *store.Store, sel *backend.Selector) *Service {
	return &Service{store: st, backends: sel}
}

type CreateParams struct {
	Name         string
	Age          *int
	CurrentSurah string
	TeacherID    *uuid.UUID
}

type UpdateParams struct {
	Name         *string
	Age          *int
	CurrentSurah *string
	TeacherID    *uuid.UUID
}

// List returns active students in name order with their teacher attached.
// The join is computed client-side from two independent fetches, so it works
// identically against both backends and against the cache.
func (s *Service) List(ctx context.Context) ([]entity.Student, error) {
	students, err := backend.FetchWithFallback[entity.Student](ctx, s.backends, s.store, entity.KindStudents)
	if err != nil {
		return nil, err
	}

	teachers, err := backend.FetchWithFallback[entity.Teacher](ctx, s.backends, s.store, entity.KindTeachers)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]entity.Teacher, len(teachers))
	for _, t := range teachers {
		byID[t.ID] = t
	}

	out := students[:0]

	for _, st := range students {
		if !st.IsActive || st.IsDeleted {
			continue
		}

		if st.TeacherID != nil {
			if t, ok := byID[*st.TeacherID]; ok {
				st.Teacher = &t
			}
		}

		out = append(out, st)
	}

	return out, nil
}

// ListInactive serves the reactivation picker: students whose active flag is
// unset, soft-deleted ones included.
func (s *Service) ListInactive(ctx context.Context) ([]entity.Student, error) {
	return backend.FetchWithFallback[entity.Student](ctx, s.backends, s.store, entity.KindInactiveStudents)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Student, error) {
	raw, err := s.store.GetCachedItem(ctx, entity.KindStudents, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var st entity.Student
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding student: %w", err)
	}

	return &st, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*entity.Student, error) {
	if params.Name == "" {
		return nil, errors.New("student name is required")
	}

	now := time.Now()
	st := entity.Student{
		ID:           uuid.New(),
		Name:         params.Name,
		Age:          params.Age,
		CurrentSurah: params.CurrentSurah,
		TeacherID:    params.TeacherID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.save(ctx, st, entity.OpCreate); err != nil {
		return nil, err
	}

	return &st, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*entity.Student, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		st.Name = *params.Name
	}

	if params.Age != nil {
		st.Age = params.Age
	}

	if params.CurrentSurah != nil {
		st.CurrentSurah = *params.CurrentSurah
	}

	if params.TeacherID != nil {
		st.TeacherID = params.TeacherID
	}

	st.UpdatedAt = time.Now()

	if err := s.save(ctx, *st, entity.OpUpdate); err != nil {
		return nil, err
	}

	return st, nil
}

// Deactivate takes a student out of the active listing, reversibly. The
// record stays in the cached snapshot so reactivation works offline.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.setFlags(ctx, id, false, nil)
}

// Reactivate restores a deactivated or soft-deleted student.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	deleted := false
	return s.setFlags(ctx, id, true, &deleted)
}

// SoftDelete marks the student deleted and inactive. Still reversible
// through Reactivate.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	deleted := true
	return s.setFlags(ctx, id, false, &deleted)
}

func (s *Service) setFlags(ctx context.Context, id uuid.UUID, active bool, deleted *bool) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	st.IsActive = active
	if deleted != nil {
		st.IsDeleted = *deleted
	}

	st.UpdatedAt = time.Now()

	return s.save(ctx, *st, entity.OpUpdate)
}

func (s *Service) save(ctx context.Context, st entity.Student, op entity.MutationOp) error {
	st.Teacher = nil // joined field, never persisted

	data, err := entity.Encode(st)
	if err != nil {
		return err
	}

	return s.store.SaveOfflineFirst(ctx, entity.KindStudents, store.Record{ID: st.ID, Data: data}, op)
}
