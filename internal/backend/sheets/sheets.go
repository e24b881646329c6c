package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

func (a *Adapter) FetchAll(ctx context.Context, kind entity.Kind) ([]store.Record, error) {
	switch kind {
	case entity.KindTeachers:
		return a.fetchTeachers(ctx)
	case entity.KindStudents:
		return a.fetchStudents(ctx, true)
	case entity.KindInactiveStudents:
		return a.fetchStudents(ctx, false)
	case entity.KindDailyProgress:
		return a.fetchProgress(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}
}

func (a *Adapter) fetchTeachers(ctx context.Context) ([]store.Record, error) {
	rows, err := a.getValues(ctx, layouts[entity.KindTeachers].dataRange())
	if err != nil {
		return nil, err
	}

	var teachers []entity.Teacher

	for _, row := range rows {
		t := rowToTeacher(row)
		if t.ID == uuid.Nil || t.IsDeleted || !t.IsActive {
			continue
		}

		teachers = append(teachers, t)
	}

	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })

	return records(teachers, func(t entity.Teacher) uuid.UUID { return t.ID })
}

// fetchStudents serves the active listing, or the inactive listing used by
// the reactivation picker.
func (a *Adapter) fetchStudents(ctx context.Context, active bool) ([]store.Record, error) {
	rows, err := a.getValues(ctx, layouts[entity.KindStudents].dataRange())
	if err != nil {
		return nil, err
	}

	var students []entity.Student

	for _, row := range rows {
		s := rowToStudent(row)
		if s.ID == uuid.Nil || s.IsActive != active {
			continue
		}

		if active && s.IsDeleted {
			continue
		}

		students = append(students, s)
	}

	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })

	return records(students, func(s entity.Student) uuid.UUID { return s.ID })
}

func (a *Adapter) fetchProgress(ctx context.Context) ([]store.Record, error) {
	rows, err := a.getValues(ctx, layouts[entity.KindDailyProgress].dataRange())
	if err != nil {
		return nil, err
	}

	var entries []entity.DailyProgress

	for _, row := range rows {
		p := rowToProgress(row)
		if p.ID == uuid.Nil {
			continue
		}

		entries = append(entries, p)
	}

	return records(entries, func(p entity.DailyProgress) uuid.UUID { return p.ID })
}

func records[T any](items []T, id func(T) uuid.UUID) ([]store.Record, error) {
	out := make([]store.Record, 0, len(items))

	for _, item := range items {
		data, err := entity.Encode(item)
		if err != nil {
			return nil, err
		}

		out = append(out, store.Record{ID: id(item), Data: data})
	}

	return out, nil
}

func (a *Adapter) Insert(ctx context.Context, kind entity.Kind, payload json.RawMessage) error {
	l, row, _, err := decodeRow(kind, payload)
	if err != nil {
		return err
	}

	return a.appendRow(ctx, l.appendRange(), row)
}

func (a *Adapter) Update(ctx context.Context, kind entity.Kind, payload json.RawMessage) error {
	l, row, id, err := decodeRow(kind, payload)
	if err != nil {
		return err
	}

	rowNum, err := a.findRowByID(ctx, l.tab, id)
	if err != nil {
		return err
	}

	if rowNum == -1 {
		return fmt.Errorf("%s %s: %w", kind, id, backend.ErrNotFound)
	}

	return a.putRow(ctx, l.rowRange(rowNum), row)
}

// Delete is not expressible in the fixed row layout; rows are retired by
// soft-delete updates instead. A queued hard delete stays pending until a
// backend that supports it is active.
func (a *Adapter) Delete(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	return fmt.Errorf("%w: %s rows cannot be deleted", backend.ErrUnsupported, kind)
}

func decodeRow(kind entity.Kind, payload json.RawMessage) (layout, []any, string, error) {
	l, ok := layouts[kind]
	if !ok {
		return layout{}, nil, "", fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}

	switch kind {
	case entity.KindTeachers:
		var t entity.Teacher
		if err := json.Unmarshal(payload, &t); err != nil {
			return layout{}, nil, "", fmt.Errorf("decoding teacher payload: %w", err)
		}

		return l, teacherToRow(t), t.ID.String(), nil
	case entity.KindStudents:
		var s entity.Student
		if err := json.Unmarshal(payload, &s); err != nil {
			return layout{}, nil, "", fmt.Errorf("decoding student payload: %w", err)
		}

		return l, studentToRow(s), s.ID.String(), nil
	case entity.KindDailyProgress:
		var p entity.DailyProgress
		if err := json.Unmarshal(payload, &p); err != nil {
			return layout{}, nil, "", fmt.Errorf("decoding progress payload: %w", err)
		}

		return l, progressToRow(p), p.ID.String(), nil
	default:
		return layout{}, nil, "", fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}
}
