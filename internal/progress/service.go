// Package progress records daily memorization. The hard invariant is the
// upsert key: at most one entry per (student, hijri date).
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

var ErrInvalidPages = errors.New("pages must be non-negative in half-page steps")

type Service struct {
	store    *store.Store
	backends *backend.Selector
}

func NewService(st *store.Store, sel *backend.Selector) *Service {
	return &Service{store: st, backends: sel}
}

type EntryParams struct {
	StudentID      uuid.UUID
	HijriDate      string // normalized "d/m/yyyy" key
	HijriMonth     string // display label
	DayNumber      int
	PagesMemorized float64
	PagesReviewed  float64
	AttendanceOnly bool
	Notes          string
}

func validPages(p float64) bool {
	return p >= 0 && math.Mod(p*2, 1) == 0
}

// SaveEntries upserts a batch of progress entries. An existing entry for the
// same (student, date) key is overwritten in place; attendance-only entries
// force both page counts to zero.
func (s *Service) SaveEntries(ctx context.Context, entries []EntryParams) error {
	if len(entries) == 0 {
		return nil
	}

	existing, err := s.cached(ctx)
	if err != nil {
		return err
	}

	byKey := make(map[string]entity.DailyProgress, len(existing))
	for _, p := range existing {
		byKey[key(p.StudentID, p.HijriDate)] = p
	}

	for _, e := range entries {
		if !validPages(e.PagesMemorized) || !validPages(e.PagesReviewed) {
			return fmt.Errorf("%w: memorized %v, reviewed %v", ErrInvalidPages, e.PagesMemorized, e.PagesReviewed)
		}

		if e.AttendanceOnly {
			e.PagesMemorized = 0
			e.PagesReviewed = 0
		}

		op := entity.OpCreate

		p, ok := byKey[key(e.StudentID, e.HijriDate)]
		if ok {
			op = entity.OpUpdate
			p.PagesMemorized = e.PagesMemorized
			p.PagesReviewed = e.PagesReviewed
			p.AttendanceOnly = e.AttendanceOnly
			p.Notes = e.Notes
		} else {
			p = entity.DailyProgress{
				ID:             uuid.New(),
				StudentID:      e.StudentID,
				HijriDate:      e.HijriDate,
				HijriMonth:     e.HijriMonth,
				DayNumber:      e.DayNumber,
				PagesMemorized: e.PagesMemorized,
				PagesReviewed:  e.PagesReviewed,
				AttendanceOnly: e.AttendanceOnly,
				Notes:          e.Notes,
				CreatedAt:      time.Now(),
			}
		}

		data, err := entity.Encode(p)
		if err != nil {
			return err
		}

		err = s.store.SaveOfflineFirst(ctx, entity.KindDailyProgress,
			store.Record{ID: p.ID, Data: data}, op)
		if err != nil {
			return err
		}

		byKey[key(p.StudentID, p.HijriDate)] = p
	}

	return nil
}

// MarkAttendanceOnly records presence without memorization for a date,
// zeroing any previously entered pages.
func (s *Service) MarkAttendanceOnly(ctx context.Context, studentID uuid.UUID, hijriDate, hijriMonth string, dayNumber int) error {
	return s.SaveEntries(ctx, []EntryParams{{
		StudentID:      studentID,
		HijriDate:      hijriDate,
		HijriMonth:     hijriMonth,
		DayNumber:      dayNumber,
		AttendanceOnly: true,
	}})
}

// ListByDate returns the entries for one hijri day with students attached.
func (s *Service) ListByDate(ctx context.Context, hijriDate string) ([]entity.DailyProgress, error) {
	entries, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	out := entries[:0]

	for _, p := range entries {
		if p.HijriDate == hijriDate {
			out = append(out, p)
		}
	}

	return s.attachStudents(ctx, out)
}

// ListByMonth returns a month's entries ordered by day number.
func (s *Service) ListByMonth(ctx context.Context, hijriMonth string) ([]entity.DailyProgress, error) {
	entries, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	out := entries[:0]

	for _, p := range entries {
		if p.HijriMonth == hijriMonth {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })

	return s.attachStudents(ctx, out)
}

func (s *Service) fetch(ctx context.Context) ([]entity.DailyProgress, error) {
	return backend.FetchWithFallback[entity.DailyProgress](ctx, s.backends, s.store, entity.KindDailyProgress)
}

func (s *Service) cached(ctx context.Context) ([]entity.DailyProgress, error) {
	raws, err := s.store.GetCached(ctx, entity.KindDailyProgress)
	if err != nil {
		return nil, err
	}

	return entity.DecodeAll[entity.DailyProgress](raws)
}

func (s *Service) attachStudents(ctx context.Context, entries []entity.DailyProgress) ([]entity.DailyProgress, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	raws, err := s.store.GetCached(ctx, entity.KindStudents)
	if err != nil {
		return nil, err
	}

	students, err := entity.DecodeAll[entity.Student](raws)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]entity.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	for i := range entries {
		if st, ok := byID[entries[i].StudentID]; ok {
			entries[i].Student = &st
		}
	}

	return entries, nil
}

func key(studentID uuid.UUID, hijriDate string) string {
	return studentID.String() + "|" + hijriDate
}
