package progress_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/progress"
	"github.com/halaqahq/halaqa/internal/store"
	"github.com/halaqahq/halaqa/internal/student"
)

func newOfflineService(t *testing.T) (*progress.Service, *store.Store) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db)
	require.NoError(t, err)

	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

	return progress.NewService(st, sel), st
}

func entry(studentID uuid.UUID, date string, memorized float64) progress.EntryParams {
	return progress.EntryParams{
		StudentID:      studentID,
		HijriDate:      date,
		HijriMonth:     "محرم 1446",
		DayNumber:      5,
		PagesMemorized: memorized,
		PagesReviewed:  1,
	}
}

func TestService_SaveEntriesUpsertsPerStudentDate(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	studentID := uuid.New()

	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{entry(studentID, "5/1/1446", 1.5)}))

	first, err := svc.ListByDate(ctx, "5/1/1446")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1.5, first[0].PagesMemorized)

	// The same (student, date) key overwrites in place instead of adding a
	// second entry, keeping id and created_at.
	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{entry(studentID, "5/1/1446", 2)}))

	second, err := svc.ListByDate(ctx, "5/1/1446")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, float64(2), second[0].PagesMemorized)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].CreatedAt, second[0].CreatedAt)

	// A different student on the same date is a separate entry.
	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{entry(uuid.New(), "5/1/1446", 0.5)}))

	both, err := svc.ListByDate(ctx, "5/1/1446")
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestService_SaveEntriesRejectsInvalidPages(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		memorized float64
		reviewed  float64
	}{
		{name: "NegativeMemorized", memorized: -1, reviewed: 0},
		{name: "QuarterPage", memorized: 0.25, reviewed: 0},
		{name: "NegativeReviewed", memorized: 1, reviewed: -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SaveEntries(ctx, []progress.EntryParams{{
				StudentID:      uuid.New(),
				HijriDate:      "1/1/1446",
				PagesMemorized: tt.memorized,
				PagesReviewed:  tt.reviewed,
			}})
			assert.ErrorIs(t, err, progress.ErrInvalidPages)
		})
	}
}

func TestService_AttendanceOnlyZeroesPages(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	studentID := uuid.New()

	e := entry(studentID, "7/1/1446", 3)
	e.AttendanceOnly = true

	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{e}))

	got, err := svc.ListByDate(ctx, "7/1/1446")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].AttendanceOnly)
	assert.Zero(t, got[0].PagesMemorized)
	assert.Zero(t, got[0].PagesReviewed)
}

func TestService_MarkAttendanceOnlyOverwritesPages(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	studentID := uuid.New()

	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{entry(studentID, "8/1/1446", 2)}))
	require.NoError(t, svc.MarkAttendanceOnly(ctx, studentID, "8/1/1446", "محرم 1446", 8))

	got, err := svc.ListByDate(ctx, "8/1/1446")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].AttendanceOnly)
	assert.Zero(t, got[0].PagesMemorized)
}

func TestService_ListByMonthOrdersByDay(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	for _, day := range []int{20, 3, 11} {
		e := progress.EntryParams{
			StudentID:      uuid.New(),
			HijriDate:      fmt.Sprintf("%d/1/1446", day),
			HijriMonth:     "محرم 1446",
			DayNumber:      day,
			PagesMemorized: 1,
		}
		require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{e}))
	}

	got, err := svc.ListByMonth(ctx, "محرم 1446")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].DayNumber)
	assert.Equal(t, 11, got[1].DayNumber)
	assert.Equal(t, 20, got[2].DayNumber)
}

func TestService_ListByDateAttachesStudents(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db)
	require.NoError(t, err)

	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)
	svc := progress.NewService(st, sel)
	studentSvc := student.NewService(st, sel)
	ctx := context.Background()

	created, err := studentSvc.Create(ctx, student.CreateParams{Name: "حافظ"})
	require.NoError(t, err)

	require.NoError(t, svc.SaveEntries(ctx, []progress.EntryParams{entry(created.ID, "9/1/1446", 1)}))

	got, err := svc.ListByDate(ctx, "9/1/1446")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Student)
	assert.Equal(t, "حافظ", got[0].Student.Name)
}
