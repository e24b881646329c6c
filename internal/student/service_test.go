package student_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
	"github.com/halaqahq/halaqa/internal/student"
	"github.com/halaqahq/halaqa/internal/teacher"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db)
	require.NoError(t, err)

	return st
}

func newOfflineService(t *testing.T) (*student.Service, *store.Store) {
	t.Helper()

	st := newTestStore(t)
	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

	return student.NewService(st, sel), st
}

func intptr(v int) *int { return &v }

func TestService_CreateAndList(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, student.CreateParams{
		Name:         "سالم",
		Age:          intptr(11),
		CurrentSurah: "الملك",
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "سالم", got[0].Name)
	require.NotNil(t, got[0].Age)
	assert.Equal(t, 11, *got[0].Age)
}

func TestService_ListJoinsTeacher(t *testing.T) {
	st := newTestStore(t)
	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)
	svc := student.NewService(st, sel)
	teacherSvc := teacher.NewService(st, sel)
	ctx := context.Background()

	tc, err := teacherSvc.Create(ctx, "المعلم")
	require.NoError(t, err)

	_, err = svc.Create(ctx, student.CreateParams{Name: "مع معلم", TeacherID: &tc.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, student.CreateParams{Name: "بدون معلم"})
	require.NoError(t, err)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := map[string]entity.Student{}
	for _, s := range got {
		byName[s.Name] = s
	}

	withTeacher := byName["مع معلم"]
	require.NotNil(t, withTeacher.Teacher)
	assert.Equal(t, "المعلم", withTeacher.Teacher.Name)

	assert.Nil(t, byName["بدون معلم"].Teacher)
}

func TestService_Update(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, student.CreateParams{Name: "قبل", CurrentSurah: "النبأ"})
	require.NoError(t, err)

	surah := "عبس"

	updated, err := svc.Update(ctx, created.ID, student.UpdateParams{CurrentSurah: &surah})
	require.NoError(t, err)

	// Patched fields change; the rest stays.
	assert.Equal(t, "عبس", updated.CurrentSurah)
	assert.Equal(t, "قبل", updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestService_UpdateUnknown(t *testing.T) {
	svc, _ := newOfflineService(t)

	name := "x"

	_, err := svc.Update(context.Background(), uuid.New(), student.UpdateParams{Name: &name})
	assert.ErrorIs(t, err, student.ErrNotFound)
}

func TestService_DeactivateReactivate(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, student.CreateParams{Name: "متقطع"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The record stays cached, so reactivation works without a backend.
	require.NoError(t, svc.Reactivate(ctx, created.ID))

	got, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsActive)
	assert.False(t, got[0].IsDeleted)
}

func TestService_SoftDeleteThenReactivate(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, student.CreateParams{Name: "محذوف"})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.False(t, got.IsActive)

	// Soft delete clears both flags on reactivation.
	require.NoError(t, svc.Reactivate(ctx, created.ID))

	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
	assert.True(t, got.IsActive)
}

func TestService_ListInactive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := newTestStore(t)
	ctx := context.Background()

	inactive := entity.Student{ID: uuid.New(), Name: "موقوف"}
	data, err := entity.Encode(inactive)
	require.NoError(t, err)

	adapter := backend.NewMockAdapter(ctrl)
	adapter.EXPECT().
		FetchAll(gomock.Any(), entity.KindInactiveStudents).
		Return([]store.Record{{ID: inactive.ID, Data: data}}, nil)

	svc := student.NewService(st, backend.NewSelector(config.NewRuntime(""), adapter, nil))

	got, err := svc.ListInactive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "موقوف", got[0].Name)
}
