package backend_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
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

func teacherRecord(name string) store.Record {
	tc := entity.Teacher{ID: uuid.New(), Name: name, IsActive: true}
	data, _ := json.Marshal(tc)

	return store.Record{ID: tc.ID, Data: data}
}

func TestFetchWithFallback_RemoteSuccessRefreshesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := newTestStore(t)
	ctx := context.Background()

	// A stale snapshot that the fetch must fully replace.
	require.NoError(t, st.Cache(ctx, entity.KindTeachers, []store.Record{teacherRecord("stale")}))

	fresh := []store.Record{teacherRecord("ahmad"), teacherRecord("bilal")}

	adapter := backend.NewMockAdapter(ctrl)
	adapter.EXPECT().FetchAll(gomock.Any(), entity.KindTeachers).Return(fresh, nil)

	sel := backend.NewSelector(config.NewRuntime(""), adapter, nil)

	got, err := backend.FetchWithFallback[entity.Teacher](ctx, sel, st, entity.KindTeachers)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ahmad", got[0].Name)
	assert.Equal(t, "bilal", got[1].Name)

	cached, err := st.GetCached(ctx, entity.KindTeachers)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestFetchWithFallback_RemoteFailureServesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Cache(ctx, entity.KindTeachers, []store.Record{teacherRecord("cached")}))

	adapter := backend.NewMockAdapter(ctrl)
	adapter.EXPECT().FetchAll(gomock.Any(), entity.KindTeachers).Return(nil, errors.New("network unreachable"))

	sel := backend.NewSelector(config.NewRuntime(""), adapter, nil)

	got, err := backend.FetchWithFallback[entity.Teacher](ctx, sel, st, entity.KindTeachers)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].Name)
}

func TestFetchWithFallback_NoBackendServesCache(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Cache(ctx, entity.KindTeachers, []store.Record{teacherRecord("offline")}))

	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

	got, err := backend.FetchWithFallback[entity.Teacher](ctx, sel, st, entity.KindTeachers)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "offline", got[0].Name)
}

func TestFetchWithFallback_ColdCacheIsEmpty(t *testing.T) {
	st := newTestStore(t)

	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

	got, err := backend.FetchWithFallback[entity.Teacher](context.Background(), sel, st, entity.KindTeachers)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelector_Active(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	relational := backend.NewMockAdapter(ctrl)
	sheets := backend.NewMockAdapter(ctrl)

	t.Run("SheetsWinsWhenConfigured", func(t *testing.T) {
		rt := config.NewRuntime("spreadsheet-id")
		rt.SetAccessToken("token", 0)

		sel := backend.NewSelector(rt, relational, sheets)

		active, err := sel.Active()
		require.NoError(t, err)
		assert.Same(t, sheets, active)
	})

	t.Run("RelationalWhenSheetsUnconfigured", func(t *testing.T) {
		sel := backend.NewSelector(config.NewRuntime(""), relational, sheets)

		active, err := sel.Active()
		require.NoError(t, err)
		assert.Same(t, relational, active)
	})

	t.Run("NoBackend", func(t *testing.T) {
		sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

		_, err := sel.Active()
		assert.ErrorIs(t, err, backend.ErrNoBackend)
	})
}
