package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/backend/sheets"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/entity"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context) (string, error) {
	return "test-token", nil
}

type valueRange struct {
	Values [][]any `json:"values"`
}

func newAdapter(t *testing.T, handler http.Handler) *sheets.Adapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rt := config.NewRuntime("sheet1")

	return sheets.New(rt, staticTokens{}, sheets.WithBaseURL(srv.URL), sheets.WithHTTPClient(srv.Client()))
}

func writeValues(t *testing.T, w http.ResponseWriter, values [][]any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(valueRange{Values: values}))
}

func TestAdapter_FetchAllTeachers(t *testing.T) {
	active1 := uuid.New()
	active2 := uuid.New()

	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sheet1/values/Teachers!A2:E", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		writeValues(t, w, [][]any{
			{active2.String(), "زيد", 1, 0, "2024-01-01T00:00:00Z"},
			{uuid.New().String(), "deleted", 1, 1, "2024-01-01T00:00:00Z"},
			{uuid.New().String(), "inactive", 0, 0, "2024-01-01T00:00:00Z"},
			{"", "no id"},
			{active1.String(), "أحمد", 1, 0, "2024-01-02T00:00:00Z"},
		})
	}))

	recs, err := adapter.FetchAll(context.Background(), entity.KindTeachers)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Soft-deleted, inactive and id-less rows are dropped and the rest is
	// sorted by name.
	assert.Equal(t, active1, recs[0].ID)
	assert.Equal(t, active2, recs[1].ID)

	var teacher entity.Teacher
	require.NoError(t, json.Unmarshal(recs[0].Data, &teacher))
	assert.Equal(t, "أحمد", teacher.Name)
	assert.True(t, teacher.IsActive)
}

func TestAdapter_FetchAllStudents(t *testing.T) {
	activeID := uuid.New()
	inactiveID := uuid.New()
	teacherID := uuid.New()

	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet1/values/Students!A2:I", r.URL.Path)

		writeValues(t, w, [][]any{
			{activeID.String(), "سالم", 12, "البقرة", teacherID.String(), 1, 0,
				"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
			{inactiveID.String(), "موقوف", "", "", "", 0, 0,
				"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		})
	}))

	t.Run("Active", func(t *testing.T) {
		recs, err := adapter.FetchAll(context.Background(), entity.KindStudents)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, activeID, recs[0].ID)

		var s entity.Student
		require.NoError(t, json.Unmarshal(recs[0].Data, &s))
		require.NotNil(t, s.Age)
		assert.Equal(t, 12, *s.Age)
		require.NotNil(t, s.TeacherID)
		assert.Equal(t, teacherID, *s.TeacherID)
	})

	t.Run("Inactive", func(t *testing.T) {
		recs, err := adapter.FetchAll(context.Background(), entity.KindInactiveStudents)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, inactiveID, recs[0].ID)
	})
}

func TestAdapter_FetchAllUnsupportedKind(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := adapter.FetchAll(context.Background(), entity.KindBudget)
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestAdapter_InsertAppendsRow(t *testing.T) {
	teacher := entity.Teacher{ID: uuid.New(), Name: "خالد", IsActive: true, CreatedAt: time.Now()}
	payload, err := json.Marshal(teacher)
	require.NoError(t, err)

	var appended [][]any

	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sheet1/values/Teachers!A:E:append", r.URL.Path)
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))

		var vr valueRange
		require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))

		appended = vr.Values
		writeValues(t, w, nil)
	}))

	require.NoError(t, adapter.Insert(context.Background(), entity.KindTeachers, payload))

	require.Len(t, appended, 1)
	assert.Equal(t, teacher.ID.String(), appended[0][0])
	assert.Equal(t, "خالد", appended[0][1])
	assert.Equal(t, float64(1), appended[0][2])
}

func TestAdapter_UpdateLocatesRow(t *testing.T) {
	target := uuid.New()
	teacher := entity.Teacher{ID: target, Name: "renamed", IsActive: true}
	payload, err := json.Marshal(teacher)
	require.NoError(t, err)

	var putPath string

	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/sheet1/values/Teachers!A2:A", r.URL.Path)
			writeValues(t, w, [][]any{
				{uuid.New().String()},
				{target.String()},
				{uuid.New().String()},
			})
		case http.MethodPut:
			putPath = r.URL.Path
			writeValues(t, w, nil)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	require.NoError(t, adapter.Update(context.Background(), entity.KindTeachers, payload))

	// The id sits in the second data row, which is sheet row 3.
	assert.Equal(t, "/sheet1/values/Teachers!A3:E3", putPath)
}

func TestAdapter_UpdateUnknownID(t *testing.T) {
	teacher := entity.Teacher{ID: uuid.New(), Name: "ghost"}
	payload, err := json.Marshal(teacher)
	require.NoError(t, err)

	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeValues(t, w, [][]any{{uuid.New().String()}})
	}))

	err = adapter.Update(context.Background(), entity.KindTeachers, payload)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestAdapter_DeleteUnsupported(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	err := adapter.Delete(context.Background(), entity.KindTeachers, uuid.New())
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestAdapter_APIError(t *testing.T) {
	adapter := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403}}`, http.StatusForbidden)
	}))

	_, err := adapter.FetchAll(context.Background(), entity.KindTeachers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
