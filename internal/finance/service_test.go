package finance_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/config"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/finance"
	"github.com/halaqahq/halaqa/internal/store"
)

func newOfflineService(t *testing.T) (*finance.Service, *store.Store) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db)
	require.NoError(t, err)

	sel := backend.NewSelector(config.NewRuntime(""), nil, nil)

	return finance.NewService(st, sel), st
}

func TestService_SeedActivityTypes(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedActivityTypes(ctx))

	got, err := svc.ListActivityTypes(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(finance.DefaultActivityTypes))

	// Seeding again is a no-op.
	require.NoError(t, svc.SeedActivityTypes(ctx))

	got, err = svc.ListActivityTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(finance.DefaultActivityTypes))
}

func TestService_DeleteActivityType(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	at, err := svc.CreateActivityType(ctx, "نشاط مؤقت")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteActivityType(ctx, at.ID))

	got, err := svc.ListActivityTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_DeleteActivityTypeUnknown(t *testing.T) {
	svc, _ := newOfflineService(t)

	err := svc.DeleteActivityType(context.Background(), uuid.New())
	assert.ErrorIs(t, err, finance.ErrNotFound)
}

func TestService_SaveBudgetFirstSave(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	before, err := svc.GetBudget(ctx)
	require.NoError(t, err)
	assert.Nil(t, before)

	budget, err := svc.SaveBudget(ctx, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, float64(1000), budget.CurrentBalance)

	// The first save opens the ledger with an initial deposit.
	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TransactionDeposit, txs[0].Type)
	assert.Equal(t, float64(1000), txs[0].Amount)
	assert.Zero(t, txs[0].BalanceBefore)
	assert.Equal(t, float64(1000), txs[0].BalanceAfter)
	assert.Equal(t, "ميزانية أولية", txs[0].Description)
}

func TestService_SaveBudgetRecordsDelta(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	_, err := svc.SaveBudget(ctx, 500, "")
	require.NoError(t, err)

	t.Run("Increase", func(t *testing.T) {
		_, err := svc.SaveBudget(ctx, 800, "")
		require.NoError(t, err)

		txs, err := svc.ListTransactions(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 2)

		last := txs[1]
		assert.Equal(t, entity.TransactionDeposit, last.Type)
		assert.Equal(t, float64(300), last.Amount)
		assert.Equal(t, float64(500), last.BalanceBefore)
		assert.Equal(t, float64(800), last.BalanceAfter)
	})

	t.Run("Decrease", func(t *testing.T) {
		_, err := svc.SaveBudget(ctx, 600, "")
		require.NoError(t, err)

		txs, err := svc.ListTransactions(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 3)

		last := txs[2]
		assert.Equal(t, entity.TransactionAdjustment, last.Type)
		assert.Equal(t, float64(200), last.Amount)
		assert.Equal(t, float64(800), last.BalanceBefore)
		assert.Equal(t, float64(600), last.BalanceAfter)
	})

	t.Run("NoChangeNoTransaction", func(t *testing.T) {
		_, err := svc.SaveBudget(ctx, 600, "")
		require.NoError(t, err)

		txs, err := svc.ListTransactions(ctx)
		require.NoError(t, err)
		assert.Len(t, txs, 3)
	})
}

func TestService_SaveBudgetRejectsNegative(t *testing.T) {
	svc, _ := newOfflineService(t)

	_, err := svc.SaveBudget(context.Background(), -1, "")
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)
}

func TestService_CreateReportDebitsBudget(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	_, err := svc.SaveBudget(ctx, 1000, "")
	require.NoError(t, err)

	report, err := svc.CreateReport(ctx, finance.ReportParams{
		ActivityType:     "رحلة",
		HijriDate:        "10/2/1446",
		ParticipantCount: 25,
	}, []finance.ExpenseParams{
		{Description: "نقل", Amount: 100},
		{Description: "وجبات", Amount: 50},
	}, []string{"https://photos.example/a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, float64(150), report.TotalCost)
	assert.Equal(t, float64(1000), report.BudgetBefore)
	assert.Equal(t, float64(850), report.BudgetAfter)

	budget, err := svc.GetBudget(ctx)
	require.NoError(t, err)
	require.NotNil(t, budget)
	assert.Equal(t, float64(850), budget.CurrentBalance)

	items, err := svc.ListExpenseItems(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	photos, err := svc.ListReportPhotos(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "https://photos.example/a.jpg", photos[0].PhotoURL)

	// The ledger gains an expense transaction linked to the report.
	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	expense := txs[1]
	assert.Equal(t, entity.TransactionExpense, expense.Type)
	assert.Equal(t, float64(150), expense.Amount)
	require.NotNil(t, expense.ReportID)
	assert.Equal(t, report.ID, *expense.ReportID)
}

func TestService_CreateReportWithoutBudget(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	// No budget yet: the report still lands, with a zero baseline and no
	// ledger write.
	report, err := svc.CreateReport(ctx, finance.ReportParams{
		ActivityType: "مسابقة",
		HijriDate:    "1/3/1446",
	}, []finance.ExpenseParams{{Description: "جوائز", Amount: 75}}, nil)
	require.NoError(t, err)

	assert.Zero(t, report.BudgetBefore)
	assert.Equal(t, float64(-75), report.BudgetAfter)

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestService_CreateReportRejectsNonPositiveExpense(t *testing.T) {
	svc, _ := newOfflineService(t)

	_, err := svc.CreateReport(context.Background(), finance.ReportParams{
		ActivityType: "رحلة",
		HijriDate:    "1/1/1446",
	}, []finance.ExpenseParams{{Description: "مجاني", Amount: 0}}, nil)
	assert.ErrorIs(t, err, finance.ErrInvalidAmount)
}

func TestService_AttachPhoto(t *testing.T) {
	svc, _ := newOfflineService(t)
	ctx := context.Background()

	reportID := uuid.New()

	require.NoError(t, svc.AttachPhoto(ctx, reportID, "https://photos.example/late.jpg"))

	photos, err := svc.ListReportPhotos(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, reportID, photos[0].ReportID)
}
