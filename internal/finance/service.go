// Package finance covers activity types, the singleton budget, its
// append-only transaction ledger and photographic expense reports.
package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrNotFound      = errors.New("activity type not found")
)

// DefaultActivityTypes seed the reference list on first use.
var DefaultActivityTypes = []string{
	"رياضة وصبوح",
	"رحلة",
	"مسابقة",
	"حفل تكريم",
	"أخرى",
}

type Service struct {
	store    *store.Store
	backends *backend.Selector
}

func NewService(st *store.Store, sel *backend.Selector) *Service {
	return &Service{store: st, backends: sel}
}

// --- Activity types

func (s *Service) ListActivityTypes(ctx context.Context) ([]entity.ActivityType, error) {
	types, err := backend.FetchWithFallback[entity.ActivityType](ctx, s.backends, s.store, entity.KindActivityTypes)
	if err != nil {
		return nil, err
	}

	out := types[:0]

	for _, at := range types {
		if !at.IsDeleted {
			out = append(out, at)
		}
	}

	return out, nil
}

func (s *Service) CreateActivityType(ctx context.Context, name string) (*entity.ActivityType, error) {
	if name == "" {
		return nil, errors.New("activity type name is required")
	}

	at := entity.ActivityType{ID: uuid.New(), Name: name, CreatedAt: time.Now()}

	if err := s.saveRecord(ctx, entity.KindActivityTypes, at.ID, at, entity.OpCreate); err != nil {
		return nil, err
	}

	return &at, nil
}

// SeedActivityTypes creates the default reference list when none exists yet.
func (s *Service) SeedActivityTypes(ctx context.Context) error {
	existing, err := s.ListActivityTypes(ctx)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		return nil
	}

	for _, name := range DefaultActivityTypes {
		if _, err := s.CreateActivityType(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) DeleteActivityType(ctx context.Context, id uuid.UUID) error {
	raw, err := s.store.GetCachedItem(ctx, entity.KindActivityTypes, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}

		return err
	}

	var t entity.ActivityType
	if err := json.Unmarshal(raw, &t); err != nil {
		return fmt.Errorf("decoding activity type: %w", err)
	}

	t.IsDeleted = true

	data, err := entity.Encode(t)
	if err != nil {
		return err
	}

	if _, err := s.store.Enqueue(ctx, entity.OpUpdate, entity.KindActivityTypes, data); err != nil {
		return err
	}

	return s.store.DeleteCached(ctx, entity.KindActivityTypes, id)
}

// --- Budget

// GetBudget returns the singleton budget record, or nil before the first
// save.
func (s *Service) GetBudget(ctx context.Context) (*entity.Budget, error) {
	budgets, err := backend.FetchWithFallback[entity.Budget](ctx, s.backends, s.store, entity.KindBudget)
	if err != nil {
		return nil, err
	}

	if len(budgets) == 0 {
		return nil, nil
	}

	return &budgets[0], nil
}

// SaveBudget sets the balance to amount. The first save creates the budget
// with an initial deposit transaction; later saves record the delta as a
// deposit or an adjustment, chaining balance-before to balance-after.
func (s *Service) SaveBudget(ctx context.Context, amount float64, description string) (*entity.Budget, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	existing, err := s.GetBudget(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if existing == nil {
		b := entity.Budget{ID: uuid.New(), CurrentBalance: amount, UpdatedAt: now}
		if err := s.saveRecord(ctx, entity.KindBudget, b.ID, b, entity.OpCreate); err != nil {
			return nil, err
		}

		if description == "" {
			description = "ميزانية أولية"
		}

		err := s.appendTransaction(ctx, entity.BudgetTransaction{
			ID:            uuid.New(),
			Type:          entity.TransactionDeposit,
			Amount:        amount,
			BalanceBefore: 0,
			BalanceAfter:  amount,
			Description:   description,
			CreatedAt:     now,
		})
		if err != nil {
			return nil, err
		}

		return &b, nil
	}

	previous := existing.CurrentBalance
	existing.CurrentBalance = amount
	existing.UpdatedAt = now

	if err := s.saveRecord(ctx, entity.KindBudget, existing.ID, *existing, entity.OpUpdate); err != nil {
		return nil, err
	}

	delta := math.Abs(amount - previous)
	if delta == 0 {
		return existing, nil
	}

	kind := entity.TransactionAdjustment
	if amount > previous {
		kind = entity.TransactionDeposit
	}

	if description == "" {
		if kind == entity.TransactionDeposit {
			description = "إيداع ميزانية"
		} else {
			description = "تعديل ميزانية"
		}
	}

	err = s.appendTransaction(ctx, entity.BudgetTransaction{
		ID:            uuid.New(),
		Type:          kind,
		Amount:        delta,
		BalanceBefore: previous,
		BalanceAfter:  amount,
		Description:   description,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	return existing, nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]entity.BudgetTransaction, error) {
	return backend.FetchWithFallback[entity.BudgetTransaction](ctx, s.backends, s.store, entity.KindBudgetTransactions)
}

// --- Financial reports

type ReportParams struct {
	ActivityType     string
	HijriDate        string
	ParticipantCount int
	Notes            string
}

type ExpenseParams struct {
	Description string
	Amount      float64
}

// CreateReport creates the report, its expense items and its photos as
// independent sequential writes, then debits the budget and appends the
// linked expense transaction. There is no rollback on partial failure: the
// spreadsheet backend has no multi-row transactions, so none is promised.
func (s *Service) CreateReport(ctx context.Context, params ReportParams, expenses []ExpenseParams, photoURLs []string) (*entity.FinancialReport, error) {
	var total float64

	for _, e := range expenses {
		if e.Amount <= 0 {
			return nil, fmt.Errorf("%w: expense %q", ErrInvalidAmount, e.Description)
		}

		total += e.Amount
	}

	budget, err := s.GetBudget(ctx)
	if err != nil {
		return nil, err
	}

	var before float64
	if budget != nil {
		before = budget.CurrentBalance
	}

	now := time.Now()
	report := entity.FinancialReport{
		ID:               uuid.New(),
		ActivityType:     params.ActivityType,
		HijriDate:        params.HijriDate,
		ParticipantCount: params.ParticipantCount,
		TotalCost:        total,
		BudgetBefore:     before,
		BudgetAfter:      before - total,
		Notes:            params.Notes,
		CreatedAt:        now,
	}

	if err := s.saveRecord(ctx, entity.KindFinancialReports, report.ID, report, entity.OpCreate); err != nil {
		return nil, err
	}

	for _, e := range expenses {
		item := entity.ExpenseItem{
			ID:          uuid.New(),
			ReportID:    report.ID,
			Description: e.Description,
			Amount:      e.Amount,
			CreatedAt:   now,
		}

		if err := s.saveRecord(ctx, entity.KindExpenseItems, item.ID, item, entity.OpCreate); err != nil {
			return nil, err
		}
	}

	for _, u := range photoURLs {
		if err := s.attachPhoto(ctx, report.ID, u, now); err != nil {
			return nil, err
		}
	}

	if budget != nil {
		budget.CurrentBalance = report.BudgetAfter
		budget.UpdatedAt = now

		if err := s.saveRecord(ctx, entity.KindBudget, budget.ID, *budget, entity.OpUpdate); err != nil {
			return nil, err
		}

		err := s.appendTransaction(ctx, entity.BudgetTransaction{
			ID:            uuid.New(),
			Type:          entity.TransactionExpense,
			Amount:        total,
			BalanceBefore: report.BudgetBefore,
			BalanceAfter:  report.BudgetAfter,
			Description:   fmt.Sprintf("%s - %s", params.ActivityType, params.HijriDate),
			ReportID:      &report.ID,
			CreatedAt:     now,
		})
		if err != nil {
			return nil, err
		}
	}

	return &report, nil
}

func (s *Service) ListReports(ctx context.Context) ([]entity.FinancialReport, error) {
	return backend.FetchWithFallback[entity.FinancialReport](ctx, s.backends, s.store, entity.KindFinancialReports)
}

// ListExpenseItems returns a report's expense items.
func (s *Service) ListExpenseItems(ctx context.Context, reportID uuid.UUID) ([]entity.ExpenseItem, error) {
	items, err := backend.FetchWithFallback[entity.ExpenseItem](ctx, s.backends, s.store, entity.KindExpenseItems)
	if err != nil {
		return nil, err
	}

	out := items[:0]

	for _, item := range items {
		if item.ReportID == reportID {
			out = append(out, item)
		}
	}

	return out, nil
}

func (s *Service) ListReportPhotos(ctx context.Context, reportID uuid.UUID) ([]entity.ReportPhoto, error) {
	photos, err := backend.FetchWithFallback[entity.ReportPhoto](ctx, s.backends, s.store, entity.KindReportPhotos)
	if err != nil {
		return nil, err
	}

	out := photos[:0]

	for _, p := range photos {
		if p.ReportID == reportID {
			out = append(out, p)
		}
	}

	return out, nil
}

// AttachPhoto links an already-uploaded image URL to a report.
func (s *Service) AttachPhoto(ctx context.Context, reportID uuid.UUID, photoURL string) error {
	return s.attachPhoto(ctx, reportID, photoURL, time.Now())
}

func (s *Service) attachPhoto(ctx context.Context, reportID uuid.UUID, photoURL string, now time.Time) error {
	photo := entity.ReportPhoto{
		ID:        uuid.New(),
		ReportID:  reportID,
		PhotoURL:  photoURL,
		CreatedAt: now,
	}

	return s.saveRecord(ctx, entity.KindReportPhotos, photo.ID, photo, entity.OpCreate)
}

func (s *Service) appendTransaction(ctx context.Context, tx entity.BudgetTransaction) error {
	return s.saveRecord(ctx, entity.KindBudgetTransactions, tx.ID, tx, entity.OpCreate)
}

func (s *Service) saveRecord(ctx context.Context, kind entity.Kind, id uuid.UUID, v any, op entity.MutationOp) error {
	data, err := entity.Encode(v)
	if err != nil {
		return err
	}

	return s.store.SaveOfflineFirst(ctx, kind, store.Record{ID: id, Data: data}, op)
}
