// Package postgres is the relational backend adapter. Every logical
// operation is one network round trip; backend errors surface verbatim
// through %w wrapping.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/entity"
	"github.com/halaqahq/halaqa/internal/store"
)

type Adapter struct {
	db *sql.DB
}

func New(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

var tables = map[entity.Kind]bool{
	entity.KindTeachers:           true,
	entity.KindStudents:           true,
	entity.KindDailyProgress:      true,
	entity.KindActivityTypes:      true,
	entity.KindBudget:             true,
	entity.KindBudgetTransactions: true,
	entity.KindFinancialReports:   true,
	entity.KindExpenseItems:       true,
	entity.KindReportPhotos:       true,
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (a *Adapter) FetchAll(ctx context.Context, kind entity.Kind) ([]store.Record, error) {
	query, scan := fetchQuery(kind)
	if query == "" {
		return nil, fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", kind, err)
	}
	defer rows.Close()

	var out []store.Record

	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}

		out = append(out, rec)
	}

	return out, rows.Err()
}

// fetchQuery returns the listing query and row codec for a kind. Listings
// exclude soft-deleted rows and use name order for people, ledger order for
// finance.
func fetchQuery(kind entity.Kind) (string, func(scanner) (store.Record, error)) {
	switch kind {
	case entity.KindTeachers:
		return `SELECT id, name, is_active, is_deleted, created_at
			FROM teachers WHERE is_active AND NOT is_deleted ORDER BY name ASC`, scanTeacher
	case entity.KindStudents:
		return `SELECT id, name, age, current_surah, teacher_id, is_active, is_deleted, created_at, updated_at
			FROM students WHERE is_active AND NOT is_deleted ORDER BY name ASC`, scanStudent
	case entity.KindInactiveStudents:
		return `SELECT id, name, age, current_surah, teacher_id, is_active, is_deleted, created_at, updated_at
			FROM students WHERE NOT is_active ORDER BY name ASC`, scanStudent
	case entity.KindDailyProgress:
		return `SELECT id, student_id, hijri_date, hijri_month, day_number,
				pages_memorized, pages_reviewed, attendance_only, notes, created_at
			FROM daily_progress ORDER BY created_at ASC`, scanProgress
	case entity.KindActivityTypes:
		return `SELECT id, name, is_deleted, created_at
			FROM activity_types WHERE NOT is_deleted ORDER BY name ASC`, scanActivityType
	case entity.KindBudget:
		return `SELECT id, current_balance, updated_at FROM budget`, scanBudget
	case entity.KindBudgetTransactions:
		return `SELECT id, type, amount, balance_before, balance_after, description, report_id, created_at
			FROM budget_transactions ORDER BY created_at DESC`, scanTransaction
	case entity.KindFinancialReports:
		return `SELECT id, activity_type, hijri_date, participant_count, total_cost,
				budget_before, budget_after, notes, created_at
			FROM financial_reports ORDER BY created_at DESC`, scanReport
	case entity.KindExpenseItems:
		return `SELECT id, report_id, description, amount, created_at
			FROM expense_items ORDER BY created_at ASC`, scanExpenseItem
	case entity.KindReportPhotos:
		return `SELECT id, report_id, photo_url, created_at
			FROM report_photos ORDER BY created_at ASC`, scanPhoto
	default:
		return "", nil
	}
}

func record(id uuid.UUID, v any) (store.Record, error) {
	data, err := entity.Encode(v)
	if err != nil {
		return store.Record{}, err
	}

	return store.Record{ID: id, Data: data}, nil
}

func scanTeacher(s scanner) (store.Record, error) {
	var t entity.Teacher
	if err := s.Scan(&t.ID, &t.Name, &t.IsActive, &t.IsDeleted, &t.CreatedAt); err != nil {
		return store.Record{}, err
	}

	return record(t.ID, t)
}

func scanStudent(s scanner) (store.Record, error) {
	var (
		st    entity.Student
		age   sql.NullInt64
		surah sql.NullString
	)

	if err := s.Scan(&st.ID, &st.Name, &age, &surah, &st.TeacherID,
		&st.IsActive, &st.IsDeleted, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return store.Record{}, err
	}

	if age.Valid {
		v := int(age.Int64)
		st.Age = &v
	}

	st.CurrentSurah = surah.String

	return record(st.ID, st)
}

func scanProgress(s scanner) (store.Record, error) {
	var (
		p     entity.DailyProgress
		notes sql.NullString
	)

	if err := s.Scan(&p.ID, &p.StudentID, &p.HijriDate, &p.HijriMonth, &p.DayNumber,
		&p.PagesMemorized, &p.PagesReviewed, &p.AttendanceOnly, &notes, &p.CreatedAt); err != nil {
		return store.Record{}, err
	}

	p.Notes = notes.String

	return record(p.ID, p)
}

func scanActivityType(s scanner) (store.Record, error) {
	var at entity.ActivityType
	if err := s.Scan(&at.ID, &at.Name, &at.IsDeleted, &at.CreatedAt); err != nil {
		return store.Record{}, err
	}

	return record(at.ID, at)
}

func scanBudget(s scanner) (store.Record, error) {
	var b entity.Budget
	if err := s.Scan(&b.ID, &b.CurrentBalance, &b.UpdatedAt); err != nil {
		return store.Record{}, err
	}

	return record(b.ID, b)
}

func scanTransaction(s scanner) (store.Record, error) {
	var (
		tx   entity.BudgetTransaction
		desc sql.NullString
	)

	if err := s.Scan(&tx.ID, &tx.Type, &tx.Amount, &tx.BalanceBefore, &tx.BalanceAfter,
		&desc, &tx.ReportID, &tx.CreatedAt); err != nil {
		return store.Record{}, err
	}

	tx.Description = desc.String

	return record(tx.ID, tx)
}

func scanReport(s scanner) (store.Record, error) {
	var (
		r     entity.FinancialReport
		notes sql.NullString
	)

	if err := s.Scan(&r.ID, &r.ActivityType, &r.HijriDate, &r.ParticipantCount, &r.TotalCost,
		&r.BudgetBefore, &r.BudgetAfter, &notes, &r.CreatedAt); err != nil {
		return store.Record{}, err
	}

	r.Notes = notes.String

	return record(r.ID, r)
}

func scanExpenseItem(s scanner) (store.Record, error) {
	var e entity.ExpenseItem
	if err := s.Scan(&e.ID, &e.ReportID, &e.Description, &e.Amount, &e.CreatedAt); err != nil {
		return store.Record{}, err
	}

	return record(e.ID, e)
}

func scanPhoto(s scanner) (store.Record, error) {
	var p entity.ReportPhoto
	if err := s.Scan(&p.ID, &p.ReportID, &p.PhotoURL, &p.CreatedAt); err != nil {
		return store.Record{}, err
	}

	return record(p.ID, p)
}

func (a *Adapter) Insert(ctx context.Context, kind entity.Kind, payload json.RawMessage) error {
	query, args, err := writeArgs(kind, payload, true)
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting %s: %w", kind, err)
	}

	return nil
}

func (a *Adapter) Update(ctx context.Context, kind entity.Kind, payload json.RawMessage) error {
	query, args, err := writeArgs(kind, payload, false)
	if err != nil {
		return err
	}

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", kind, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating %s: %w", kind, backend.ErrNotFound)
	}

	return nil
}

// Delete hard-deletes a row. Only delete mutations replayed by the sync
// engine reach this; interactive deletes are soft, expressed as updates.
func (a *Adapter) Delete(ctx context.Context, kind entity.Kind, id uuid.UUID) error {
	if !tables[kind] {
		return fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}

	if _, err := a.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind), id); err != nil {
		return fmt.Errorf("deleting from %s: %w", kind, err)
	}

	return nil
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decoding payload: %w", err)
	}

	return v, nil
}

// writeArgs builds the insert or update statement for a kind from the
// mutation payload.
func writeArgs(kind entity.Kind, payload json.RawMessage, insert bool) (string, []any, error) {
	switch kind {
	case entity.KindTeachers:
		t, err := decode[entity.Teacher](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO teachers (id, name, is_active, is_deleted, created_at)
				VALUES ($1, $2, $3, $4, $5)`,
				[]any{t.ID, t.Name, t.IsActive, t.IsDeleted, t.CreatedAt}, nil
		}

		return `UPDATE teachers SET name = $2, is_active = $3, is_deleted = $4 WHERE id = $1`,
			[]any{t.ID, t.Name, t.IsActive, t.IsDeleted}, nil

	case entity.KindStudents:
		st, err := decode[entity.Student](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO students (id, name, age, current_surah, teacher_id, is_active, is_deleted, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				[]any{st.ID, st.Name, st.Age, st.CurrentSurah, st.TeacherID,
					st.IsActive, st.IsDeleted, st.CreatedAt, st.UpdatedAt}, nil
		}

		return `UPDATE students SET name = $2, age = $3, current_surah = $4, teacher_id = $5,
				is_active = $6, is_deleted = $7, updated_at = $8 WHERE id = $1`,
			[]any{st.ID, st.Name, st.Age, st.CurrentSurah, st.TeacherID,
				st.IsActive, st.IsDeleted, st.UpdatedAt}, nil

	case entity.KindDailyProgress:
		p, err := decode[entity.DailyProgress](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			// Upsert keyed on (student_id, hijri_date): at most one entry
			// per student per day.
			return `INSERT INTO daily_progress
					(id, student_id, hijri_date, hijri_month, day_number, pages_memorized, pages_reviewed, attendance_only, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (student_id, hijri_date) DO UPDATE SET
					pages_memorized = EXCLUDED.pages_memorized,
					pages_reviewed = EXCLUDED.pages_reviewed,
					attendance_only = EXCLUDED.attendance_only,
					notes = EXCLUDED.notes`,
				[]any{p.ID, p.StudentID, p.HijriDate, p.HijriMonth, p.DayNumber,
					p.PagesMemorized, p.PagesReviewed, p.AttendanceOnly, p.Notes, p.CreatedAt}, nil
		}

		return `UPDATE daily_progress SET pages_memorized = $2, pages_reviewed = $3,
				attendance_only = $4, notes = $5 WHERE id = $1`,
			[]any{p.ID, p.PagesMemorized, p.PagesReviewed, p.AttendanceOnly, p.Notes}, nil

	case entity.KindActivityTypes:
		at, err := decode[entity.ActivityType](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO activity_types (id, name, is_deleted, created_at) VALUES ($1, $2, $3, $4)`,
				[]any{at.ID, at.Name, at.IsDeleted, at.CreatedAt}, nil
		}

		return `UPDATE activity_types SET name = $2, is_deleted = $3 WHERE id = $1`,
			[]any{at.ID, at.Name, at.IsDeleted}, nil

	case entity.KindBudget:
		b, err := decode[entity.Budget](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO budget (id, current_balance, updated_at) VALUES ($1, $2, $3)`,
				[]any{b.ID, b.CurrentBalance, b.UpdatedAt}, nil
		}

		return `UPDATE budget SET current_balance = $2, updated_at = $3 WHERE id = $1`,
			[]any{b.ID, b.CurrentBalance, b.UpdatedAt}, nil

	case entity.KindBudgetTransactions:
		tx, err := decode[entity.BudgetTransaction](payload)
		if err != nil {
			return "", nil, err
		}

		if !insert {
			return "", nil, fmt.Errorf("%w: budget transactions are append-only", backend.ErrUnsupported)
		}

		return `INSERT INTO budget_transactions
				(id, type, amount, balance_before, balance_after, description, report_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{tx.ID, tx.Type, tx.Amount, tx.BalanceBefore, tx.BalanceAfter,
				tx.Description, tx.ReportID, tx.CreatedAt}, nil

	case entity.KindFinancialReports:
		r, err := decode[entity.FinancialReport](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO financial_reports
					(id, activity_type, hijri_date, participant_count, total_cost, budget_before, budget_after, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				[]any{r.ID, r.ActivityType, r.HijriDate, r.ParticipantCount, r.TotalCost,
					r.BudgetBefore, r.BudgetAfter, r.Notes, r.CreatedAt}, nil
		}

		return `UPDATE financial_reports SET activity_type = $2, hijri_date = $3, participant_count = $4,
				total_cost = $5, budget_before = $6, budget_after = $7, notes = $8 WHERE id = $1`,
			[]any{r.ID, r.ActivityType, r.HijriDate, r.ParticipantCount,
				r.TotalCost, r.BudgetBefore, r.BudgetAfter, r.Notes}, nil

	case entity.KindExpenseItems:
		e, err := decode[entity.ExpenseItem](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO expense_items (id, report_id, description, amount, created_at)
				VALUES ($1, $2, $3, $4, $5)`,
				[]any{e.ID, e.ReportID, e.Description, e.Amount, e.CreatedAt}, nil
		}

		return `UPDATE expense_items SET description = $2, amount = $3 WHERE id = $1`,
			[]any{e.ID, e.Description, e.Amount}, nil

	case entity.KindReportPhotos:
		p, err := decode[entity.ReportPhoto](payload)
		if err != nil {
			return "", nil, err
		}

		if insert {
			return `INSERT INTO report_photos (id, report_id, photo_url, created_at)
				VALUES ($1, $2, $3, $4)`,
				[]any{p.ID, p.ReportID, p.PhotoURL, p.CreatedAt}, nil
		}

		return `UPDATE report_photos SET photo_url = $2 WHERE id = $1`,
			[]any{p.ID, p.PhotoURL}, nil

	default:
		return "", nil, fmt.Errorf("%w: %s", backend.ErrUnsupported, kind)
	}
}
