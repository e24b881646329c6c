package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind names an entity collection. The same value is used as the local
// store collection, the relational table name and the sync dispatch key.
type Kind string

const (
	KindTeachers           Kind = "teachers"
	KindStudents           Kind = "students"
	KindDailyProgress      Kind = "daily_progress"
	KindActivityTypes      Kind = "activity_types"
	KindBudget             Kind = "budget"
	KindBudgetTransactions Kind = "budget_transactions"
	KindFinancialReports   Kind = "financial_reports"
	KindExpenseItems       Kind = "expense_items"
	KindReportPhotos       Kind = "report_photos"

	// KindInactiveStudents is a read-only virtual listing: students with
	// is_active unset, served for the reactivation picker. It is never a
	// mutation target.
	KindInactiveStudents Kind = "students_inactive"
)

// MutationOp is the operation recorded in a pending mutation.
type MutationOp string

const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// Mutation is one queued write awaiting replay against the remote backend.
// Payload is the full record for create/update, or `{"id":"..."}` for delete.
type Mutation struct {
	ID         uuid.UUID       `json:"id"`
	Op         MutationOp      `json:"op"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

type Teacher struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

type Student struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Age          *int       `json:"age,omitempty"`
	CurrentSurah string     `json:"current_surah,omitempty"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty"`
	Teacher      *Teacher   `json:"teacher,omitempty"` // joined client-side, never persisted
	IsActive     bool       `json:"is_active"`
	IsDeleted    bool       `json:"is_deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DailyProgress records one student's memorization for one hijri day.
// At most one entry exists per (StudentID, HijriDate).
type DailyProgress struct {
	ID             uuid.UUID `json:"id"`
	StudentID      uuid.UUID `json:"student_id"`
	Student        *Student  `json:"student,omitempty"` // joined client-side
	HijriDate      string    `json:"hijri_date"`        // normalized "d/m/yyyy"
	HijriMonth     string    `json:"hijri_month"`       // display label, e.g. "رمضان 1447"
	DayNumber      int       `json:"day_number"`        // 1-30
	PagesMemorized float64   `json:"pages_memorized"`
	PagesReviewed  float64   `json:"pages_reviewed"`
	AttendanceOnly bool      `json:"attendance_only"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ActivityType struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// Budget is a singleton: at most one record exists.
type Budget struct {
	ID             uuid.UUID `json:"id"`
	CurrentBalance float64   `json:"current_balance"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TransactionType classifies a budget ledger entry.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionExpense    TransactionType = "expense"
	TransactionAdjustment TransactionType = "adjustment"
)

// BudgetTransaction is an append-only ledger entry. BalanceAfter of entry N
// equals BalanceBefore of the next entry, best-effort.
type BudgetTransaction struct {
	ID            uuid.UUID       `json:"id"`
	Type          TransactionType `json:"type"`
	Amount        float64         `json:"amount"`
	BalanceBefore float64         `json:"balance_before"`
	BalanceAfter  float64         `json:"balance_after"`
	Description   string          `json:"description,omitempty"`
	ReportID      *uuid.UUID      `json:"report_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type FinancialReport struct {
	ID               uuid.UUID `json:"id"`
	ActivityType     string    `json:"activity_type"`
	HijriDate        string    `json:"hijri_date"`
	ParticipantCount int       `json:"participant_count"`
	TotalCost        float64   `json:"total_cost"`
	BudgetBefore     float64   `json:"budget_before"`
	BudgetAfter      float64   `json:"budget_after"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ExpenseItem struct {
	ID          uuid.UUID `json:"id"`
	ReportID    uuid.UUID `json:"report_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReportPhoto struct {
	ID        uuid.UUID `json:"id"`
	ReportID  uuid.UUID `json:"report_id"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}
