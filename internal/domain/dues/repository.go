package dues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueKey is the natural uniqueness key of a due: one obligation per pharmacy,
// due type and billing year.
type DueKey struct {
	PharmacyID uuid.UUID
	DueTypeID  uuid.UUID
	Year       int
}

// DueFilter defines filtering options for due list queries
type DueFilter struct {
	PharmacyID *uuid.UUID
	DueTypeID  *uuid.UUID
	Year       *int
	Status     *PaymentStatus
	Overdue    *bool
	Search     string
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// DueSummary holds aggregate figures across dues
type DueSummary struct {
	TotalAssigned    decimal.Decimal `json:"total_assigned"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	PendingCount     int64           `json:"pending_count"`
	PartialCount     int64           `json:"partial_count"`
	PaidCount        int64           `json:"paid_count"`
	OverdueCount     int64           `json:"overdue_count"`
}

// DueRepository defines the persistence interface for Due aggregates
type DueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Due, error)
	FindByKey(ctx context.Context, key DueKey) (*Due, error)
	FindAll(ctx context.Context, filter DueFilter) ([]Due, error)
	Count(ctx context.Context, filter DueFilter) (int64, error)

	// Upsert atomically inserts the due or, when a row with the same
	// (pharmacy, due type, year) key already exists, overwrites its
	// assignment fields (last write wins) without touching the financial
	// progress. It returns the authoritative row. Implementations must use a
	// storage-native conditional upsert, never check-then-create.
	Upsert(ctx context.Context, due *Due) (*Due, error)

	// SaveWithLock persists the due guarded by its version (optimistic lock)
	SaveWithLock(ctx context.Context, due *Due) error

	Delete(ctx context.Context, id uuid.UUID) error
	Summary(ctx context.Context) (*DueSummary, error)

	// MarkOverdueBefore flags every unsettled due whose due date precedes the
	// cutoff; returns the number of rows flagged.
	MarkOverdueBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentFilter defines filtering options for payment list queries
type PaymentFilter struct {
	DueID      *uuid.UUID
	PharmacyID *uuid.UUID
	Status     *ApprovalStatus
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
}

// PaymentRepository defines the persistence interface for Payment aggregates
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByDue(ctx context.Context, dueID uuid.UUID) ([]Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	Create(ctx context.Context, payment *Payment) error

	// TransitionFromPending persists an already-reviewed aggregate with a
	// conditional update that succeeds only while the stored row is still
	// PENDING. A concurrent reviewer loses the race and gets
	// shared.ErrAlreadyReviewed, which is the defense against double-crediting.
	TransitionFromPending(ctx context.Context, payment *Payment) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// DueTypeRepository defines the persistence interface for due types
type DueTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DueType, error)
	FindByName(ctx context.Context, name string) (*DueType, error)
	FindAll(ctx context.Context, activeOnly bool) ([]DueType, error)
	Save(ctx context.Context, dueType *DueType) error
}

// UnitOfWork runs a function with due and payment repositories bound to one
// storage transaction, so a payment's approval and its credit on the due
// commit or roll back together.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(dueRepo DueRepository, paymentRepo PaymentRepository) error) error
}
