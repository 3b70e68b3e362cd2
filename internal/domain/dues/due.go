package dues

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement state of a due
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"        // Nothing credited yet
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID" // Credited, but balance remains
	PaymentStatusPaid          PaymentStatus = "PAID"           // Fully settled, balance = 0
	PaymentStatusOverdue       PaymentStatus = "OVERDUE"        // Past due date with money still owed
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsSettled returns true if the due is fully paid
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid
}

// AssignmentType indicates whether a due was created by a bulk run or for one pharmacy
type AssignmentType string

const (
	AssignmentTypeBulk       AssignmentType = "BULK"
	AssignmentTypeIndividual AssignmentType = "INDIVIDUAL"
)

// IsValid checks if the assignment type is valid
func (t AssignmentType) IsValid() bool {
	return t == AssignmentTypeBulk || t == AssignmentTypeIndividual
}

// RecurringFrequency is the period step for recurring due generation
type RecurringFrequency string

const (
	FrequencyMonthly   RecurringFrequency = "MONTHLY"
	FrequencyQuarterly RecurringFrequency = "QUARTERLY"
	FrequencyAnnually  RecurringFrequency = "ANNUALLY"
)

// IsValid checks if the frequency is valid
func (f RecurringFrequency) IsValid() bool {
	return f == FrequencyMonthly || f == FrequencyQuarterly || f == FrequencyAnnually
}

// Advance returns the given date moved forward by one frequency step
func (f RecurringFrequency) Advance(t time.Time) time.Time {
	switch f {
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyAnnually:
		return t.AddDate(1, 0, 0)
	}
	return t
}

// Penalty is a surcharge added to a due, stored as part of the Due aggregate
type Penalty struct {
	ID      uuid.UUID       `json:"id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
	AddedBy uuid.UUID       `json:"added_by"`
	AddedAt time.Time       `json:"added_at"`
}

// Penalties is an ordered list of Penalty that implements GORM Scanner/Valuer for JSONB storage
type Penalties []Penalty

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p Penalties) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *Penalties) Scan(value interface{}) error {
	if value == nil {
		*p = Penalties{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Penalties: unsupported type")
	}

	if len(bytes) == 0 {
		*p = Penalties{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of all penalty amounts
func (p Penalties) Total() decimal.Decimal {
	total := decimal.Zero
	for _, penalty := range p {
		total = total.Add(penalty.Amount)
	}
	return total
}

// Due represents one pharmacy's obligation for a due type and billing year.
// It is the single source of truth for how much is owed; AmountPaid and
// Balance are mutated only through the review workflow.
type Due struct {
	shared.BaseAggregateRoot
	PharmacyID         uuid.UUID          `json:"pharmacy_id"`
	DueTypeID          uuid.UUID          `json:"due_type_id"`
	Year               int                `json:"year"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	TotalAmount        decimal.Decimal    `json:"total_amount"`
	AmountPaid         decimal.Decimal    `json:"amount_paid"`
	Balance            decimal.Decimal    `json:"balance"`
	PaymentStatus      PaymentStatus      `json:"payment_status"`
	AssignmentType     AssignmentType     `json:"assignment_type"`
	AssignedBy         uuid.UUID          `json:"assigned_by"`
	AssignedAt         time.Time          `json:"assigned_at"`
	DueDate            time.Time          `json:"due_date"`
	IsRecurring        bool               `json:"is_recurring"`
	RecurringFrequency RecurringFrequency `json:"recurring_frequency,omitempty"`
	Penalties          Penalties          `json:"penalties"`
	PaidAt             *time.Time         `json:"paid_at,omitempty"`
}

// NewDue creates a new due for a pharmacy's billing period
func NewDue(
	pharmacyID uuid.UUID,
	dueTypeID uuid.UUID,
	title string,
	description string,
	amount decimal.Decimal,
	dueDate time.Time,
	assignmentType AssignmentType,
	assignedBy uuid.UUID,
) (*Due, error) {
	if pharmacyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PHARMACY", "Pharmacy ID cannot be empty")
	}
	if dueTypeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DUE_TYPE", "Due type ID cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Due amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be empty")
	}
	if !assignmentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ASSIGNMENT_TYPE", "Assignment type is not valid")
	}

	return &Due{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PharmacyID:        pharmacyID,
		DueTypeID:         dueTypeID,
		Year:              dueDate.Year(),
		Title:             title,
		Description:       description,
		TotalAmount:       amount,
		AmountPaid:        decimal.Zero,
		Balance:           amount,
		PaymentStatus:     PaymentStatusPending,
		AssignmentType:    assignmentType,
		AssignedBy:        assignedBy,
		AssignedAt:        time.Now(),
		DueDate:           dueDate,
		Penalties:         Penalties{},
	}, nil
}

// recompute derives Balance and PaymentStatus from TotalAmount and AmountPaid.
// Balance is clamped at zero; the status is a pure function of the two amounts.
func (d *Due) recompute() {
	d.Balance = d.TotalAmount.Sub(d.AmountPaid)
	switch {
	case d.AmountPaid.LessThanOrEqual(decimal.Zero):
		d.AmountPaid = decimal.Zero
		d.Balance = d.TotalAmount
		d.PaymentStatus = PaymentStatusPending
		d.PaidAt = nil
	case d.Balance.LessThanOrEqual(decimal.Zero):
		d.Balance = decimal.Zero
		d.PaymentStatus = PaymentStatusPaid
		if d.PaidAt == nil {
			now := time.Now()
			d.PaidAt = &now
		}
	default:
		d.PaymentStatus = PaymentStatusPartiallyPaid
		d.PaidAt = nil
	}
}

// Credit applies an approved payment amount to the due.
// Only the payment review workflow may call this.
func (d *Due) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if amount.GreaterThan(d.Balance) {
		return shared.NewDomainError("EXCEEDS_BALANCE",
			fmt.Sprintf("Credit amount %s exceeds outstanding balance %s", amount.StringFixed(2), d.Balance.StringFixed(2)))
	}

	d.AmountPaid = d.AmountPaid.Add(amount)
	d.recompute()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// ReverseCredit removes a previously applied payment amount, used when an
// approved payment is deleted.
func (d *Due) ReverseCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}

	d.AmountPaid = d.AmountPaid.Sub(amount)
	d.recompute()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// AddPenalty appends a surcharge to the due and raises the obligation
func (d *Due) AddPenalty(amount decimal.Decimal, reason string, addedBy uuid.UUID) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Penalty amount must be positive")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Penalty reason is required")
	}

	d.Penalties = append(d.Penalties, Penalty{
		ID:      uuid.New(),
		Amount:  amount,
		Reason:  reason,
		AddedBy: addedBy,
		AddedAt: time.Now(),
	})
	d.TotalAmount = d.TotalAmount.Add(amount)
	d.recompute()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// MarkOverdue flags the due as overdue. Allowed only while money is still owed
// and the due date has passed; the flag is replaced by the derived status on
// the next credit or reversal.
func (d *Due) MarkOverdue() error {
	if d.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a settled due as overdue")
	}
	if !d.IsOverdue() {
		return shared.NewDomainError("INVALID_STATE", "Due date has not passed")
	}

	d.PaymentStatus = PaymentStatusOverdue
	d.Touch()
	d.IncrementVersion()
	return nil
}

// MarkPaid settles the due administratively, without a payment record
func (d *Due) MarkPaid() error {
	if d.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Due is already settled")
	}

	d.AmountPaid = d.TotalAmount
	d.recompute()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// UpdateAssignment overwrites the caller-supplied fields during a
// re-assignment upsert. The identity triple (pharmacy, due type, year) and
// the amount already paid are untouched; last write wins on everything else
// and the balance and status are re-derived.
func (d *Due) UpdateAssignment(title, description string, amount decimal.Decimal, dueDate time.Time, assignedBy uuid.UUID) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Due amount must be positive")
	}

	d.Title = title
	d.Description = description
	d.TotalAmount = amount
	d.DueDate = dueDate
	d.AssignedBy = assignedBy
	d.AssignedAt = time.Now()
	d.recompute()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// IsOverdue returns true if the due is past its due date and not settled
func (d *Due) IsOverdue() bool {
	if d.PaymentStatus == PaymentStatusPaid {
		return false
	}
	return time.Now().After(d.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (d *Due) DaysOverdue() int {
	if !d.IsOverdue() {
		return 0
	}
	return int(time.Since(d.DueDate).Hours() / 24)
}

// HasPayments reports whether any amount has been credited
func (d *Due) HasPayments() bool {
	return d.AmountPaid.GreaterThan(decimal.Zero)
}

// PaidPercentage returns the percentage of total that has been paid (0-100)
func (d *Due) PaidPercentage() decimal.Decimal {
	if d.TotalAmount.IsZero() {
		return decimal.NewFromInt(100)
	}
	return d.AmountPaid.Div(d.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}
