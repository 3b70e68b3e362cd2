package dues

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApprovalStatus represents the review state of a submitted payment
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsReviewed returns true once the payment has left the pending state
func (s ApprovalStatus) IsReviewed() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// PaymentMethod is how the member settled the amount
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobile       PaymentMethod = "MOBILE"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile:
		return true
	}
	return false
}

// ReceiptStorageKind identifies which backend holds the uploaded receipt
type ReceiptStorageKind string

const (
	ReceiptStorageS3    ReceiptStorageKind = "S3"
	ReceiptStorageLocal ReceiptStorageKind = "LOCAL" // degraded-mode fallback
)

// Payment is a receipted payment attempt against a Due. Payments never mutate
// the Due directly; approval is the only path that credits it.
type Payment struct {
	shared.BaseAggregateRoot
	DueID            uuid.UUID          `json:"due_id"`
	PharmacyID       uuid.UUID          `json:"pharmacy_id"`
	Amount           decimal.Decimal    `json:"amount"`
	PaymentMethod    PaymentMethod      `json:"payment_method"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	ReceiptURL       string             `json:"receipt_url"`
	ReceiptKey       string             `json:"receipt_key"`
	ReceiptStorage   ReceiptStorageKind `json:"receipt_storage"`
	ApprovalStatus   ApprovalStatus     `json:"approval_status"`
	ApprovedBy       *uuid.UUID         `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time         `json:"approved_at,omitempty"`
	RejectionReason  string             `json:"rejection_reason,omitempty"`
	SubmittedBy      uuid.UUID          `json:"submitted_by"`
	SubmittedAt      time.Time          `json:"submitted_at"`
}

// NewPayment creates a pending payment against a due
func NewPayment(
	dueID uuid.UUID,
	pharmacyID uuid.UUID,
	amount decimal.Decimal,
	method PaymentMethod,
	reference string,
	submittedBy uuid.UUID,
) (*Payment, error) {
	if dueID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DUE", "Due ID cannot be empty")
	}
	if pharmacyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PHARMACY", "Pharmacy ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DueID:             dueID,
		PharmacyID:        pharmacyID,
		Amount:            amount,
		PaymentMethod:     method,
		PaymentReference:  reference,
		ApprovalStatus:    ApprovalStatusPending,
		SubmittedBy:       submittedBy,
		SubmittedAt:       time.Now(),
	}, nil
}

// AttachReceipt records where the uploaded receipt landed
func (p *Payment) AttachReceipt(url, key string, kind ReceiptStorageKind) {
	p.ReceiptURL = url
	p.ReceiptKey = key
	p.ReceiptStorage = kind
}

// Approve transitions the payment pending -> approved. Reviewing a payment
// twice is always an error; this guard is what prevents double-crediting from
// retried requests.
func (p *Payment) Approve(approvedBy uuid.UUID) error {
	if p.ApprovalStatus != ApprovalStatusPending {
		return shared.ErrAlreadyReviewed
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}

	now := time.Now()
	p.ApprovalStatus = ApprovalStatusApproved
	p.ApprovedBy = &approvedBy
	p.ApprovedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// Reject transitions the payment pending -> rejected with a reason
func (p *Payment) Reject(reason string, reviewedBy uuid.UUID) error {
	if p.ApprovalStatus != ApprovalStatusPending {
		return shared.ErrAlreadyReviewed
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}
	if reviewedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}

	now := time.Now()
	p.ApprovalStatus = ApprovalStatusRejected
	p.RejectionReason = reason
	p.ApprovedBy = &reviewedBy
	p.ApprovedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// IsPending returns true if the payment has not been reviewed yet
func (p *Payment) IsPending() bool {
	return p.ApprovalStatus == ApprovalStatusPending
}

// IsApproved returns true if the payment has been approved
func (p *Payment) IsApproved() bool {
	return p.ApprovalStatus == ApprovalStatusApproved
}

// IsRejected returns true if the payment has been rejected
func (p *Payment) IsRejected() bool {
	return p.ApprovalStatus == ApprovalStatusRejected
}
