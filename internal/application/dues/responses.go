package dues

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/shopspring/decimal"
)

// DueResponse represents a due in API responses
type DueResponse struct {
	ID                 uuid.UUID         `json:"id"`
	PharmacyID         uuid.UUID         `json:"pharmacy_id"`
	DueTypeID          uuid.UUID         `json:"due_type_id"`
	Year               int               `json:"year"`
	Title              string            `json:"title"`
	Description        string            `json:"description,omitempty"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	AmountPaid         decimal.Decimal   `json:"amount_paid"`
	Balance            decimal.Decimal   `json:"balance"`
	PaymentStatus      string            `json:"payment_status"`
	AssignmentType     string            `json:"assignment_type"`
	AssignedBy         uuid.UUID         `json:"assigned_by"`
	AssignedAt         time.Time         `json:"assigned_at"`
	DueDate            time.Time         `json:"due_date"`
	IsRecurring        bool              `json:"is_recurring"`
	RecurringFrequency string            `json:"recurring_frequency,omitempty"`
	Penalties          []PenaltyResponse `json:"penalties,omitempty"`
	PaidAt             *time.Time        `json:"paid_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Version            int               `json:"version"`
}

// PenaltyResponse represents a penalty entry in API responses
type PenaltyResponse struct {
	ID      uuid.UUID       `json:"id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
	AddedBy uuid.UUID       `json:"added_by"`
	AddedAt time.Time       `json:"added_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	DueID            uuid.UUID       `json:"due_id"`
	PharmacyID       uuid.UUID       `json:"pharmacy_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	ReceiptURL       string          `json:"receipt_url,omitempty"`
	ReceiptStorage   string          `json:"receipt_storage,omitempty"`
	ApprovalStatus   string          `json:"approval_status"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	SubmittedBy      uuid.UUID       `json:"submitted_by"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Due              *DueResponse    `json:"due,omitempty"`
}

func toDueResponse(d *dues.Due) *DueResponse {
	penalties := make([]PenaltyResponse, len(d.Penalties))
	for i, p := range d.Penalties {
		penalties[i] = PenaltyResponse{
			ID:      p.ID,
			Amount:  p.Amount,
			Reason:  p.Reason,
			AddedBy: p.AddedBy,
			AddedAt: p.AddedAt,
		}
	}

	return &DueResponse{
		ID:                 d.ID,
		PharmacyID:         d.PharmacyID,
		DueTypeID:          d.DueTypeID,
		Year:               d.Year,
		Title:              d.Title,
		Description:        d.Description,
		TotalAmount:        d.TotalAmount,
		AmountPaid:         d.AmountPaid,
		Balance:            d.Balance,
		PaymentStatus:      d.PaymentStatus.String(),
		AssignmentType:     string(d.AssignmentType),
		AssignedBy:         d.AssignedBy,
		AssignedAt:         d.AssignedAt,
		DueDate:            d.DueDate,
		IsRecurring:        d.IsRecurring,
		RecurringFrequency: string(d.RecurringFrequency),
		Penalties:          penalties,
		PaidAt:             d.PaidAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		Version:            d.Version,
	}
}

func toDueResponses(items []dues.Due) []DueResponse {
	out := make([]DueResponse, len(items))
	for i := range items {
		out[i] = *toDueResponse(&items[i])
	}
	return out
}

func toPaymentResponse(p *dues.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID,
		DueID:            p.DueID,
		PharmacyID:       p.PharmacyID,
		Amount:           p.Amount,
		PaymentMethod:    string(p.PaymentMethod),
		PaymentReference: p.PaymentReference,
		ReceiptURL:       p.ReceiptURL,
		ReceiptStorage:   string(p.ReceiptStorage),
		ApprovalStatus:   p.ApprovalStatus.String(),
		ApprovedBy:       p.ApprovedBy,
		ApprovedAt:       p.ApprovedAt,
		RejectionReason:  p.RejectionReason,
		SubmittedBy:      p.SubmittedBy,
		SubmittedAt:      p.SubmittedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toPaymentResponses(items []dues.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(items))
	for i := range items {
		out[i] = *toPaymentResponse(&items[i])
	}
	return out
}
