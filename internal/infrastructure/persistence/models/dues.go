package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/shopspring/decimal"
)

// DueModel is the persistence model for the Due aggregate. The composite
// unique index on (pharmacy_id, due_type_id, year) is the conflict target of
// the assignment upsert.
type DueModel struct {
	AggregateModel
	PharmacyID         uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_dues_pharmacy_type_year,priority:1"`
	DueTypeID          uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_dues_pharmacy_type_year,priority:2"`
	Year               int                      `gorm:"not null;uniqueIndex:idx_dues_pharmacy_type_year,priority:3"`
	Title              string                   `gorm:"type:varchar(200);not null"`
	Description        string                   `gorm:"type:text"`
	TotalAmount        decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	AmountPaid         decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Balance            decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	PaymentStatus      dues.PaymentStatus       `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	AssignmentType     dues.AssignmentType      `gorm:"type:varchar(20);not null"`
	AssignedBy         uuid.UUID                `gorm:"type:uuid;not null"`
	AssignedAt         time.Time                `gorm:"not null"`
	DueDate            time.Time                `gorm:"not null;index"`
	IsRecurring        bool                     `gorm:"not null;default:false"`
	RecurringFrequency dues.RecurringFrequency  `gorm:"type:varchar(20)"`
	Penalties          dues.Penalties           `gorm:"type:jsonb;not null;default:'[]'"`
	PaidAt             *time.Time
}

// TableName returns the table name for GORM
func (DueModel) TableName() string {
	return "dues"
}

// ToDomain converts the persistence model to a domain Due aggregate.
func (m *DueModel) ToDomain() *dues.Due {
	return &dues.Due{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		PharmacyID:         m.PharmacyID,
		DueTypeID:          m.DueTypeID,
		Year:               m.Year,
		Title:              m.Title,
		Description:        m.Description,
		TotalAmount:        m.TotalAmount,
		AmountPaid:         m.AmountPaid,
		Balance:            m.Balance,
		PaymentStatus:      m.PaymentStatus,
		AssignmentType:     m.AssignmentType,
		AssignedBy:         m.AssignedBy,
		AssignedAt:         m.AssignedAt,
		DueDate:            m.DueDate,
		IsRecurring:        m.IsRecurring,
		RecurringFrequency: m.RecurringFrequency,
		Penalties:          m.Penalties,
		PaidAt:             m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Due aggregate.
func (m *DueModel) FromDomain(d *dues.Due) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.PharmacyID = d.PharmacyID
	m.DueTypeID = d.DueTypeID
	m.Year = d.Year
	m.Title = d.Title
	m.Description = d.Description
	m.TotalAmount = d.TotalAmount
	m.AmountPaid = d.AmountPaid
	m.Balance = d.Balance
	m.PaymentStatus = d.PaymentStatus
	m.AssignmentType = d.AssignmentType
	m.AssignedBy = d.AssignedBy
	m.AssignedAt = d.AssignedAt
	m.DueDate = d.DueDate
	m.IsRecurring = d.IsRecurring
	m.RecurringFrequency = d.RecurringFrequency
	m.Penalties = d.Penalties
	m.PaidAt = d.PaidAt
}

// DueModelFromDomain creates a new persistence model from a domain Due aggregate.
func DueModelFromDomain(d *dues.Due) *DueModel {
	m := &DueModel{}
	m.FromDomain(d)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate.
type PaymentModel struct {
	AggregateModel
	DueID            uuid.UUID               `gorm:"type:uuid;not null;index"`
	PharmacyID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PaymentMethod    dues.PaymentMethod      `gorm:"type:varchar(20);not null"`
	PaymentReference string                  `gorm:"type:varchar(100)"`
	ReceiptURL       string                  `gorm:"type:text"`
	ReceiptKey       string                  `gorm:"type:varchar(300)"`
	ReceiptStorage   dues.ReceiptStorageKind `gorm:"type:varchar(10)"`
	ApprovalStatus   dues.ApprovalStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy       *uuid.UUID              `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	RejectionReason  string    `gorm:"type:text"`
	SubmittedBy      uuid.UUID `gorm:"type:uuid;not null"`
	SubmittedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *dues.Payment {
	return &dues.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DueID:             m.DueID,
		PharmacyID:        m.PharmacyID,
		Amount:            m.Amount,
		PaymentMethod:     m.PaymentMethod,
		PaymentReference:  m.PaymentReference,
		ReceiptURL:        m.ReceiptURL,
		ReceiptKey:        m.ReceiptKey,
		ReceiptStorage:    m.ReceiptStorage,
		ApprovalStatus:    m.ApprovalStatus,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectionReason:   m.RejectionReason,
		SubmittedBy:       m.SubmittedBy,
		SubmittedAt:       m.SubmittedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *dues.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.DueID = p.DueID
	m.PharmacyID = p.PharmacyID
	m.Amount = p.Amount
	m.PaymentMethod = p.PaymentMethod
	m.PaymentReference = p.PaymentReference
	m.ReceiptURL = p.ReceiptURL
	m.ReceiptKey = p.ReceiptKey
	m.ReceiptStorage = p.ReceiptStorage
	m.ApprovalStatus = p.ApprovalStatus
	m.ApprovedBy = p.ApprovedBy
	m.ApprovedAt = p.ApprovedAt
	m.RejectionReason = p.RejectionReason
	m.SubmittedBy = p.SubmittedBy
	m.SubmittedAt = p.SubmittedAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment aggregate.
func PaymentModelFromDomain(p *dues.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// DueTypeModel is the persistence model for the DueType entity.
type DueTypeModel struct {
	AggregateModel
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description   string          `gorm:"type:text"`
	DefaultAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsRecurring   bool            `gorm:"not null;default:false"`
	IsActive      bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (DueTypeModel) TableName() string {
	return "due_types"
}

// ToDomain converts the persistence model to a domain DueType entity.
func (m *DueTypeModel) ToDomain() *dues.DueType {
	return &dues.DueType{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		DefaultAmount:     m.DefaultAmount,
		IsRecurring:       m.IsRecurring,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain DueType entity.
func (m *DueTypeModel) FromDomain(t *dues.DueType) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Description = t.Description
	m.DefaultAmount = t.DefaultAmount
	m.IsRecurring = t.IsRecurring
	m.IsActive = t.IsActive
}

// DueTypeModelFromDomain creates a new persistence model from a domain DueType entity.
func DueTypeModelFromDomain(t *dues.DueType) *DueTypeModel {
	m := &DueTypeModel{}
	m.FromDomain(t)
	return m
}
