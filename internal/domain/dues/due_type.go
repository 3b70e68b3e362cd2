package dues

import (
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DueType is a billing category (annual dues, branch levy, conference fee, ...)
type DueType struct {
	shared.BaseAggregateRoot
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	IsRecurring   bool            `json:"is_recurring"`
	IsActive      bool            `json:"is_active"`
}

// NewDueType creates a new due type
func NewDueType(name, description string, defaultAmount decimal.Decimal, isRecurring bool) (*DueType, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Due type name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Due type name cannot exceed 100 characters")
	}
	if defaultAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Default amount cannot be negative")
	}

	return &DueType{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		DefaultAmount:     defaultAmount,
		IsRecurring:       isRecurring,
		IsActive:          true,
	}, nil
}

// Update changes the descriptive fields of the due type
func (t *DueType) Update(name, description string, defaultAmount decimal.Decimal, isRecurring bool) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Due type name cannot be empty")
	}
	if defaultAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Default amount cannot be negative")
	}

	t.Name = name
	t.Description = description
	t.DefaultAmount = defaultAmount
	t.IsRecurring = isRecurring
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Deactivate retires the due type from new assignments
func (t *DueType) Deactivate() {
	t.IsActive = false
	t.Touch()
	t.IncrementVersion()
}
