package dues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DueTypeService manages the catalog of billing categories
type DueTypeService struct {
	dueTypeRepo dues.DueTypeRepository
}

// NewDueTypeService creates a new DueTypeService
func NewDueTypeService(dueTypeRepo dues.DueTypeRepository) *DueTypeService {
	return &DueTypeService{dueTypeRepo: dueTypeRepo}
}

// DueTypeRequest represents the data for creating or updating a due type
type DueTypeRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	IsRecurring   bool            `json:"is_recurring"`
}

// DueTypeResponse represents a due type in API responses
type DueTypeResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	IsRecurring   bool            `json:"is_recurring"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toDueTypeResponse(t *dues.DueType) *DueTypeResponse {
	return &DueTypeResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		DefaultAmount: t.DefaultAmount,
		IsRecurring:   t.IsRecurring,
		IsActive:      t.IsActive,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// CreateDueType registers a new billing category. Names are unique.
func (s *DueTypeService) CreateDueType(ctx context.Context, req DueTypeRequest) (*DueTypeResponse, error) {
	if existing, err := s.dueTypeRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	dueType, err := dues.NewDueType(req.Name, req.Description, req.DefaultAmount, req.IsRecurring)
	if err != nil {
		return nil, err
	}
	if err := s.dueTypeRepo.Save(ctx, dueType); err != nil {
		return nil, err
	}
	return toDueTypeResponse(dueType), nil
}

// UpdateDueType changes a billing category's descriptive fields
func (s *DueTypeService) UpdateDueType(ctx context.Context, id uuid.UUID, req DueTypeRequest) (*DueTypeResponse, error) {
	dueType, err := s.dueTypeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dueType.Update(req.Name, req.Description, req.DefaultAmount, req.IsRecurring); err != nil {
		return nil, err
	}
	if err := s.dueTypeRepo.Save(ctx, dueType); err != nil {
		return nil, err
	}
	return toDueTypeResponse(dueType), nil
}

// DeactivateDueType retires a billing category from new assignments
func (s *DueTypeService) DeactivateDueType(ctx context.Context, id uuid.UUID) error {
	dueType, err := s.dueTypeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	dueType.Deactivate()
	return s.dueTypeRepo.Save(ctx, dueType)
}

// GetDueType returns one due type by id
func (s *DueTypeService) GetDueType(ctx context.Context, id uuid.UUID) (*DueTypeResponse, error) {
	dueType, err := s.dueTypeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDueTypeResponse(dueType), nil
}

// ListDueTypes returns the catalog, optionally limited to active entries
func (s *DueTypeService) ListDueTypes(ctx context.Context, activeOnly bool) ([]DueTypeResponse, error) {
	items, err := s.dueTypeRepo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]DueTypeResponse, len(items))
	for i := range items {
		out[i] = *toDueTypeResponse(&items[i])
	}
	return out, nil
}
