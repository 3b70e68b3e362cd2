package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/registry"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// registrationSequence is the named counter backing registration numbers
const registrationSequence = "pharmacy_registration"

// RegistrationService manages the pharmacy membership register
type RegistrationService struct {
	pharmacyRepo registry.PharmacyRepository
	sequences    shared.SequenceAllocator
	numberPrefix string
	logger       *zap.Logger
}

// RegistrationServiceOption is a functional option for configuring RegistrationService
type RegistrationServiceOption func(*RegistrationService)

// WithNumberPrefix overrides the registration number prefix
func WithNumberPrefix(prefix string) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.numberPrefix = prefix
	}
}

// WithRegistrationLogger sets the logger used for registration diagnostics
func WithRegistrationLogger(logger *zap.Logger) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.logger = logger
	}
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	pharmacyRepo registry.PharmacyRepository,
	sequences shared.SequenceAllocator,
	opts ...RegistrationServiceOption,
) *RegistrationService {
	s := &RegistrationService{
		pharmacyRepo: pharmacyRepo,
		sequences:    sequences,
		numberPrefix: "PCN",
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterPharmacyRequest represents the data needed to register a pharmacy
type RegisterPharmacyRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Superintendent string `json:"superintendent"`
	Address        string `json:"address"`
}

// UpdatePharmacyRequest represents the editable profile of a pharmacy
type UpdatePharmacyRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	Superintendent string `json:"superintendent"`
	Address        string `json:"address"`
}

// PharmacyResponse represents a pharmacy in API responses
type PharmacyResponse struct {
	ID                 uuid.UUID  `json:"id"`
	RegistrationNumber string     `json:"registration_number"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone,omitempty"`
	Superintendent     string     `json:"superintendent,omitempty"`
	Address            string     `json:"address,omitempty"`
	Status             string     `json:"status"`
	RegisteredAt       time.Time  `json:"registered_at"`
	OwnerUserID        *uuid.UUID `json:"owner_user_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// PharmacyListResponse is a paginated list of pharmacies
type PharmacyListResponse struct {
	Items    []PharmacyResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func toPharmacyResponse(p *registry.Pharmacy) *PharmacyResponse {
	return &PharmacyResponse{
		ID:                 p.ID,
		RegistrationNumber: p.RegistrationNumber,
		Name:               p.Name,
		Email:              p.Email,
		Phone:              p.Phone,
		Superintendent:     p.Superintendent,
		Address:            p.Address,
		Status:             string(p.Status),
		RegisteredAt:       p.RegisteredAt,
		OwnerUserID:        p.OwnerUserID,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// RegisterPharmacy adds a pharmacy to the register with a freshly allocated
// registration number. The number comes from an atomic counter, so two
// concurrent registrations can never share one.
func (s *RegistrationService) RegisterPharmacy(ctx context.Context, req RegisterPharmacyRequest) (*PharmacyResponse, error) {
	seq, err := s.sequences.Next(ctx, registrationSequence)
	if err != nil {
		return nil, err
	}
	number := shared.FormatSequence(fmt.Sprintf("%s-%d", s.numberPrefix, time.Now().Year()), seq, 5)

	pharmacy, err := registry.NewPharmacy(number, req.Name, req.Email, req.Phone, req.Superintendent, req.Address)
	if err != nil {
		return nil, err
	}
	if err := s.pharmacyRepo.Save(ctx, pharmacy); err != nil {
		return nil, err
	}

	s.logger.Info("pharmacy registered",
		zap.String("pharmacy_id", pharmacy.ID.String()),
		zap.String("registration_number", number))
	return toPharmacyResponse(pharmacy), nil
}

// UpdatePharmacy changes a pharmacy's contact profile
func (s *RegistrationService) UpdatePharmacy(ctx context.Context, id uuid.UUID, req UpdatePharmacyRequest) (*PharmacyResponse, error) {
	pharmacy, err := s.pharmacyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := pharmacy.UpdateProfile(req.Name, req.Email, req.Phone, req.Superintendent, req.Address); err != nil {
		return nil, err
	}
	if err := s.pharmacyRepo.SaveWithLock(ctx, pharmacy); err != nil {
		return nil, err
	}
	return toPharmacyResponse(pharmacy), nil
}

// AssignOwner links a member user account to a pharmacy
func (s *RegistrationService) AssignOwner(ctx context.Context, pharmacyID, userID uuid.UUID) (*PharmacyResponse, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	pharmacy, err := s.pharmacyRepo.FindByID(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	pharmacy.AssignOwner(userID)
	if err := s.pharmacyRepo.SaveWithLock(ctx, pharmacy); err != nil {
		return nil, err
	}
	return toPharmacyResponse(pharmacy), nil
}

// SuspendPharmacy removes a pharmacy from active membership
func (s *RegistrationService) SuspendPharmacy(ctx context.Context, id uuid.UUID) (*PharmacyResponse, error) {
	return s.transition(ctx, id, (*registry.Pharmacy).Suspend)
}

// ReactivatePharmacy restores a suspended pharmacy
func (s *RegistrationService) ReactivatePharmacy(ctx context.Context, id uuid.UUID) (*PharmacyResponse, error) {
	return s.transition(ctx, id, (*registry.Pharmacy).Reactivate)
}

// ClosePharmacy permanently retires a pharmacy from the register
func (s *RegistrationService) ClosePharmacy(ctx context.Context, id uuid.UUID) (*PharmacyResponse, error) {
	return s.transition(ctx, id, (*registry.Pharmacy).Close)
}

func (s *RegistrationService) transition(ctx context.Context, id uuid.UUID, fn func(*registry.Pharmacy) error) (*PharmacyResponse, error) {
	pharmacy, err := s.pharmacyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(pharmacy); err != nil {
		return nil, err
	}
	if err := s.pharmacyRepo.SaveWithLock(ctx, pharmacy); err != nil {
		return nil, err
	}
	return toPharmacyResponse(pharmacy), nil
}

// GetPharmacy returns one pharmacy by id
func (s *RegistrationService) GetPharmacy(ctx context.Context, id uuid.UUID) (*PharmacyResponse, error) {
	pharmacy, err := s.pharmacyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPharmacyResponse(pharmacy), nil
}

// GetPharmacyByRegistrationNumber looks a pharmacy up by its public number
func (s *RegistrationService) GetPharmacyByRegistrationNumber(ctx context.Context, number string) (*PharmacyResponse, error) {
	pharmacy, err := s.pharmacyRepo.FindByRegistrationNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return toPharmacyResponse(pharmacy), nil
}

// ListPharmacies returns pharmacies matching the filter, with the total count
func (s *RegistrationService) ListPharmacies(ctx context.Context, filter shared.Filter) (*PharmacyListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, err := s.pharmacyRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.pharmacyRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]PharmacyResponse, len(items))
	for i := range items {
		out[i] = *toPharmacyResponse(&items[i])
	}
	return &PharmacyListResponse{
		Items:    out,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
