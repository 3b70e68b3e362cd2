package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/shared"
)

// PharmacyRepository defines the persistence interface for Pharmacy aggregates
type PharmacyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Pharmacy, error)
	FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*Pharmacy, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Pharmacy, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Pharmacy, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindActiveIDs returns the ids of every pharmacy in active membership,
	// the target set for bulk due assignment.
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	Save(ctx context.Context, pharmacy *Pharmacy) error
	SaveWithLock(ctx context.Context, pharmacy *Pharmacy) error
}
