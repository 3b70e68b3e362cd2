package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/registry"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/pharmassoc/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPharmacyRepository implements PharmacyRepository using GORM
type GormPharmacyRepository struct {
	db *gorm.DB
}

// NewGormPharmacyRepository creates a new GormPharmacyRepository
func NewGormPharmacyRepository(db *gorm.DB) *GormPharmacyRepository {
	return &GormPharmacyRepository{db: db}
}

// FindByID finds a pharmacy by its ID
func (r *GormPharmacyRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Pharmacy, error) {
	var model models.PharmacyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRegistrationNumber finds a pharmacy by its registration number
func (r *GormPharmacyRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*registry.Pharmacy, error) {
	var model models.PharmacyModel
	if err := r.db.WithContext(ctx).
		Where("registration_number = ?", registrationNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple pharmacies by their IDs
func (r *GormPharmacyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]registry.Pharmacy, error) {
	if len(ids) == 0 {
		return []registry.Pharmacy{}, nil
	}

	var pharmacyModels []models.PharmacyModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&pharmacyModels).Error; err != nil {
		return nil, err
	}

	pharmacies := make([]registry.Pharmacy, len(pharmacyModels))
	for i, model := range pharmacyModels {
		pharmacies[i] = *model.ToDomain()
	}
	return pharmacies, nil
}

// FindAll finds all pharmacies matching the filter
func (r *GormPharmacyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]registry.Pharmacy, error) {
	var pharmacyModels []models.PharmacyModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PharmacyModel{}), filter)

	if err := query.Find(&pharmacyModels).Error; err != nil {
		return nil, err
	}

	pharmacies := make([]registry.Pharmacy, len(pharmacyModels))
	for i, model := range pharmacyModels {
		pharmacies[i] = *model.ToDomain()
	}
	return pharmacies, nil
}

// Count counts pharmacies matching the filter
func (r *GormPharmacyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PharmacyModel{})
	query = r.applySearch(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActiveIDs returns the ids of every active pharmacy, the target set for
// bulk due assignment
func (r *GormPharmacyRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.PharmacyModel{}).
		Where("status = ?", registry.PharmacyStatusActive).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a pharmacy
func (r *GormPharmacyRepository) Save(ctx context.Context, pharmacy *registry.Pharmacy) error {
	model := models.PharmacyModelFromDomain(pharmacy)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a pharmacy with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormPharmacyRepository) SaveWithLock(ctx context.Context, pharmacy *registry.Pharmacy) error {
	model := models.PharmacyModelFromDomain(pharmacy)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", pharmacy.ID, pharmacy.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies search plus pagination and ordering
func (r *GormPharmacyRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applySearch(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PharmacySortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applySearch applies the free-text search condition
func (r *GormPharmacyRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("name ILIKE ? OR registration_number ILIKE ? OR email ILIKE ? OR superintendent ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}
	return query
}

// Ensure GormPharmacyRepository implements PharmacyRepository
var _ registry.PharmacyRepository = (*GormPharmacyRepository)(nil)
