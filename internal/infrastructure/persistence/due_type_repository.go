package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/pharmassoc/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDueTypeRepository implements DueTypeRepository using GORM
type GormDueTypeRepository struct {
	db *gorm.DB
}

// NewGormDueTypeRepository creates a new GormDueTypeRepository
func NewGormDueTypeRepository(db *gorm.DB) *GormDueTypeRepository {
	return &GormDueTypeRepository{db: db}
}

// FindByID finds a due type by its ID
func (r *GormDueTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.DueType, error) {
	var model models.DueTypeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a due type by its unique name
func (r *GormDueTypeRepository) FindByName(ctx context.Context, name string) (*dues.DueType, error) {
	var model models.DueTypeModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists due types, optionally restricted to active ones
func (r *GormDueTypeRepository) FindAll(ctx context.Context, activeOnly bool) ([]dues.DueType, error) {
	var typeModels []models.DueTypeModel
	query := r.db.WithContext(ctx).Model(&models.DueTypeModel{}).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&typeModels).Error; err != nil {
		return nil, err
	}

	types := make([]dues.DueType, len(typeModels))
	for i, model := range typeModels {
		types[i] = *model.ToDomain()
	}
	return types, nil
}

// Save creates or updates a due type
func (r *GormDueTypeRepository) Save(ctx context.Context, dueType *dues.DueType) error {
	model := models.DueTypeModelFromDomain(dueType)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormDueTypeRepository implements DueTypeRepository
var _ dues.DueTypeRepository = (*GormDueTypeRepository)(nil)
