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

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDue finds all payments submitted against a due, newest first
func (r *GormPaymentRepository) FindByDue(ctx context.Context, dueID uuid.UUID) ([]dues.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("due_id = ?", dueID).
		Order("submitted_at DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]dues.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindAll finds all payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter dues.PaymentFilter) ([]dues.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]dues.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter dues.PaymentFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.PaymentModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create persists a newly submitted payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *dues.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// TransitionFromPending persists a reviewed payment with an update conditioned
// on the stored row still being PENDING. When a concurrent reviewer has
// already moved the row, zero rows match and the caller gets
// shared.ErrAlreadyReviewed; this is what makes crediting exactly-once.
func (r *GormPaymentRepository) TransitionFromPending(ctx context.Context, payment *dues.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND approval_status = ?", payment.ID, dues.ApprovalStatusPending).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrAlreadyReviewed
	}
	return nil
}

// Delete deletes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter conditions plus pagination and ordering
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter dues.PaymentFilter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "submitted_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyConditions applies filter conditions without pagination
func (r *GormPaymentRepository) applyConditions(query *gorm.DB, filter dues.PaymentFilter) *gorm.DB {
	if filter.DueID != nil {
		query = query.Where("due_id = ?", *filter.DueID)
	}
	if filter.PharmacyID != nil {
		query = query.Where("pharmacy_id = ?", *filter.PharmacyID)
	}
	if filter.Status != nil {
		query = query.Where("approval_status = ?", *filter.Status)
	}
	return query
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ dues.PaymentRepository = (*GormPaymentRepository)(nil)
