package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/pharmassoc/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDueRepository implements DueRepository using GORM
type GormDueRepository struct {
	db *gorm.DB
}

// NewGormDueRepository creates a new GormDueRepository
func NewGormDueRepository(db *gorm.DB) *GormDueRepository {
	return &GormDueRepository{db: db}
}

// FindByID finds a due by its ID
func (r *GormDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Due, error) {
	var model models.DueModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds a due by its (pharmacy, due type, year) uniqueness key
func (r *GormDueRepository) FindByKey(ctx context.Context, key dues.DueKey) (*dues.Due, error) {
	var model models.DueModel
	if err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND due_type_id = ? AND year = ?", key.PharmacyID, key.DueTypeID, key.Year).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all dues matching the filter
func (r *GormDueRepository) FindAll(ctx context.Context, filter dues.DueFilter) ([]dues.Due, error) {
	var dueModels []models.DueModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DueModel{}), filter)

	if err := query.Find(&dueModels).Error; err != nil {
		return nil, err
	}

	result := make([]dues.Due, len(dueModels))
	for i, model := range dueModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// Count counts dues matching the filter
func (r *GormDueRepository) Count(ctx context.Context, filter dues.DueFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&models.DueModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Upsert inserts the due or, on a (pharmacy_id, due_type_id, year) conflict,
// overwrites the assignment fields of the existing row. The update is a single
// ON CONFLICT DO UPDATE statement: amount_paid is preserved, the balance and
// settlement status are re-derived inside the database, and the row version is
// bumped. The authoritative row is re-read and returned.
func (r *GormDueRepository) Upsert(ctx context.Context, due *dues.Due) (*dues.Due, error) {
	model := models.DueModelFromDomain(due)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pharmacy_id"}, {Name: "due_type_id"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"title":               due.Title,
			"description":         due.Description,
			"total_amount":        due.TotalAmount,
			"due_date":            due.DueDate,
			"assignment_type":     due.AssignmentType,
			"assigned_by":         due.AssignedBy,
			"assigned_at":         due.AssignedAt,
			"is_recurring":        due.IsRecurring,
			"recurring_frequency": due.RecurringFrequency,
			"balance":             gorm.Expr("GREATEST(EXCLUDED.total_amount - dues.amount_paid, 0)"),
			"payment_status": gorm.Expr(`CASE
				WHEN dues.amount_paid <= 0 THEN 'PENDING'
				WHEN EXCLUDED.total_amount <= dues.amount_paid THEN 'PAID'
				ELSE 'PARTIALLY_PAID'
			END`),
			"paid_at": gorm.Expr(`CASE
				WHEN dues.amount_paid > 0 AND EXCLUDED.total_amount <= dues.amount_paid THEN COALESCE(dues.paid_at, NOW())
				ELSE NULL
			END`),
			"version":    gorm.Expr("dues.version + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(model).Error
	if err != nil {
		return nil, err
	}

	return r.FindByKey(ctx, dues.DueKey{
		PharmacyID: due.PharmacyID,
		DueTypeID:  due.DueTypeID,
		Year:       due.Year,
	})
}

// SaveWithLock saves a due with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormDueRepository) SaveWithLock(ctx context.Context, due *dues.Due) error {
	model := models.DueModelFromDomain(due)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", due.ID, due.Version-1).
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

// Delete deletes a due
func (r *GormDueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DueModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// dueSummaryRow maps the aggregated summary query
type dueSummaryRow struct {
	TotalAssigned    decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOutstanding decimal.Decimal
	PendingCount     int64
	PartialCount     int64
	PaidCount        int64
	OverdueCount     int64
}

// Summary computes collection totals and status counts across all dues
func (r *GormDueRepository) Summary(ctx context.Context) (*dues.DueSummary, error) {
	var row dueSummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.DueModel{}).
		Select(`COALESCE(SUM(total_amount), 0) AS total_assigned,
			COALESCE(SUM(amount_paid), 0) AS total_collected,
			COALESCE(SUM(balance), 0) AS total_outstanding,
			COUNT(CASE WHEN payment_status = 'PENDING' THEN 1 END) AS pending_count,
			COUNT(CASE WHEN payment_status = 'PARTIALLY_PAID' THEN 1 END) AS partial_count,
			COUNT(CASE WHEN payment_status = 'PAID' THEN 1 END) AS paid_count,
			COUNT(CASE WHEN payment_status = 'OVERDUE' THEN 1 END) AS overdue_count`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &dues.DueSummary{
		TotalAssigned:    row.TotalAssigned,
		TotalCollected:   row.TotalCollected,
		TotalOutstanding: row.TotalOutstanding,
		PendingCount:     row.PendingCount,
		PartialCount:     row.PartialCount,
		PaidCount:        row.PaidCount,
		OverdueCount:     row.OverdueCount,
	}, nil
}

// MarkOverdueBefore flags every unsettled due past the cutoff as overdue in a
// single set-based update; returns the number of rows flagged.
func (r *GormDueRepository) MarkOverdueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DueModel{}).
		Where("due_date < ? AND payment_status IN ?", cutoff,
			[]dues.PaymentStatus{dues.PaymentStatusPending, dues.PaymentStatusPartiallyPaid}).
		Updates(map[string]interface{}{
			"payment_status": dues.PaymentStatusOverdue,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// applyFilter applies filter conditions plus pagination and ordering
func (r *GormDueRepository) applyFilter(query *gorm.DB, filter dues.DueFilter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, DueSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyConditions applies filter conditions without pagination
func (r *GormDueRepository) applyConditions(query *gorm.DB, filter dues.DueFilter) *gorm.DB {
	if filter.PharmacyID != nil {
		query = query.Where("pharmacy_id = ?", *filter.PharmacyID)
	}
	if filter.DueTypeID != nil {
		query = query.Where("due_type_id = ?", *filter.DueTypeID)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Status != nil {
		query = query.Where("payment_status = ?", *filter.Status)
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			query = query.Where("due_date < ? AND payment_status <> ?", time.Now(), dues.PaymentStatusPaid)
		} else {
			query = query.Where("due_date >= ? OR payment_status = ?", time.Now(), dues.PaymentStatusPaid)
		}
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", searchPattern, searchPattern)
	}
	return query
}

// Ensure GormDueRepository implements DueRepository
var _ dues.DueRepository = (*GormDueRepository)(nil)
