package persistence

import (
	"context"

	"github.com/pharmassoc/backend/internal/domain/dues"
	"gorm.io/gorm"
)

// GormUnitOfWork binds due and payment repositories to one database
// transaction, so a payment's review outcome and its credit on the due commit
// or roll back together.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a transaction with repositories bound to it. Any
// error from fn rolls the whole transaction back.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(dueRepo dues.DueRepository, paymentRepo dues.PaymentRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormDueRepository(tx), NewGormPaymentRepository(tx))
	})
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ dues.UnitOfWork = (*GormUnitOfWork)(nil)
