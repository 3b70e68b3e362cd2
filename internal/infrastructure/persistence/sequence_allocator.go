package persistence

import (
	"context"
	"fmt"

	"github.com/pharmassoc/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSequenceAllocator hands out strictly increasing numbers from named
// counters in the sequence_counters table.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Next atomically advances the named counter and returns the new value. The
// increment and the read happen in one INSERT ... ON CONFLICT ... RETURNING
// statement, so concurrent callers can never receive the same number.
func (a *GormSequenceAllocator) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := a.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (name, value, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (name)
		DO UPDATE SET value = sequence_counters.value + 1, updated_at = NOW()
		RETURNING value`, name).
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}
	return value, nil
}

// Ensure GormSequenceAllocator implements SequenceAllocator
var _ shared.SequenceAllocator = (*GormSequenceAllocator)(nil)
