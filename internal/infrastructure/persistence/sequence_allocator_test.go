package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSequenceAllocator creates a GormSequenceAllocator with a mocked SQL connection
func newMockSequenceAllocator(t *testing.T) (*GormSequenceAllocator, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSequenceAllocator(gormDB), mock, mockDB
}

func TestGormSequenceAllocator_Next(t *testing.T) {
	t.Run("returns the advanced counter value", func(t *testing.T) {
		allocator, mock, mockDB := newMockSequenceAllocator(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WithArgs("pharmacy_registration").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(42)))

		value, err := allocator.Next(context.Background(), "pharmacy_registration")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("starts a fresh counter at one", func(t *testing.T) {
		allocator, mock, mockDB := newMockSequenceAllocator(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WithArgs("branch_levy").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(1)))

		value, err := allocator.Next(context.Background(), "branch_levy")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		allocator, mock, mockDB := newMockSequenceAllocator(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO sequence_counters`).
			WithArgs("pharmacy_registration").
			WillReturnError(assert.AnError)

		value, err := allocator.Next(context.Background(), "pharmacy_registration")

		assert.Error(t, err)
		assert.Zero(t, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
