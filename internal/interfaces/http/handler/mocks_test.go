package handler

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/registry"
	"github.com/pharmassoc/backend/internal/domain/shared"
)

// MockDueRepository is a mock implementation of dues.DueRepository
type MockDueRepository struct {
	mock.Mock
}

func (m *MockDueRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Due, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.Due), args.Error(1)
}

func (m *MockDueRepository) FindByKey(ctx context.Context, key dues.DueKey) (*dues.Due, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.Due), args.Error(1)
}

func (m *MockDueRepository) FindAll(ctx context.Context, filter dues.DueFilter) ([]dues.Due, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dues.Due), args.Error(1)
}

func (m *MockDueRepository) Count(ctx context.Context, filter dues.DueFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDueRepository) Upsert(ctx context.Context, due *dues.Due) (*dues.Due, error) {
	args := m.Called(ctx, due)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.Due), args.Error(1)
}

func (m *MockDueRepository) SaveWithLock(ctx context.Context, due *dues.Due) error {
	args := m.Called(ctx, due)
	return args.Error(0)
}

func (m *MockDueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDueRepository) Summary(ctx context.Context) (*dues.DueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.DueSummary), args.Error(1)
}

func (m *MockDueRepository) MarkOverdueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of dues.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByDue(ctx context.Context, dueID uuid.UUID) ([]dues.Payment, error) {
	args := m.Called(ctx, dueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dues.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter dues.PaymentFilter) ([]dues.Payment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dues.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter dues.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *dues.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) TransitionFromPending(ctx context.Context, payment *dues.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDueTypeRepository is a mock implementation of dues.DueTypeRepository
type MockDueTypeRepository struct {
	mock.Mock
}

func (m *MockDueTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*dues.DueType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.DueType), args.Error(1)
}

func (m *MockDueTypeRepository) FindByName(ctx context.Context, name string) (*dues.DueType, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dues.DueType), args.Error(1)
}

func (m *MockDueTypeRepository) FindAll(ctx context.Context, activeOnly bool) ([]dues.DueType, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dues.DueType), args.Error(1)
}

func (m *MockDueTypeRepository) Save(ctx context.Context, dueType *dues.DueType) error {
	args := m.Called(ctx, dueType)
	return args.Error(0)
}

// MockPharmacyRepository is a mock implementation of registry.PharmacyRepository
type MockPharmacyRepository struct {
	mock.Mock
}

func (m *MockPharmacyRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Pharmacy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) FindByRegistrationNumber(ctx context.Context, registrationNumber string) (*registry.Pharmacy, error) {
	args := m.Called(ctx, registrationNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]registry.Pharmacy, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registry.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]registry.Pharmacy, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registry.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPharmacyRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPharmacyRepository) Save(ctx context.Context, pharmacy *registry.Pharmacy) error {
	args := m.Called(ctx, pharmacy)
	return args.Error(0)
}

func (m *MockPharmacyRepository) SaveWithLock(ctx context.Context, pharmacy *registry.Pharmacy) error {
	args := m.Called(ctx, pharmacy)
	return args.Error(0)
}

// MockUnitOfWork executes the callback against the supplied repositories
// without any real transaction.
type MockUnitOfWork struct {
	dueRepo     dues.DueRepository
	paymentRepo dues.PaymentRepository
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(dueRepo dues.DueRepository, paymentRepo dues.PaymentRepository) error) error {
	return fn(m.dueRepo, m.paymentRepo)
}

// MockSequenceAllocator is a mock implementation of shared.SequenceAllocator
type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) Next(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

// fakeReceiptStorage records uploads in memory
type fakeReceiptStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeReceiptStorage() *fakeReceiptStorage {
	return &fakeReceiptStorage{uploaded: make(map[string][]byte)}
}

func (f *fakeReceiptStorage) Upload(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	f.uploaded[key] = data
	return "https://receipts.test/" + key, nil
}

func (f *fakeReceiptStorage) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}

func (f *fakeReceiptStorage) PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return "https://receipts.test/" + key + "?signed=1", nil
}

func (f *fakeReceiptStorage) Kind() dues.ReceiptStorageKind {
	return dues.ReceiptStorageS3
}

var _ duesapp.ReceiptStorage = (*fakeReceiptStorage)(nil)
