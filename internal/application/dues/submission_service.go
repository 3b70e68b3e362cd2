package dues

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmissionService handles member-side payment submission with receipt upload
type SubmissionService struct {
	dueRepo         dues.DueRepository
	paymentRepo     dues.PaymentRepository
	receiptStore    ReceiptStorage
	fallbackStore   ReceiptStorage
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	maxReceiptBytes int64
	logger          *zap.Logger
}

// SubmissionServiceOption is a functional option for configuring SubmissionService
type SubmissionServiceOption func(*SubmissionService)

// WithFallbackStorage sets the degraded-mode receipt store used when the
// primary store is unavailable
func WithFallbackStorage(store ReceiptStorage) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.fallbackStore = store
	}
}

// WithIdempotencyStore enables duplicate-submission detection keyed by the
// caller-supplied idempotency key
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithMaxReceiptSize overrides the receipt upload size limit in bytes
func WithMaxReceiptSize(limit int64) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.maxReceiptBytes = limit
	}
}

// WithSubmissionLogger sets the logger used for submission diagnostics
func WithSubmissionLogger(logger *zap.Logger) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.logger = logger
	}
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	dueRepo dues.DueRepository,
	paymentRepo dues.PaymentRepository,
	receiptStore ReceiptStorage,
	opts ...SubmissionServiceOption,
) *SubmissionService {
	s := &SubmissionService{
		dueRepo:         dueRepo,
		paymentRepo:     paymentRepo,
		receiptStore:    receiptStore,
		idempotencyTTL:  24 * time.Hour,
		maxReceiptBytes: 10 << 20,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitPaymentRequest represents a member's payment submission
type SubmitPaymentRequest struct {
	DueID            uuid.UUID       `json:"due_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	Receipt          *ReceiptUpload  `json:"-"`
	IdempotencyKey   string          `json:"-"`
}

// SubmitPayment records a pending payment against a due together with its
// uploaded receipt. The submission never mutates the due; crediting happens
// only when a reviewer approves. When the primary receipt store is down the
// upload falls through to the fallback store and the payment records which
// backend holds the file.
func (s *SubmissionService) SubmitPayment(ctx context.Context, req SubmitPaymentRequest, submittedBy uuid.UUID) (*PaymentResponse, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil {
		if existingID, err := s.idempotency.Lookup(ctx, req.IdempotencyKey); err == nil && existingID != "" {
			if id, parseErr := uuid.Parse(existingID); parseErr == nil {
				existing, findErr := s.paymentRepo.FindByID(ctx, id)
				if findErr == nil {
					s.logger.Info("returning existing payment for idempotency key",
						zap.String("payment_id", existingID))
					return toPaymentResponse(existing), nil
				}
			}
		}
	}

	due, err := s.dueRepo.FindByID(ctx, req.DueID)
	if err != nil {
		return nil, err
	}
	if due.PaymentStatus.IsSettled() {
		return nil, shared.NewDomainError("DUE_SETTLED", "Due is already fully paid")
	}
	if req.Amount.GreaterThan(due.Balance) {
		return nil, shared.ErrExceedsBalance
	}

	method := dues.PaymentMethod(req.PaymentMethod)
	payment, err := dues.NewPayment(req.DueID, due.PharmacyID, req.Amount, method, req.PaymentReference, submittedBy)
	if err != nil {
		return nil, err
	}

	if req.Receipt == nil {
		return nil, shared.NewDomainError("RECEIPT_REQUIRED", "A payment receipt must be uploaded")
	}
	stored, err := s.uploadReceipt(ctx, payment.ID, req.Receipt)
	if err != nil {
		return nil, err
	}
	payment.AttachReceipt(stored.URL, stored.Key, stored.Storage)

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.deleteReceipt(ctx, stored)
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if _, err := s.idempotency.Remember(ctx, req.IdempotencyKey, payment.ID.String(), s.idempotencyTTL); err != nil {
			s.logger.Warn("failed to record idempotency key",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("payment submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("due_id", req.DueID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("receipt_storage", string(stored.Storage)))
	return toPaymentResponse(payment), nil
}

// uploadReceipt validates the file and pushes it to the primary store, falling
// back to the degraded store when the primary is unreachable.
func (s *SubmissionService) uploadReceipt(ctx context.Context, paymentID uuid.UUID, upload *ReceiptUpload) (*StoredReceipt, error) {
	if !IsAllowedReceiptType(upload.ContentType) {
		return nil, shared.NewDomainError("INVALID_RECEIPT_TYPE",
			"Receipt must be a JPEG, PNG or PDF file")
	}
	if upload.Size > s.maxReceiptBytes {
		return nil, shared.NewDomainError("RECEIPT_TOO_LARGE",
			fmt.Sprintf("Receipt exceeds the %d MB upload limit", s.maxReceiptBytes>>20))
	}

	key := fmt.Sprintf("receipts/%s/%s%s",
		time.Now().Format("2006/01"), paymentID.String(), ReceiptExtension(upload.ContentType))

	url, err := s.receiptStore.Upload(ctx, key, upload.ContentType, upload.Content)
	if err == nil {
		return &StoredReceipt{URL: url, Key: key, Storage: s.receiptStore.Kind()}, nil
	}

	if s.fallbackStore == nil {
		return nil, shared.NewDomainError("RECEIPT_UPLOAD_FAILED", "Could not store the payment receipt")
	}

	s.logger.Warn("primary receipt store unavailable, using fallback",
		zap.String("key", key),
		zap.Error(err))
	url, fallbackErr := s.fallbackStore.Upload(ctx, key, upload.ContentType, upload.Content)
	if fallbackErr != nil {
		return nil, shared.NewDomainError("RECEIPT_UPLOAD_FAILED", "Could not store the payment receipt")
	}
	return &StoredReceipt{URL: url, Key: key, Storage: s.fallbackStore.Kind()}, nil
}

// deleteReceipt best-effort removes an orphaned upload after a failed create
func (s *SubmissionService) deleteReceipt(ctx context.Context, stored *StoredReceipt) {
	store := s.receiptStore
	if s.fallbackStore != nil && stored.Storage == s.fallbackStore.Kind() {
		store = s.fallbackStore
	}
	if err := store.Delete(ctx, stored.Key); err != nil {
		s.logger.Warn("failed to delete orphaned receipt",
			zap.String("key", stored.Key),
			zap.Error(err))
	}
}

// ReceiptDownloadURL returns a time-limited download link for a payment's receipt
func (s *SubmissionService) ReceiptDownloadURL(ctx context.Context, paymentID uuid.UUID) (string, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.ReceiptKey == "" {
		return "", shared.ErrNotFound
	}

	store := s.receiptStore
	if s.fallbackStore != nil && payment.ReceiptStorage == s.fallbackStore.Kind() {
		store = s.fallbackStore
	}
	return store.PresignDownload(ctx, payment.ReceiptKey, 15*time.Minute)
}
