package dues

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReviewService is the back-office side of the payment workflow. Approval is
// the only code path that credits a due, and it runs inside one storage
// transaction so the payment transition and the credit commit together.
type ReviewService struct {
	uow          dues.UnitOfWork
	paymentRepo  dues.PaymentRepository
	dueRepo      dues.DueRepository
	receiptStore ReceiptStorage
	logger       *zap.Logger
}

// ReviewServiceOption is a functional option for configuring ReviewService
type ReviewServiceOption func(*ReviewService)

// WithReceiptCleanup sets the store used to delete receipts of deleted payments
func WithReceiptCleanup(store ReceiptStorage) ReviewServiceOption {
	return func(s *ReviewService) {
		s.receiptStore = store
	}
}

// WithReviewLogger sets the logger used for review diagnostics
func WithReviewLogger(logger *zap.Logger) ReviewServiceOption {
	return func(s *ReviewService) {
		s.logger = logger
	}
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	uow dues.UnitOfWork,
	paymentRepo dues.PaymentRepository,
	dueRepo dues.DueRepository,
	opts ...ReviewServiceOption,
) *ReviewService {
	s := &ReviewService{
		uow:         uow,
		paymentRepo: paymentRepo,
		dueRepo:     dueRepo,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApprovePayment approves a pending payment and credits its amount onto the
// due, atomically. The amount is re-validated against the live balance at
// approval time because the balance may have moved since submission. A
// concurrent reviewer loses the conditional update inside the transaction and
// gets ALREADY_REVIEWED, so a payment can never credit twice.
func (s *ReviewService) ApprovePayment(ctx context.Context, paymentID uuid.UUID, approvedBy uuid.UUID) (*PaymentResponse, error) {
	var approved *dues.Payment

	err := s.uow.Execute(ctx, func(dueRepo dues.DueRepository, paymentRepo dues.PaymentRepository) error {
		payment, err := paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := payment.Approve(approvedBy); err != nil {
			return err
		}

		due, err := dueRepo.FindByID(ctx, payment.DueID)
		if err != nil {
			return err
		}
		if payment.Amount.GreaterThan(due.Balance) {
			return shared.ErrExceedsBalance
		}
		if err := due.Credit(payment.Amount); err != nil {
			return err
		}

		if err := paymentRepo.TransitionFromPending(ctx, payment); err != nil {
			return err
		}
		if err := dueRepo.SaveWithLock(ctx, due); err != nil {
			return err
		}

		approved = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment approved",
		zap.String("payment_id", paymentID.String()),
		zap.String("due_id", approved.DueID.String()),
		zap.String("amount", approved.Amount.StringFixed(2)),
		zap.String("approved_by", approvedBy.String()))
	return toPaymentResponse(approved), nil
}

// RejectPayment rejects a pending payment with a reason. The due is untouched.
func (s *ReviewService) RejectPayment(ctx context.Context, paymentID uuid.UUID, reason string, reviewedBy uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.Reject(reason, reviewedBy); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.TransitionFromPending(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment rejected",
		zap.String("payment_id", paymentID.String()),
		zap.String("reason", reason))
	return toPaymentResponse(payment), nil
}

// DeletePayment removes a payment record. Deleting an approved payment
// reverses its credit on the due inside the same transaction, so the due's
// books stay consistent with the remaining payments.
func (s *ReviewService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	var receiptKey string
	var receiptKind dues.ReceiptStorageKind

	err := s.uow.Execute(ctx, func(dueRepo dues.DueRepository, paymentRepo dues.PaymentRepository) error {
		payment, err := paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		receiptKey = payment.ReceiptKey
		receiptKind = payment.ReceiptStorage

		if payment.IsApproved() {
			due, err := dueRepo.FindByID(ctx, payment.DueID)
			if err != nil {
				return err
			}
			if err := due.ReverseCredit(payment.Amount); err != nil {
				return err
			}
			if err := dueRepo.SaveWithLock(ctx, due); err != nil {
				return err
			}
		}

		return paymentRepo.Delete(ctx, paymentID)
	})
	if err != nil {
		return err
	}

	if s.receiptStore != nil && receiptKey != "" && receiptKind == s.receiptStore.Kind() {
		if err := s.receiptStore.Delete(ctx, receiptKey); err != nil {
			s.logger.Warn("failed to delete receipt of removed payment",
				zap.String("key", receiptKey),
				zap.Error(err))
		}
	}

	s.logger.Info("payment deleted", zap.String("payment_id", paymentID.String()))
	return nil
}

// MarkDuePaid settles a due administratively, outside the payment workflow
func (s *ReviewService) MarkDuePaid(ctx context.Context, dueID uuid.UUID) (*DueResponse, error) {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, err
	}
	if err := due.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.dueRepo.SaveWithLock(ctx, due); err != nil {
		return nil, err
	}

	s.logger.Info("due marked paid administratively", zap.String("due_id", dueID.String()))
	return toDueResponse(due), nil
}

// DeleteDue removes a due that no payment references and that has no money
// credited against it. Pending and rejected payment rows block the delete as
// much as approved ones; they are the pharmacy's submission history.
func (s *ReviewService) DeleteDue(ctx context.Context, dueID uuid.UUID) error {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return err
	}
	if due.HasPayments() {
		return shared.ErrHasPayments
	}
	referenced, err := s.paymentRepo.Count(ctx, dues.PaymentFilter{DueID: &due.ID})
	if err != nil {
		return err
	}
	if referenced > 0 {
		return shared.ErrHasPayments
	}
	return s.dueRepo.Delete(ctx, dueID)
}
