package dues

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
)

// QueryService serves read-only views over dues and payments
type QueryService struct {
	dueRepo     dues.DueRepository
	paymentRepo dues.PaymentRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(dueRepo dues.DueRepository, paymentRepo dues.PaymentRepository) *QueryService {
	return &QueryService{
		dueRepo:     dueRepo,
		paymentRepo: paymentRepo,
	}
}

// DueListResponse is a paginated list of dues
type DueListResponse struct {
	Items    []DueResponse `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// PaymentListResponse is a paginated list of payments
type PaymentListResponse struct {
	Items    []PaymentResponse `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// GetDue returns one due by id
func (s *QueryService) GetDue(ctx context.Context, id uuid.UUID) (*DueResponse, error) {
	due, err := s.dueRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDueResponse(due), nil
}

// ListDues returns dues matching the filter, with the total count for paging
func (s *QueryService) ListDues(ctx context.Context, filter dues.DueFilter) (*DueListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, err := s.dueRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.dueRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &DueListResponse{
		Items:    toDueResponses(items),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GetPayment returns one payment by id, with its due attached for context
func (s *QueryService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(payment)

	if due, err := s.dueRepo.FindByID(ctx, payment.DueID); err == nil {
		resp.Due = toDueResponse(due)
	}
	return resp, nil
}

// ListPayments returns payments matching the filter, with the total count
func (s *QueryService) ListPayments(ctx context.Context, filter dues.PaymentFilter) (*PaymentListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &PaymentListResponse{
		Items:    toPaymentResponses(items),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// PaymentsForDue returns the full payment history of one due
func (s *QueryService) PaymentsForDue(ctx context.Context, dueID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.dueRepo.FindByID(ctx, dueID); err != nil {
		return nil, err
	}
	items, err := s.paymentRepo.FindByDue(ctx, dueID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponses(items), nil
}

// Summary returns collection totals across all dues
func (s *QueryService) Summary(ctx context.Context) (*dues.DueSummary, error) {
	return s.dueRepo.Summary(ctx)
}
