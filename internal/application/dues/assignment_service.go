package dues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/domain/registry"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxRecurringPeriods caps how many future periods one assignment generates
const maxRecurringPeriods = 12

// AssignmentService creates and maintains due obligations for pharmacies
type AssignmentService struct {
	dueRepo      dues.DueRepository
	dueTypeRepo  dues.DueTypeRepository
	pharmacyRepo registry.PharmacyRepository
	logger       *zap.Logger
}

// AssignmentServiceOption is a functional option for configuring AssignmentService
type AssignmentServiceOption func(*AssignmentService)

// WithAssignmentLogger sets the logger used for assignment diagnostics
func WithAssignmentLogger(logger *zap.Logger) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.logger = logger
	}
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	dueRepo dues.DueRepository,
	dueTypeRepo dues.DueTypeRepository,
	pharmacyRepo registry.PharmacyRepository,
	opts ...AssignmentServiceOption,
) *AssignmentService {
	s := &AssignmentService{
		dueRepo:      dueRepo,
		dueTypeRepo:  dueTypeRepo,
		pharmacyRepo: pharmacyRepo,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignDueRequest represents the data needed to assign a due to one pharmacy
type AssignDueRequest struct {
	PharmacyID         uuid.UUID       `json:"pharmacy_id" binding:"required"`
	DueTypeID          uuid.UUID       `json:"due_type_id" binding:"required"`
	Title              string          `json:"title" binding:"required"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	DueDate            time.Time       `json:"due_date" binding:"required"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency string          `json:"recurring_frequency"`
}

// AssignDueResponse reports the authoritative due plus any recurring periods generated
type AssignDueResponse struct {
	Due              *DueResponse  `json:"due"`
	RecurringCreated []DueResponse `json:"recurring_created,omitempty"`
}

// BulkAssignRequest represents a due assignment fanned out to many pharmacies.
// With no explicit PharmacyIDs the target set is every active pharmacy.
type BulkAssignRequest struct {
	PharmacyIDs []uuid.UUID     `json:"pharmacy_ids"`
	DueTypeID   uuid.UUID       `json:"due_type_id" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	DueDate     time.Time       `json:"due_date" binding:"required"`
}

// AssignmentFailure records one pharmacy that a bulk run could not assign
type AssignmentFailure struct {
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	Reason     string    `json:"reason"`
}

// BulkAssignResponse summarizes a bulk run: per-pharmacy failures never abort
// the rest of the batch.
type BulkAssignResponse struct {
	Assigned []DueResponse       `json:"assigned"`
	Failed   []AssignmentFailure `json:"failed,omitempty"`
}

// AssignIndividual creates or refreshes the due for one pharmacy's billing
// period. Re-assigning the same (pharmacy, due type, year) overwrites the
// assignment fields while keeping whatever has already been paid; the write is
// a single storage-level upsert so concurrent assignments cannot produce
// duplicate rows.
func (s *AssignmentService) AssignIndividual(ctx context.Context, req AssignDueRequest, assignedBy uuid.UUID) (*AssignDueResponse, error) {
	dueType, err := s.dueTypeRepo.FindByID(ctx, req.DueTypeID)
	if err != nil {
		return nil, err
	}
	if !dueType.IsActive {
		return nil, shared.NewDomainError("DUE_TYPE_INACTIVE", "Due type is no longer active")
	}

	pharmacy, err := s.pharmacyRepo.FindByID(ctx, req.PharmacyID)
	if err != nil {
		return nil, err
	}
	if !pharmacy.IsActive() {
		return nil, shared.NewDomainError("PHARMACY_INACTIVE", "Pharmacy is not an active member")
	}

	frequency := dues.RecurringFrequency(req.RecurringFrequency)
	if req.IsRecurring && !frequency.IsValid() {
		return nil, shared.NewDomainError("INVALID_FREQUENCY", "Recurring frequency is not valid")
	}

	due, err := dues.NewDue(req.PharmacyID, req.DueTypeID, req.Title, req.Description,
		req.Amount, req.DueDate, dues.AssignmentTypeIndividual, assignedBy)
	if err != nil {
		return nil, err
	}
	if req.IsRecurring {
		due.IsRecurring = true
		due.RecurringFrequency = frequency
	}

	saved, err := s.dueRepo.Upsert(ctx, due)
	if err != nil {
		return nil, err
	}

	resp := &AssignDueResponse{Due: toDueResponse(saved)}
	if req.IsRecurring {
		resp.RecurringCreated = s.generateRecurring(ctx, req, frequency, assignedBy)
	}
	return resp, nil
}

// generateRecurring creates the future periods of a recurring assignment by
// advancing the due date up to maxRecurringPeriods frequency steps. Dues are
// unique per (pharmacy, due type, year), so only the first step landing in a
// new calendar year creates a row; later steps inside a year already covered
// would merely rewrite that row and are skipped. A failed period is logged
// and skipped; the periods already created stand.
func (s *AssignmentService) generateRecurring(ctx context.Context, req AssignDueRequest, frequency dues.RecurringFrequency, assignedBy uuid.UUID) []DueResponse {
	var created []DueResponse

	covered := map[int]bool{req.DueDate.Year(): true}
	next := frequency.Advance(req.DueDate)
	for i := 0; i < maxRecurringPeriods; i++ {
		if covered[next.Year()] {
			next = frequency.Advance(next)
			continue
		}
		covered[next.Year()] = true

		due, err := dues.NewDue(req.PharmacyID, req.DueTypeID, req.Title, req.Description,
			req.Amount, next, dues.AssignmentTypeIndividual, assignedBy)
		if err != nil {
			s.logger.Warn("skipping recurring period",
				zap.String("pharmacy_id", req.PharmacyID.String()),
				zap.Time("due_date", next),
				zap.Error(err))
			next = frequency.Advance(next)
			continue
		}
		due.IsRecurring = true
		due.RecurringFrequency = frequency

		saved, err := s.dueRepo.Upsert(ctx, due)
		if err != nil {
			s.logger.Warn("failed to create recurring period",
				zap.String("pharmacy_id", req.PharmacyID.String()),
				zap.Time("due_date", next),
				zap.Error(err))
		} else {
			created = append(created, *toDueResponse(saved))
		}
		next = frequency.Advance(next)
	}
	return created
}

// AssignBulk fans one assignment out to many pharmacies. When PharmacyIDs is
// empty every active pharmacy is targeted. Each pharmacy is upserted
// independently; failures are accumulated and reported, never aborting the
// batch.
func (s *AssignmentService) AssignBulk(ctx context.Context, req BulkAssignRequest, assignedBy uuid.UUID) (*BulkAssignResponse, error) {
	dueType, err := s.dueTypeRepo.FindByID(ctx, req.DueTypeID)
	if err != nil {
		return nil, err
	}
	if !dueType.IsActive {
		return nil, shared.NewDomainError("DUE_TYPE_INACTIVE", "Due type is no longer active")
	}

	targets, missing, err := s.resolveTargets(ctx, req.PharmacyIDs)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 && len(missing) == 0 {
		return nil, shared.NewDomainError("NO_TARGETS", "No pharmacies to assign")
	}

	assignmentType := dues.AssignmentTypeBulk
	if len(req.PharmacyIDs) > 0 {
		assignmentType = dues.AssignmentTypeIndividual
	}

	resp := &BulkAssignResponse{}
	for _, pharmacyID := range missing {
		s.logger.Warn("bulk assignment skipped unknown pharmacy",
			zap.String("pharmacy_id", pharmacyID.String()))
		resp.Failed = append(resp.Failed, AssignmentFailure{
			PharmacyID: pharmacyID,
			Reason:     "pharmacy does not exist",
		})
	}
	for _, pharmacyID := range targets {
		due, err := dues.NewDue(pharmacyID, req.DueTypeID, req.Title, req.Description,
			req.Amount, req.DueDate, assignmentType, assignedBy)
		if err != nil {
			resp.Failed = append(resp.Failed, AssignmentFailure{PharmacyID: pharmacyID, Reason: err.Error()})
			continue
		}

		saved, err := s.dueRepo.Upsert(ctx, due)
		if err != nil {
			s.logger.Warn("bulk assignment failed for pharmacy",
				zap.String("pharmacy_id", pharmacyID.String()),
				zap.Error(err))
			resp.Failed = append(resp.Failed, AssignmentFailure{PharmacyID: pharmacyID, Reason: err.Error()})
			continue
		}
		resp.Assigned = append(resp.Assigned, *toDueResponse(saved))
	}

	s.logger.Info("bulk assignment completed",
		zap.String("due_type_id", req.DueTypeID.String()),
		zap.Int("assigned", len(resp.Assigned)),
		zap.Int("failed", len(resp.Failed)))
	return resp, nil
}

// resolveTargets returns the pharmacy ids a bulk run applies to, splitting an
// explicit list into the ids that exist and the ids that do not. Unknown ids
// become itemized failures, not a batch abort. An empty list means every
// active pharmacy.
func (s *AssignmentService) resolveTargets(ctx context.Context, ids []uuid.UUID) (targets, missing []uuid.UUID, err error) {
	if len(ids) == 0 {
		targets, err = s.pharmacyRepo.FindActiveIDs(ctx)
		return targets, nil, err
	}

	pharmacies, err := s.pharmacyRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	found := make(map[uuid.UUID]bool, len(pharmacies))
	for i := range pharmacies {
		found[pharmacies[i].ID] = true
	}
	for _, id := range ids {
		if found[id] {
			targets = append(targets, id)
		} else {
			missing = append(missing, id)
		}
	}
	return targets, missing, nil
}

// AddPenalty applies a surcharge to an existing due, raising its obligation
func (s *AssignmentService) AddPenalty(ctx context.Context, dueID uuid.UUID, amount decimal.Decimal, reason string, addedBy uuid.UUID) (*DueResponse, error) {
	due, err := s.dueRepo.FindByID(ctx, dueID)
	if err != nil {
		return nil, err
	}

	if err := due.AddPenalty(amount, reason, addedBy); err != nil {
		return nil, err
	}
	if err := s.dueRepo.SaveWithLock(ctx, due); err != nil {
		return nil, err
	}
	return toDueResponse(due), nil
}

// MarkOverdueDues flags every unsettled due past its date; intended to run on
// a schedule.
func (s *AssignmentService) MarkOverdueDues(ctx context.Context) (int64, error) {
	flagged, err := s.dueRepo.MarkOverdueBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if flagged > 0 {
		s.logger.Info("flagged overdue dues", zap.Int64("count", flagged))
	}
	return flagged, nil
}
