package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/interfaces/http/dto"
	"github.com/pharmassoc/backend/internal/interfaces/http/middleware"
)

// DuesHandler handles due assignment and query endpoints
type DuesHandler struct {
	BaseHandler
	assignment *duesapp.AssignmentService
	review     *duesapp.ReviewService
	query      *duesapp.QueryService
}

// NewDuesHandler creates a new DuesHandler
func NewDuesHandler(
	assignment *duesapp.AssignmentService,
	review *duesapp.ReviewService,
	query *duesapp.QueryService,
) *DuesHandler {
	return &DuesHandler{
		assignment: assignment,
		review:     review,
		query:      query,
	}
}

// AddPenaltyRequest represents a request to add a penalty to a due
type AddPenaltyRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required,min=1,max=500"`
}

// Assign creates or refreshes a due for a single pharmacy
func (h *DuesHandler) Assign(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req duesapp.AssignDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.assignment.AssignIndividual(c.Request.Context(), req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// AssignBulk fans a due assignment out to many pharmacies
func (h *DuesHandler) AssignBulk(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req duesapp.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.assignment.AssignBulk(c.Request.Context(), req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns dues matching the query filters. Member tokens only see the
// dues of their own pharmacy regardless of the filters they send.
func (h *DuesHandler) List(c *gin.Context) {
	filter, err := h.buildFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if claims := getClaims(c); claims != nil && !claims.IsAdmin() {
		pharmacyID, err := claims.GetPharmacyUUID()
		if err != nil || pharmacyID == uuid.Nil {
			h.Forbidden(c, "Membership token is not linked to a pharmacy")
			return
		}
		filter.PharmacyID = &pharmacyID
	}

	resp, err := h.query.ListDues(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// Get returns a single due by id
func (h *DuesHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.query.GetDue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if claims := getClaims(c); claims != nil && !claims.CanActFor(resp.PharmacyID) {
		h.Forbidden(c, "Access to this due is not allowed")
		return
	}

	h.Success(c, resp)
}

// Payments returns every payment recorded against a due
func (h *DuesHandler) Payments(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	due, err := h.query.GetDue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if claims := getClaims(c); claims != nil && !claims.CanActFor(due.PharmacyID) {
		h.Forbidden(c, "Access to this due is not allowed")
		return
	}

	payments, err := h.query.PaymentsForDue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// Summary returns aggregate collection figures across all dues
func (h *DuesHandler) Summary(c *gin.Context) {
	summary, err := h.query.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// AddPenalty adds a penalty surcharge to an unsettled due
func (h *DuesHandler) AddPenalty(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AddPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.assignment.AddPenalty(c.Request.Context(), id, req.Amount, req.Reason, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkPaid settles a due in full outside the payment flow
func (h *DuesHandler) MarkPaid(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.review.MarkDuePaid(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a due that has no payments recorded against it
func (h *DuesHandler) Delete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.review.DeleteDue(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// buildFilter assembles a DueFilter from query parameters
func (h *DuesHandler) buildFilter(c *gin.Context) (dues.DueFilter, error) {
	var filter dues.DueFilter

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		return filter, err
	}
	list.ApplyDefaults()

	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		return filter, err
	}
	dueTypeID, err := queryUUID(c, "due_type_id")
	if err != nil {
		return filter, err
	}
	year, err := queryInt(c, "year")
	if err != nil {
		return filter, err
	}
	overdue, err := queryBool(c, "overdue")
	if err != nil {
		return filter, err
	}

	filter = dues.DueFilter{
		PharmacyID: pharmacyID,
		DueTypeID:  dueTypeID,
		Year:       year,
		Overdue:    overdue,
		Search:     list.Search,
		Page:       list.Page,
		PageSize:   list.PageSize,
		OrderBy:    list.OrderBy,
		OrderDir:   list.OrderDir,
	}

	if raw := c.Query("status"); raw != "" {
		status := dues.PaymentStatus(raw)
		if !status.IsValid() {
			return filter, errInvalidStatus
		}
		filter.Status = &status
	}

	return filter, nil
}

// RegisterRoutes registers all due routes
func (h *DuesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/dues")
	{
		group.POST("", middleware.RequireAdmin(), h.Assign)
		group.POST("/bulk", middleware.RequireAdmin(), h.AssignBulk)
		group.GET("", h.List)
		group.GET("/summary", middleware.RequireAdmin(), h.Summary)
		group.GET("/:id", h.Get)
		group.GET("/:id/payments", h.Payments)
		group.POST("/:id/penalties", middleware.RequireAdmin(), h.AddPenalty)
		group.POST("/:id/mark-paid", middleware.RequireAdmin(), h.MarkPaid)
		group.DELETE("/:id", middleware.RequireAdmin(), h.Delete)
	}
}
