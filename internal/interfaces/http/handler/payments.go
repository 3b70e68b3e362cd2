package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/domain/dues"
	"github.com/pharmassoc/backend/internal/interfaces/http/dto"
	"github.com/pharmassoc/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the client-chosen key that makes payment
// submission retries safe.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentsHandler handles payment submission and review endpoints
type PaymentsHandler struct {
	BaseHandler
	submission *duesapp.SubmissionService
	review     *duesapp.ReviewService
	query      *duesapp.QueryService
}

// NewPaymentsHandler creates a new PaymentsHandler
func NewPaymentsHandler(
	submission *duesapp.SubmissionService,
	review *duesapp.ReviewService,
	query *duesapp.QueryService,
) *PaymentsHandler {
	return &PaymentsHandler{
		submission: submission,
		review:     review,
		query:      query,
	}
}

// RejectPaymentRequest represents a request to reject a pending payment
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ReceiptURLResponse carries a time-limited receipt download link
type ReceiptURLResponse struct {
	URL string `json:"url"`
}

// Submit records a pending payment against a due. The request is multipart:
// form fields carry the payment data and the receipt file rides alongside
// under the "receipt" field. Retries should resend the same Idempotency-Key
// header.
func (h *PaymentsHandler) Submit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	dueID, err := uuid.Parse(c.PostForm("due_id"))
	if err != nil {
		h.BadRequest(c, "invalid due_id field")
		return
	}

	amount, err := formDecimal(c, "amount")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	method := c.PostForm("payment_method")
	if method == "" {
		h.BadRequest(c, "payment_method is required")
		return
	}

	// Members may only pay the dues of their own pharmacy
	if claims := getClaims(c); claims != nil && !claims.IsAdmin() {
		due, err := h.query.GetDue(c.Request.Context(), dueID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		if !claims.CanActFor(due.PharmacyID) {
			h.Forbidden(c, "Access to this due is not allowed")
			return
		}
	}

	req := duesapp.SubmitPaymentRequest{
		DueID:            dueID,
		Amount:           amount,
		PaymentMethod:    method,
		PaymentReference: c.PostForm("payment_reference"),
		IdempotencyKey:   c.GetHeader(IdempotencyKeyHeader),
	}

	fileHeader, err := c.FormFile("receipt")
	if err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			h.BadRequest(c, "could not read receipt file")
			return
		}
		defer file.Close()

		req.Receipt = &duesapp.ReceiptUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Content:     file,
		}
	}

	resp, err := h.submission.SubmitPayment(c.Request.Context(), req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns payments matching the query filters. Member tokens only see
// payments belonging to their own pharmacy.
func (h *PaymentsHandler) List(c *gin.Context) {
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

	resp, err := h.query.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// Get returns a single payment by id
func (h *PaymentsHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.query.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if claims := getClaims(c); claims != nil && !claims.CanActFor(resp.PharmacyID) {
		h.Forbidden(c, "Access to this payment is not allowed")
		return
	}

	h.Success(c, resp)
}

// ReceiptURL returns a time-limited download link for a payment's receipt
func (h *PaymentsHandler) ReceiptURL(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.query.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if claims := getClaims(c); claims != nil && !claims.CanActFor(payment.PharmacyID) {
		h.Forbidden(c, "Access to this payment is not allowed")
		return
	}

	url, err := h.submission.ReceiptDownloadURL(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReceiptURLResponse{URL: url})
}

// Approve credits an approved payment against its due. Approving the same
// payment twice fails with a conflict rather than double-crediting.
func (h *PaymentsHandler) Approve(c *gin.Context) {
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

	resp, err := h.review.ApprovePayment(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reject declines a pending payment without touching the due
func (h *PaymentsHandler) Reject(c *gin.Context) {
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

	var req RejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.review.RejectPayment(c.Request.Context(), id, req.Reason, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a payment. Deleting an approved payment reverses its credit
// on the due first.
func (h *PaymentsHandler) Delete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.review.DeletePayment(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// buildFilter assembles a PaymentFilter from query parameters
func (h *PaymentsHandler) buildFilter(c *gin.Context) (dues.PaymentFilter, error) {
	var filter dues.PaymentFilter

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		return filter, err
	}
	list.ApplyDefaults()

	dueID, err := queryUUID(c, "due_id")
	if err != nil {
		return filter, err
	}
	pharmacyID, err := queryUUID(c, "pharmacy_id")
	if err != nil {
		return filter, err
	}

	filter = dues.PaymentFilter{
		DueID:      dueID,
		PharmacyID: pharmacyID,
		Page:       list.Page,
		PageSize:   list.PageSize,
		OrderBy:    list.OrderBy,
		OrderDir:   list.OrderDir,
	}

	if raw := c.Query("status"); raw != "" {
		status := dues.ApprovalStatus(raw)
		if !status.IsValid() {
			return filter, errInvalidStatus
		}
		filter.Status = &status
	}

	return filter, nil
}

// RegisterRoutes registers all payment routes
func (h *PaymentsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/payments")
	{
		group.POST("", h.Submit)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/receipt", h.ReceiptURL)
		group.POST("/:id/approve", middleware.RequireAdmin(), h.Approve)
		group.POST("/:id/reject", middleware.RequireAdmin(), h.Reject)
		group.DELETE("/:id", middleware.RequireAdmin(), h.Delete)
	}
}
