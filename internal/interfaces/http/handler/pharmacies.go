package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	registryapp "github.com/pharmassoc/backend/internal/application/registry"
	"github.com/pharmassoc/backend/internal/domain/shared"
	"github.com/pharmassoc/backend/internal/interfaces/http/dto"
	"github.com/pharmassoc/backend/internal/interfaces/http/middleware"
)

// PharmaciesHandler handles pharmacy registry endpoints
type PharmaciesHandler struct {
	BaseHandler
	registration *registryapp.RegistrationService
}

// NewPharmaciesHandler creates a new PharmaciesHandler
func NewPharmaciesHandler(registration *registryapp.RegistrationService) *PharmaciesHandler {
	return &PharmaciesHandler{registration: registration}
}

// AssignOwnerRequest represents a request to link a pharmacy to a user account
type AssignOwnerRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Register enrolls a new member pharmacy. The registration number is drawn
// from a durable sequence so it stays unique even under concurrent
// registrations.
func (h *PharmaciesHandler) Register(c *gin.Context) {
	var req registryapp.RegisterPharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.registration.RegisterPharmacy(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Update changes a pharmacy's profile
func (h *PharmaciesHandler) Update(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req registryapp.UpdatePharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.registration.UpdatePharmacy(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssignOwner links a pharmacy to the user account that manages it
func (h *PharmaciesHandler) AssignOwner(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req AssignOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.registration.AssignOwner(c.Request.Context(), id, req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Suspend moves a pharmacy into the suspended state
func (h *PharmaciesHandler) Suspend(c *gin.Context) {
	h.transition(c, h.registration.SuspendPharmacy)
}

// Reactivate moves a suspended pharmacy back to active
func (h *PharmaciesHandler) Reactivate(c *gin.Context) {
	h.transition(c, h.registration.ReactivatePharmacy)
}

// Close permanently closes a pharmacy's membership
func (h *PharmaciesHandler) Close(c *gin.Context) {
	h.transition(c, h.registration.ClosePharmacy)
}

// Get returns a single pharmacy by id. Members can only see their own.
func (h *PharmaciesHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if claims := getClaims(c); claims != nil && !claims.CanActFor(id) {
		h.Forbidden(c, "Access to this pharmacy is not allowed")
		return
	}

	resp, err := h.registration.GetPharmacy(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByRegistrationNumber looks a pharmacy up by its registration number
func (h *PharmaciesHandler) GetByRegistrationNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "registration number is required")
		return
	}

	resp, err := h.registration.GetPharmacyByRegistrationNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if claims := getClaims(c); claims != nil && !claims.CanActFor(resp.ID) {
		h.Forbidden(c, "Access to this pharmacy is not allowed")
		return
	}

	h.Success(c, resp)
}

// List returns pharmacies matching the query filters
func (h *PharmaciesHandler) List(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.ApplyDefaults()

	filter := shared.Filter{
		Page:     list.Page,
		PageSize: list.PageSize,
		OrderBy:  list.OrderBy,
		OrderDir: list.OrderDir,
		Search:   list.Search,
	}

	resp, err := h.registration.ListPharmacies(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// transition runs a status transition handler against the :id pharmacy
func (h *PharmaciesHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID) (*registryapp.PharmacyResponse, error),
) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers all pharmacy routes
func (h *PharmaciesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pharmacies")
	{
		group.POST("", middleware.RequireAdmin(), h.Register)
		group.PUT("/:id", middleware.RequireAdmin(), h.Update)
		group.POST("/:id/owner", middleware.RequireAdmin(), h.AssignOwner)
		group.POST("/:id/suspend", middleware.RequireAdmin(), h.Suspend)
		group.POST("/:id/reactivate", middleware.RequireAdmin(), h.Reactivate)
		group.POST("/:id/close", middleware.RequireAdmin(), h.Close)
		group.GET("", middleware.RequireAdmin(), h.List)
		group.GET("/:id", h.Get)
		group.GET("/by-number/:number", h.GetByRegistrationNumber)
	}
}
