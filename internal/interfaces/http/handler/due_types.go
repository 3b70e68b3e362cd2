package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	duesapp "github.com/pharmassoc/backend/internal/application/dues"
	"github.com/pharmassoc/backend/internal/interfaces/http/middleware"
)

// DueTypesHandler handles due type catalog endpoints
type DueTypesHandler struct {
	BaseHandler
	dueTypes *duesapp.DueTypeService
}

// NewDueTypesHandler creates a new DueTypesHandler
func NewDueTypesHandler(dueTypes *duesapp.DueTypeService) *DueTypesHandler {
	return &DueTypesHandler{dueTypes: dueTypes}
}

// Create adds a new due type to the catalog
func (h *DueTypesHandler) Create(c *gin.Context) {
	var req duesapp.DueTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dueTypes.CreateDueType(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Update changes a due type's profile
func (h *DueTypesHandler) Update(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req duesapp.DueTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dueTypes.UpdateDueType(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deactivate retires a due type so it cannot back new assignments
func (h *DueTypesHandler) Deactivate(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.dueTypes.DeactivateDueType(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Get returns a single due type by id
func (h *DueTypesHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dueTypes.GetDueType(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns the due type catalog. Pass active_only=true to hide retired
// types.
func (h *DueTypesHandler) List(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "invalid active_only parameter")
			return
		}
		activeOnly = v
	}

	resp, err := h.dueTypes.ListDueTypes(c.Request.Context(), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers all due type routes
func (h *DueTypesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/due-types")
	{
		group.POST("", middleware.RequireAdmin(), h.Create)
		group.PUT("/:id", middleware.RequireAdmin(), h.Update)
		group.DELETE("/:id", middleware.RequireAdmin(), h.Deactivate)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}
}
