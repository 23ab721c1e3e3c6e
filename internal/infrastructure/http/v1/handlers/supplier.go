package handlers

import (
	"github.com/gin-gonic/gin"

	"partsync/internal/domain/catalogs/supplier"
	"partsync/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles supplier catalog endpoints.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s.ID.String())
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.service.List(c.Request.Context(), c.Query("activeOnly") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, suppliers, len(suppliers))
}

// Update handles PUT /suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.GetByID(ctx, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(s)
	if err := h.service.Update(ctx, s); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}
