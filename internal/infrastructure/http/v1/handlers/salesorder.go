package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"partsync/internal/domain/salesorder"
	"partsync/internal/infrastructure/http/v1/dto"
)

// SalesOrderHandler handles sales order endpoints.
type SalesOrderHandler struct {
	*BaseHandler
	service *salesorder.Service
}

// NewSalesOrderHandler creates a new sales order handler.
func NewSalesOrderHandler(base *BaseHandler, service *salesorder.Service) *SalesOrderHandler {
	return &SalesOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /sales-orders.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o.ID.String())
}

// Get handles GET /sales-orders/:id.
func (h *SalesOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// List handles GET /sales-orders. Comma-separated status filter.
func (h *SalesOrderHandler) List(c *gin.Context) {
	var statuses []salesorder.Status
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, salesorder.Status(strings.TrimSpace(s)))
		}
	}

	orders, err := h.service.List(c.Request.Context(), statuses)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, orders, len(orders))
}

// SetStatus handles PUT /sales-orders/:id/status.
func (h *SalesOrderHandler) SetStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), orderID, salesorder.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SuccessResponse{Success: true})
}
