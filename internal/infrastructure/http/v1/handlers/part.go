package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/id"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/ledger"
	"partsync/internal/infrastructure/http/v1/dto"
)

// PartHandler handles part catalog endpoints plus the part-scoped
// inventory reads.
type PartHandler struct {
	*BaseHandler
	service *part.Service
	stock   *ledger.Service
}

// NewPartHandler creates a new part handler.
func NewPartHandler(base *BaseHandler, service *part.Service, stock *ledger.Service) *PartHandler {
	return &PartHandler{
		BaseHandler: base,
		service:     service,
		stock:       stock,
	}
}

// Create handles POST /parts.
func (h *PartHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePartRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// Get handles GET /parts/:id.
func (h *PartHandler) Get(c *gin.Context) {
	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// List handles GET /parts.
func (h *PartHandler) List(c *gin.Context) {
	filter := part.Filter{
		ActiveOnly: c.Query("activeOnly") == "true",
		Search:     c.Query("search"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("supplierId"); raw != "" {
		supplierID, err := id.Parse(raw)
		if err == nil {
			filter.SupplierID = &supplierID
		}
	}

	parts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, parts, len(parts))
}

// Update handles PUT /parts/:id.
func (h *PartHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePartRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(ctx, partID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(p)
	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Deactivate handles DELETE /parts/:id. Soft delete.
func (h *PartHandler) Deactivate(c *gin.Context) {
	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), partID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Stock handles GET /parts/:id/stock.
func (h *PartHandler) Stock(c *gin.Context) {
	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.stock.GetStock(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Transactions handles GET /parts/:id/transactions.
func (h *PartHandler) Transactions(c *gin.Context) {
	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := ledger.TransactionFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("type"); raw != "" {
		mt := ledger.MovementType(raw)
		filter.Type = &mt
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.FromDate = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ToDate = &t
		}
	}

	txns, err := h.stock.History(c.Request.Context(), partID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, txns, len(txns))
}
