package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/id"
	"partsync/internal/domain/mrp"
	"partsync/internal/domain/purchase"
	"partsync/internal/infrastructure/http/v1/dto"
	"partsync/internal/infrastructure/storage/postgres"
	"partsync/pkg/logger"
)

const entityPurchaseOrder = "purchase_order"

// OrderHandler handles purchase order endpoints, including MRP
// consolidation and goods receipt.
type OrderHandler struct {
	*BaseHandler
	service      *purchase.Service
	consolidator *mrp.Consolidator
	changes      *postgres.ChangeLog
}

// NewOrderHandler creates a new purchase order handler.
func NewOrderHandler(base *BaseHandler, service *purchase.Service, consolidator *mrp.Consolidator, changes *postgres.ChangeLog) *OrderHandler {
	return &OrderHandler{
		BaseHandler:  base,
		service:      service,
		consolidator: consolidator,
		changes:      changes,
	}
}

// recordChange writes a change-history entry after a successful
// mutation. Failures are logged, never surfaced: history must not
// break the business operation it describes.
func recordChange(ctx context.Context, changes *postgres.ChangeLog, entityType string, entityID id.ID, action postgres.ChangeAction, payload any) {
	if changes == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn(ctx, "marshal change payload", "entity_type", entityType, "error", err)
		return
	}
	if err := changes.Record(ctx, postgres.ChangeEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    raw,
	}); err != nil {
		logger.Warn(ctx, "record change entry", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.Create(ctx, req.ToEntity(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(ctx, h.changes, entityPurchaseOrder, order.ID, postgres.ChangeActionCreate, order)
	h.Created(c, order.ID.String())
}

// FromMRP handles POST /orders/from-mrp. Consolidates accepted MRP
// suggestions into per-supplier purchase orders.
func (h *OrderHandler) FromMRP(c *gin.Context) {
	ctx := c.Request.Context()

	var req mrp.ConsolidateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Performer = h.GetUserID(c)

	outcome, err := h.consolidator.Consolidate(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	for i := range outcome.PurchaseOrders {
		o := &outcome.PurchaseOrders[i]
		recordChange(ctx, h.changes, entityPurchaseOrder, o.ID, postgres.ChangeActionCreate, o)
	}
	h.OK(c, outcome)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter := purchase.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("supplierId"); raw != "" {
		if supplierID, err := id.Parse(raw); err == nil {
			filter.SupplierID = &supplierID
		}
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, purchase.Status(strings.TrimSpace(s)))
		}
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

	orders, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, orders, len(orders))
}

// Issue handles POST /orders/:id/issue. Draft to ORDERED.
func (h *OrderHandler) Issue(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Issue(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(c.Request.Context(), h.changes, entityPurchaseOrder, order.ID, postgres.ChangeActionUpdate, order)
	h.OK(c, order)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	recordChange(c.Request.Context(), h.changes, entityPurchaseOrder, orderID, postgres.ChangeActionUpdate,
		map[string]string{"status": string(purchase.StatusCancelled)})
	h.OK(c, dto.SuccessResponse{Success: true})
}

// Receive handles POST /orders/:id/receive. Goods receipt at the dock:
// INBOUND ledger movements plus item status derivation.
func (h *OrderHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.Receive(ctx, orderID, req.ToLines(), h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(ctx, h.changes, entityPurchaseOrder, order.ID, postgres.ChangeActionUpdate, order)
	h.OK(c, order)
}
