package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/ledger"
	"partsync/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles warehouse-wide inventory endpoints.
type InventoryHandler struct {
	*BaseHandler
	stock *ledger.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, stock *ledger.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		stock:       stock,
	}
}

// List handles GET /inventory. Current quantities of all tracked parts.
func (h *InventoryHandler) List(c *gin.Context) {
	snapshot, err := h.stock.Snapshot(c.Request.Context(), nil)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]ledger.Inventory, 0, len(snapshot))
	for _, inv := range snapshot {
		items = append(items, inv)
	}
	h.OKList(c, items, len(items))
}

// Movement handles POST /inventory/movements. Manual stock mutation,
// recorded in the ledger with a MANUAL reference.
func (h *InventoryHandler) Movement(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movementType := ledger.MovementType(req.Type)
	switch movementType {
	case ledger.MovementInbound, ledger.MovementOutbound, ledger.MovementAdjustment:
	default:
		h.Error(c, apperror.NewValidation("unknown movement type").WithDetail("type", req.Type))
		return
	}

	txn, err := h.stock.ApplyMovement(ctx, ledger.Movement{
		PartID:    req.PartID,
		Type:      movementType,
		Quantity:  req.Quantity,
		Reference: ledger.Reference{Type: ledger.RefManual, ID: id.New()},
		Reason:    req.Reason,
		Performer: h.GetUserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, txn)
}

// Reserve handles POST /inventory/reservations. Moves available stock
// into the reserved counter without a ledger movement.
func (h *InventoryHandler) Reserve(c *gin.Context) {
	h.adjustReservation(c, h.stock.Reserve)
}

// Release handles POST /inventory/reservations/release.
func (h *InventoryHandler) Release(c *gin.Context) {
	h.adjustReservation(c, h.stock.Release)
}

func (h *InventoryHandler) adjustReservation(c *gin.Context, fn func(ctx context.Context, partID id.ID, qty types.Quantity) error) {
	var req dto.ReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !req.Quantity.IsPositive() {
		h.Error(c, apperror.NewValidation("quantity must be positive"))
		return
	}

	if err := fn(c.Request.Context(), req.PartID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.stock.GetStock(c.Request.Context(), req.PartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}
