package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/types"
	"partsync/internal/domain/picking"
)

// PickingHandler handles picking task endpoints.
type PickingHandler struct {
	*BaseHandler
	service *picking.Service
}

// NewPickingHandler creates a new picking handler.
func NewPickingHandler(base *BaseHandler, service *picking.Service) *PickingHandler {
	return &PickingHandler{BaseHandler: base, service: service}
}

// CreateFromSalesOrder handles POST /picking/from-sales-order/:id.
// Explodes the sales order through BOMs into a location-sorted route.
func (h *PickingHandler) CreateFromSalesOrder(c *gin.Context) {
	salesOrderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	task, err := h.service.CreateFromSalesOrder(c.Request.Context(), salesOrderID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, task.ID.String())
}

// Get handles GET /picking/:id.
func (h *PickingHandler) Get(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	task, err := h.service.GetByID(c.Request.Context(), taskID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, task)
}

// List handles GET /picking.
func (h *PickingHandler) List(c *gin.Context) {
	filter := picking.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, picking.TaskStatus(strings.TrimSpace(s)))
		}
	}

	tasks, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, tasks, len(tasks))
}

type pickItemRequest struct {
	Quantity types.Quantity `json:"quantity"`
}

// PickItem handles POST /picking/:id/items/:itemId/pick. An omitted or
// zero quantity picks the full required amount.
func (h *PickingHandler) PickItem(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	var req pickItemRequest
	if c.Request.ContentLength > 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	task, err := h.service.PickItem(c.Request.Context(), taskID, itemID, req.Quantity, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, task)
}

// SkipItem handles POST /picking/:id/items/:itemId/skip.
func (h *PickingHandler) SkipItem(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	task, err := h.service.SkipItem(c.Request.Context(), taskID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, task)
}

// Revert handles POST /picking/:id/revert. Compensates every pick
// movement and reopens the task.
func (h *PickingHandler) Revert(c *gin.Context) {
	taskID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	task, err := h.service.Revert(c.Request.Context(), taskID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, task)
}
