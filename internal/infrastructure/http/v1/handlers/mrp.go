package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/id"
	"partsync/internal/domain/mrp"
)

// MRPHandler exposes the netting engine: run it and browse the
// resulting order suggestions.
type MRPHandler struct {
	*BaseHandler
	engine *mrp.Engine
}

// NewMRPHandler creates a new MRP handler.
func NewMRPHandler(base *BaseHandler, engine *mrp.Engine) *MRPHandler {
	return &MRPHandler{BaseHandler: base, engine: engine}
}

// List handles GET /mrp.
func (h *MRPHandler) List(c *gin.Context) {
	filter := mrp.ResultFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("partId"); raw != "" {
		if partID, err := id.Parse(raw); err == nil {
			filter.PartID = &partID
		}
	}
	if raw := c.Query("salesOrderId"); raw != "" {
		if soID, err := id.Parse(raw); err == nil {
			filter.SalesOrderID = &soID
		}
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, mrp.ResultStatus(strings.TrimSpace(s)))
		}
	}
	if raw := c.Query("urgency"); raw != "" {
		for _, u := range strings.Split(raw, ",") {
			filter.Urgency = append(filter.Urgency, mrp.Urgency(strings.TrimSpace(u)))
		}
	}

	results, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, results, len(results))
}

// Run handles POST /mrp/run. Full aggregate recomputation: all open
// sales order demand plus reorder-point triggers.
func (h *MRPHandler) Run(c *gin.Context) {
	summary, err := h.engine.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// RunForSalesOrder handles POST /mrp/run/sales-order/:id.
func (h *MRPHandler) RunForSalesOrder(c *gin.Context) {
	salesOrderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.engine.RunForSalesOrder(c.Request.Context(), salesOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}
