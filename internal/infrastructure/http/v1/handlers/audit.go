package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"partsync/internal/core/apperror"
	"partsync/internal/domain/audit"
	"partsync/internal/infrastructure/http/v1/dto"
	"partsync/internal/infrastructure/storage/postgres"
)

const entityAudit = "audit"

// AuditHandler handles inventory audit endpoints.
type AuditHandler struct {
	*BaseHandler
	service *audit.Service
	changes *postgres.ChangeLog
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, service *audit.Service, changes *postgres.ChangeLog) *AuditHandler {
	return &AuditHandler{BaseHandler: base, service: service, changes: changes}
}

// Create handles POST /audit.
func (h *AuditHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req audit.CreateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	record, err := h.service.Create(ctx, req, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(ctx, h.changes, entityAudit, record.ID, postgres.ChangeActionCreate, record)
	h.Created(c, record.ID.String())
}

// Get handles GET /audit/:id.
func (h *AuditHandler) Get(c *gin.Context) {
	auditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), auditID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, record)
}

// List handles GET /audit.
func (h *AuditHandler) List(c *gin.Context) {
	filter := audit.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, audit.Status(strings.TrimSpace(s)))
		}
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, records, len(records))
}

// Discrepancies handles GET /audit/:id/discrepancies.
func (h *AuditHandler) Discrepancies(c *gin.Context) {
	auditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	logs, err := h.service.Discrepancies(c.Request.Context(), auditID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OKList(c, logs, len(logs))
}

// Update handles PUT /audit/:id. Counts are recorded first, then the
// COMPLETED transition runs in the same request if asked for. Other
// target statuses are rejected: reverting goes through its own route.
func (h *AuditHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	auditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAuditRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if len(req.Counts) == 0 && req.Status == "" {
		h.Error(c, apperror.NewValidation("nothing to update"))
		return
	}

	if len(req.Counts) > 0 {
		record, err := h.service.RecordCounts(ctx, auditID, req.Counts)
		if err != nil {
			h.Error(c, err)
			return
		}
		recordChange(ctx, h.changes, entityAudit, auditID, postgres.ChangeActionUpdate, req.Counts)
		if req.Status == "" {
			h.OK(c, record)
			return
		}
	}

	if req.Status != audit.StatusCompleted {
		h.Error(c, apperror.NewValidation("unsupported status transition").
			WithDetail("status", req.Status))
		return
	}

	report, err := h.service.Complete(ctx, auditID, req.AdjustInventory, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(ctx, h.changes, entityAudit, auditID, postgres.ChangeActionComplete, report)
	h.OK(c, report)
}

// Revert handles POST /audit/:id/revert. Undoes the ledger adjustments
// of a completed audit with compensating movements.
func (h *AuditHandler) Revert(c *gin.Context) {
	auditID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	record, err := h.service.Revert(c.Request.Context(), auditID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	recordChange(c.Request.Context(), h.changes, entityAudit, auditID, postgres.ChangeActionRevert, record)
	h.OK(c, record)
}
