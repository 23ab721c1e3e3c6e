package mrp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/tx"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/catalogs/supplier"
	"partsync/internal/domain/purchase"
	"partsync/pkg/logger"
)

// projectNone is the grouping sentinel for items without a project.
const projectNone = "none"

// SupplierCatalog is the read-only supplier lookup consolidation needs.
type SupplierCatalog interface {
	Lookup(ctx context.Context, supplierIDs []id.ID) (map[id.ID]supplier.Supplier, error)
}

// ProjectSource resolves a sales order's project name for grouping.
type ProjectSource interface {
	ProjectName(ctx context.Context, salesOrderID id.ID) (string, error)
}

// OrderCreator creates purchase orders from consolidated selections.
type OrderCreator interface {
	Create(ctx context.Context, order *purchase.Order) (*purchase.Order, error)
}

// SelectionItem is one accepted suggestion, possibly with a
// human-adjusted quantity.
type SelectionItem struct {
	PartID       id.ID          `json:"partId" binding:"required"`
	OrderQty     types.Quantity `json:"orderQty" binding:"required"`
	SalesOrderID *id.ID         `json:"salesOrderId,omitempty"`
	ResultID     *id.ID         `json:"resultId,omitempty"`
}

// ConsolidateRequest carries the selection plus order options.
type ConsolidateRequest struct {
	Items        []SelectionItem `json:"items" binding:"required"`
	SalesOrderID *id.ID          `json:"salesOrderId,omitempty"`
	SkipDraft    bool            `json:"skipDraft"`
	OrderDate    *time.Time      `json:"orderDate,omitempty"`
	ExpectedDate *time.Time      `json:"expectedDate,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Performer    string          `json:"-"`
}

// GroupFailure reports one supplier group that could not be ordered.
type GroupFailure struct {
	SupplierID id.ID  `json:"supplierId"`
	ProjectKey string `json:"projectKey"`
	Error      string `json:"error"`
}

// ConsolidationOutcome lists created orders and failed groups.
type ConsolidationOutcome struct {
	PurchaseOrders []purchase.Order `json:"purchaseOrders"`
	TotalOrders    int              `json:"totalOrders"`
	TotalItems     int              `json:"totalItems"`
	TotalAmount    types.Money      `json:"totalAmount"`
	Failed         []GroupFailure   `json:"failed,omitempty"`
}

// Consolidator groups accepted suggestions into supplier purchase orders.
type Consolidator struct {
	parts     PartCatalog
	suppliers SupplierCatalog
	projects  ProjectSource
	orders    OrderCreator
	results   ResultRepository
	txManager tx.Manager
}

// NewConsolidator creates an order consolidator.
func NewConsolidator(
	parts PartCatalog,
	suppliers SupplierCatalog,
	projects ProjectSource,
	orders OrderCreator,
	results ResultRepository,
	txManager tx.Manager,
) *Consolidator {
	return &Consolidator{
		parts:     parts,
		suppliers: suppliers,
		projects:  projects,
		orders:    orders,
		results:   results,
		txManager: txManager,
	}
}

type groupKey struct {
	supplierID id.ID
	projectKey string
}

type group struct {
	key       groupKey
	items     []SelectionItem
	resultIDs []id.ID
}

// Consolidate groups the selection by (supplier, project) and creates
// one purchase order per group. Missing suppliers fail the whole call
// before anything is created; after that each group commits on its own,
// so a failure on one supplier does not revert orders already created
// for others.
func (c *Consolidator) Consolidate(ctx context.Context, req ConsolidateRequest) (*ConsolidationOutcome, error) {
	if len(req.Items) == 0 {
		return nil, apperror.NewValidation("selection needs at least one item")
	}
	for i, item := range req.Items {
		if !item.OrderQty.IsPositive() {
			return nil, apperror.NewValidation("order quantity must be positive").
				WithDetail("line", i+1)
		}
	}

	items, err := c.dropConsumed(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		// Everything selected was already ordered; re-running is a no-op.
		return &ConsolidationOutcome{TotalAmount: types.Money{}}, nil
	}

	partIDs := make([]id.ID, 0, len(items))
	for _, item := range items {
		partIDs = append(partIDs, item.PartID)
	}
	parts, err := c.parts.Lookup(ctx, partIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup parts: %w", err)
	}

	// Hard precondition: every selected part must have a supplier.
	supplierIDs := make([]id.ID, 0, len(parts))
	for _, item := range items {
		p, ok := parts[item.PartID]
		if !ok {
			return nil, apperror.NewNotFound("part", item.PartID)
		}
		if p.SupplierID == nil || id.IsNil(*p.SupplierID) {
			return nil, apperror.NewMissingSupplier(p.ID.String(), p.Code)
		}
		supplierIDs = append(supplierIDs, *p.SupplierID)
	}
	suppliers, err := c.suppliers.Lookup(ctx, supplierIDs)
	if err != nil {
		return nil, fmt.Errorf("lookup suppliers: %w", err)
	}

	groups, err := c.buildGroups(ctx, req, items, parts)
	if err != nil {
		return nil, err
	}

	orderDate := time.Now().UTC()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	outcome := &ConsolidationOutcome{TotalAmount: types.Money{}}
	for _, g := range groups {
		order, err := c.createGroupOrder(ctx, req, g, parts, suppliers[g.key.supplierID], orderDate)
		if err != nil {
			logger.Warn(ctx, "consolidation group failed",
				"supplier_id", g.key.supplierID, "project", g.key.projectKey, "error", err)
			outcome.Failed = append(outcome.Failed, GroupFailure{
				SupplierID: g.key.supplierID,
				ProjectKey: g.key.projectKey,
				Error:      err.Error(),
			})
			continue
		}
		outcome.PurchaseOrders = append(outcome.PurchaseOrders, *order)
		outcome.TotalOrders++
		outcome.TotalItems += len(order.Items)
		outcome.TotalAmount = outcome.TotalAmount.Add(order.TotalAmount)
	}

	return outcome, nil
}

// dropConsumed removes items whose MrpResult is already ORDERED.
// Re-running consolidation on a consumed result is a no-op, never a
// duplicate order.
func (c *Consolidator) dropConsumed(ctx context.Context, items []SelectionItem) ([]SelectionItem, error) {
	var resultIDs []id.ID
	for _, item := range items {
		if item.ResultID != nil {
			resultIDs = append(resultIDs, *item.ResultID)
		}
	}
	if len(resultIDs) == 0 {
		return items, nil
	}

	results, err := c.results.GetByIDs(ctx, resultIDs)
	if err != nil {
		return nil, fmt.Errorf("load mrp results: %w", err)
	}
	consumed := make(map[id.ID]bool)
	for _, r := range results {
		if r.Status == ResultOrdered {
			consumed[r.ID] = true
		}
	}

	kept := items[:0:0]
	for _, item := range items {
		if item.ResultID != nil && consumed[*item.ResultID] {
			continue
		}
		kept = append(kept, item)
	}
	return kept, nil
}

// buildGroups partitions the selection by (supplier, project). The
// project key comes from the item's sales order, falling back to the
// request-level sales order, then to the "none" sentinel.
func (c *Consolidator) buildGroups(ctx context.Context, req ConsolidateRequest, items []SelectionItem, parts map[id.ID]part.Part) ([]group, error) {
	projectCache := make(map[id.ID]string)
	resolveProject := func(salesOrderID *id.ID) (string, error) {
		soID := salesOrderID
		if soID == nil {
			soID = req.SalesOrderID
		}
		if soID == nil {
			return projectNone, nil
		}
		if name, ok := projectCache[*soID]; ok {
			return name, nil
		}
		name, err := c.projects.ProjectName(ctx, *soID)
		if err != nil {
			return "", err
		}
		if name == "" {
			name = projectNone
		}
		projectCache[*soID] = name
		return name, nil
	}

	byKey := make(map[groupKey]*group)
	var order []groupKey
	for _, item := range items {
		projectKey, err := resolveProject(item.SalesOrderID)
		if err != nil {
			return nil, err
		}
		key := groupKey{supplierID: *parts[item.PartID].SupplierID, projectKey: projectKey}
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.items = append(g.items, item)
		if item.ResultID != nil {
			g.resultIDs = append(g.resultIDs, *item.ResultID)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].supplierID != order[j].supplierID {
			return order[i].supplierID.String() < order[j].supplierID.String()
		}
		return order[i].projectKey < order[j].projectKey
	})

	groups := make([]group, 0, len(byKey))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups, nil
}

// createGroupOrder is one unit of work: the purchase order and its
// results' ORDERED transitions commit or roll back together.
func (c *Consolidator) createGroupOrder(ctx context.Context, req ConsolidateRequest, g group, parts map[id.ID]part.Part, sup supplier.Supplier, orderDate time.Time) (*purchase.Order, error) {
	expected := orderDate.AddDate(0, 0, sup.LeadTimeDays)
	if req.ExpectedDate != nil {
		expected = *req.ExpectedDate
	}

	status := purchase.StatusDraft
	if req.SkipDraft {
		status = purchase.StatusOrdered
	}

	projectName := g.key.projectKey
	if projectName == projectNone {
		projectName = ""
	}

	order := &purchase.Order{
		SupplierID:   g.key.supplierID,
		ProjectName:  projectName,
		Status:       status,
		OrderDate:    orderDate,
		ExpectedDate: expected,
		Notes:        req.Notes,
		CreatedBy:    req.Performer,
	}
	for _, item := range g.items {
		p := parts[item.PartID]
		order.Items = append(order.Items, purchase.OrderItem{
			PartID:       item.PartID,
			SalesOrderID: item.SalesOrderID,
			OrderQty:     item.OrderQty,
			// Price is snapshotted now, not re-derived at receipt.
			UnitPrice: p.UnitPrice,
		})
	}

	var created *purchase.Order
	err := c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = c.orders.Create(ctx, order)
		if err != nil {
			return err
		}
		if len(g.resultIDs) > 0 {
			if err := c.results.UpdateStatus(ctx, g.resultIDs, ResultOrdered); err != nil {
				return fmt.Errorf("mark results ordered: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
