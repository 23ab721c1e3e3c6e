package salesorder

import (
	"context"
	"testing"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
)

type memRepo struct {
	orders map[id.ID]*SalesOrder
	items  map[id.ID][]Item
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders: make(map[id.ID]*SalesOrder),
		items:  make(map[id.ID][]Item),
	}
}

func (r *memRepo) Create(ctx context.Context, o *SalesOrder) error {
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *memRepo) Update(ctx context.Context, o *SalesOrder) error {
	if _, ok := r.orders[o.ID]; !ok {
		return apperror.NewNotFound("sales order", o.ID)
	}
	cp := *o
	cp.Items = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, orderID id.ID) (*SalesOrder, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("sales order", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, statuses []Status) ([]SalesOrder, error) {
	var out []SalesOrder
	for _, o := range r.orders {
		if len(statuses) == 0 {
			out = append(out, *o)
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (r *memRepo) ListOpenItems(ctx context.Context, statuses []Status) ([]OpenItem, error) {
	var out []OpenItem
	for _, o := range r.orders {
		open := false
		for _, s := range statuses {
			if o.Status == s {
				open = true
				break
			}
		}
		if !open {
			continue
		}
		for _, item := range r.items[o.ID] {
			out = append(out, OpenItem{
				Item:        item,
				OrderCode:   o.Code,
				ProjectName: o.ProjectName,
				Status:      o.Status,
				DueDate:     o.DueDate,
			})
		}
	}
	return out, nil
}

func (r *memRepo) SaveItems(ctx context.Context, orderID id.ID, items []Item) error {
	r.items[orderID] = append([]Item(nil), items...)
	return nil
}

func (r *memRepo) GetItems(ctx context.Context, orderID id.ID) ([]Item, error) {
	return r.items[orderID], nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, &numerator.MockGenerator{}, noopTxManager{}), repo
}

func validOrder() *SalesOrder {
	return &SalesOrder{
		CustomerName: "Hanbit Electronics",
		ProjectName:  "line-3 retrofit",
		DueDate:      time.Now().Add(14 * 24 * time.Hour),
		Items: []Item{
			{ProductID: id.New(), OrderQty: 10},
		},
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, repo := newTestService()

	o := validOrder()
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if o.Status != StatusReceived {
		t.Errorf("status = %s, want %s", o.Status, StatusReceived)
	}
	if o.Code == "" {
		t.Error("expected generated code")
	}
	if id.IsNil(o.ID) {
		t.Error("expected generated id")
	}
	items, _ := repo.GetItems(context.Background(), o.ID)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].SalesOrderID != o.ID {
		t.Error("item not linked to order")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*SalesOrder)
	}{
		{"no customer", func(o *SalesOrder) { o.CustomerName = "" }},
		{"no due date", func(o *SalesOrder) { o.DueDate = time.Time{} }},
		{"no items", func(o *SalesOrder) { o.Items = nil }},
		{"zero quantity", func(o *SalesOrder) { o.Items[0].OrderQty = 0 }},
		{"nil product", func(o *SalesOrder) { o.Items[0].ProductID = id.ID{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)
			err := svc.Create(context.Background(), o)
			appErr, ok := apperror.AsAppError(err)
			if !ok || appErr.Code != apperror.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSetStatusTerminal(t *testing.T) {
	svc, _ := newTestService()

	o := validOrder()
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.SetStatus(context.Background(), o.ID, StatusCompleted); err != nil {
		t.Fatalf("SetStatus to completed: %v", err)
	}

	err := svc.SetStatus(context.Background(), o.ID, StatusConfirmed)
	if err == nil {
		t.Fatal("expected error reopening a completed order")
	}
}

func TestOpenItemsExcludesClosedOrders(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	open := validOrder()
	if err := svc.Create(ctx, open); err != nil {
		t.Fatalf("Create: %v", err)
	}

	closed := validOrder()
	if err := svc.Create(ctx, closed); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.SetStatus(ctx, closed.ID, StatusCancelled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	items, err := svc.OpenItems(ctx)
	if err != nil {
		t.Fatalf("OpenItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("open items = %d, want 1", len(items))
	}
	if items[0].OrderCode != open.Code {
		t.Errorf("order code = %s, want %s", items[0].OrderCode, open.Code)
	}
}

func TestProjectName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	o := validOrder()
	if err := svc.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}

	name, err := svc.ProjectName(ctx, o.ID)
	if err != nil {
		t.Fatalf("ProjectName: %v", err)
	}
	if name != "line-3 retrofit" {
		t.Errorf("project = %q", name)
	}

	if _, err := svc.ProjectName(ctx, id.New()); err == nil {
		t.Fatal("expected not found for unknown order")
	}
}
