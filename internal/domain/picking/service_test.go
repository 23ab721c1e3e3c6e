package picking

import (
	"context"
	"testing"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/ledger"
	"partsync/internal/domain/salesorder"
)

type memRepo struct {
	tasks map[id.ID]*Task
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[id.ID]*Task)}
}

func (r *memRepo) Create(ctx context.Context, task *Task) error {
	cp := *task
	cp.Items = append([]Item(nil), task.Items...)
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, taskID id.ID) (*Task, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, apperror.NewNotFound("picking task", taskID)
	}
	cp := *task
	cp.Items = append([]Item(nil), task.Items...)
	return &cp, nil
}

func (r *memRepo) GetBySalesOrder(ctx context.Context, salesOrderID id.ID) (*Task, error) {
	for _, task := range r.tasks {
		if task.SalesOrderID == salesOrderID {
			return r.GetByID(ctx, task.ID)
		}
	}
	return nil, apperror.NewNotFound("picking task", salesOrderID)
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]Task, error) {
	var out []Task
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, task *Task) error {
	stored, ok := r.tasks[task.ID]
	if !ok {
		return apperror.NewNotFound("picking task", task.ID)
	}
	items := stored.Items
	cp := *task
	cp.Items = items
	r.tasks[task.ID] = &cp
	return nil
}

func (r *memRepo) UpdateItem(ctx context.Context, item *Item) error {
	task, ok := r.tasks[item.TaskID]
	if !ok {
		return apperror.NewNotFound("picking task", item.TaskID)
	}
	for i := range task.Items {
		if task.Items[i].ID == item.ID {
			task.Items[i] = *item
			return nil
		}
	}
	return apperror.NewNotFound("picking item", item.ID)
}

type orderStub struct{ orders map[id.ID]*salesorder.SalesOrder }

func (s *orderStub) GetByID(ctx context.Context, orderID id.ID) (*salesorder.SalesOrder, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("sales order", orderID)
	}
	return order, nil
}

type bomStub struct{ boms map[id.ID][]product.BomItem }

func (s *bomStub) BomsFor(ctx context.Context, productIDs []id.ID) (map[id.ID][]product.BomItem, error) {
	return s.boms, nil
}

type partsStub struct{ parts map[id.ID]part.Part }

func (s *partsStub) Lookup(ctx context.Context, partIDs []id.ID) (map[id.ID]part.Part, error) {
	return s.parts, nil
}

// stockStub mirrors the ledger's movement and reversal semantics over an
// in-memory quantity map.
type stockStub struct {
	quantities   map[id.ID]types.Quantity
	transactions []ledger.Transaction
}

func newStockStub() *stockStub {
	return &stockStub{quantities: make(map[id.ID]types.Quantity)}
}

func (s *stockStub) ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error) {
	before := s.quantities[m.PartID]
	var after types.Quantity
	switch m.Type {
	case ledger.MovementInbound:
		after = before + m.Quantity
	case ledger.MovementOutbound:
		if before-m.Quantity < 0 {
			return nil, apperror.NewInsufficientStock(m.PartID.String(), m.Quantity.Int64(), before.Int64())
		}
		after = before - m.Quantity
	case ledger.MovementAdjustment:
		after = m.Quantity
	}
	s.quantities[m.PartID] = after
	txn := ledger.Transaction{
		ID:        id.New(),
		PartID:    m.PartID,
		Type:      m.Type,
		Quantity:  m.Quantity,
		BeforeQty: before,
		AfterQty:  after,
		Reference: m.Reference,
	}
	s.transactions = append(s.transactions, txn)
	return &txn, nil
}

func (s *stockStub) Reverse(ctx context.Context, original *ledger.Transaction, refType ledger.ReferenceType, reason, performer string) (*ledger.Transaction, error) {
	inverse := ledger.MovementInbound
	if original.Type == ledger.MovementInbound {
		inverse = ledger.MovementOutbound
	}
	return s.ApplyMovement(ctx, ledger.Movement{
		PartID:    original.PartID,
		Type:      inverse,
		Quantity:  original.Quantity,
		Reference: ledger.Reference{Type: refType, ID: original.Reference.ID},
	})
}

func (s *stockStub) TransactionsFor(ctx context.Context, ref ledger.Reference) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, txn := range s.transactions {
		if txn.Reference == ref {
			out = append(out, txn)
		}
	}
	return out, nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	repo   *memRepo
	orders *orderStub
	boms   *bomStub
	parts  *partsStub
	stock  *stockStub
	svc    *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:   newMemRepo(),
		orders: &orderStub{orders: make(map[id.ID]*salesorder.SalesOrder)},
		boms:   &bomStub{boms: make(map[id.ID][]product.BomItem)},
		parts:  &partsStub{parts: make(map[id.ID]part.Part)},
		stock:  newStockStub(),
	}
	f.svc = NewService(f.repo, f.orders, f.boms, f.parts, f.stock,
		&numerator.MockGenerator{}, noopTxManager{})
	return f
}

func (f *fixture) addPart(location string, qty types.Quantity) id.ID {
	partID := id.New()
	f.parts.parts[partID] = part.Part{ID: partID, StorageLocation: location, Active: true}
	f.stock.quantities[partID] = qty
	return partID
}

// addSalesOrder wires one confirmed order with a single product whose
// BOM lists the given parts 1:1.
func (f *fixture) addSalesOrder(orderQty types.Quantity, partIDs ...id.ID) id.ID {
	productID := id.New()
	for _, partID := range partIDs {
		f.boms.boms[productID] = append(f.boms.boms[productID], product.BomItem{
			ID:              id.New(),
			ProductID:       productID,
			PartID:          partID,
			QuantityPerUnit: types.MustFactor("1"),
		})
	}
	orderID := id.New()
	f.orders.orders[orderID] = &salesorder.SalesOrder{
		ID:      orderID,
		Status:  salesorder.StatusConfirmed,
		DueDate: time.Now().AddDate(0, 0, 14),
		Items: []salesorder.Item{
			{ID: id.New(), SalesOrderID: orderID, ProductID: productID, OrderQty: orderQty},
		},
	}
	return orderID
}

func TestCreateFromSalesOrder_RouteOrder(t *testing.T) {
	f := newFixture()
	// Deliberately inserted out of route order, plus one unparsable.
	p1 := f.addPart("A-01-02", 100)
	p2 := f.addPart("A-01-01", 100)
	p3 := f.addPart("B-02-01", 100)
	p4 := f.addPart("dock", 100)
	orderID := f.addSalesOrder(1, p1, p2, p3, p4)

	task, err := f.svc.CreateFromSalesOrder(context.Background(), orderID, "picker")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	wantRoute := []string{"A-01-01", "A-01-02", "B-02-01", "dock"}
	for i, want := range wantRoute {
		if task.Items[i].StorageLocation != want {
			t.Errorf("route[%d] = %s, want %s", i, task.Items[i].StorageLocation, want)
		}
		if task.Items[i].Sequence != i+1 {
			t.Errorf("sequence[%d] = %d, want %d", i, task.Items[i].Sequence, i+1)
		}
	}
}

func TestCreateFromSalesOrder_AggregatesAndCeils(t *testing.T) {
	f := newFixture()
	partID := f.addPart("A-01-01", 100)

	// Two BOM lines for the same part across two products on one order.
	productA := id.New()
	productB := id.New()
	f.boms.boms[productA] = []product.BomItem{{
		ID: id.New(), ProductID: productA, PartID: partID,
		QuantityPerUnit: types.MustFactor("1.5"), LossRate: types.MustFactor("0.1"),
	}}
	f.boms.boms[productB] = []product.BomItem{{
		ID: id.New(), ProductID: productB, PartID: partID,
		QuantityPerUnit: types.MustFactor("2"),
	}}
	orderID := id.New()
	f.orders.orders[orderID] = &salesorder.SalesOrder{
		ID:      orderID,
		Status:  salesorder.StatusConfirmed,
		DueDate: time.Now().AddDate(0, 0, 14),
		Items: []salesorder.Item{
			{ID: id.New(), SalesOrderID: orderID, ProductID: productA, OrderQty: 3},
			{ID: id.New(), SalesOrderID: orderID, ProductID: productB, OrderQty: 2},
		},
	}

	task, err := f.svc.CreateFromSalesOrder(context.Background(), orderID, "picker")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// ceil(3 × 1.5 × 1.1) + ceil(2 × 2) = 5 + 4 = 9
	if len(task.Items) != 1 {
		t.Fatalf("items = %d, want 1 aggregated line", len(task.Items))
	}
	if task.Items[0].RequiredQty != 9 {
		t.Errorf("requiredQty = %d, want 9", task.Items[0].RequiredQty)
	}
}

func TestCreateFromSalesOrder_OneTaskPerOrder(t *testing.T) {
	f := newFixture()
	partID := f.addPart("A-01-01", 100)
	orderID := f.addSalesOrder(1, partID)
	ctx := context.Background()

	if _, err := f.svc.CreateFromSalesOrder(ctx, orderID, "picker"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := f.svc.CreateFromSalesOrder(ctx, orderID, "picker")
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT for duplicate task, got %v", err)
	}
}

func TestPickItem_MovesStockOut(t *testing.T) {
	f := newFixture()
	partID := f.addPart("A-01-01", 100)
	orderID := f.addSalesOrder(10, partID)
	ctx := context.Background()

	task, err := f.svc.CreateFromSalesOrder(ctx, orderID, "picker")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	task, err = f.svc.PickItem(ctx, task.ID, task.Items[0].ID, 0, "picker")
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	if f.stock.quantities[partID] != 90 {
		t.Errorf("quantity = %d, want 90 after picking 10", f.stock.quantities[partID])
	}
	if task.Status != TaskCompleted {
		t.Errorf("task status = %s, want COMPLETED", task.Status)
	}
	if len(f.stock.transactions) != 1 || f.stock.transactions[0].Type != ledger.MovementOutbound {
		t.Fatalf("expected one OUTBOUND transaction, got %+v", f.stock.transactions)
	}
	if f.stock.transactions[0].Reference.Type != ledger.RefPicking {
		t.Errorf("reference type = %s, want PICKING", f.stock.transactions[0].Reference.Type)
	}
}

func TestRevert_RestoresStockAndSkippedStaysLedgerless(t *testing.T) {
	f := newFixture()
	picked := f.addPart("A-01-01", 100)
	skipped := f.addPart("A-01-02", 50)
	orderID := f.addSalesOrder(10, picked, skipped)
	ctx := context.Background()

	task, err := f.svc.CreateFromSalesOrder(ctx, orderID, "picker")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var pickedItem, skippedItem Item
	for _, item := range task.Items {
		if item.PartID == picked {
			pickedItem = item
		} else {
			skippedItem = item
		}
	}

	if _, err := f.svc.PickItem(ctx, task.ID, pickedItem.ID, 0, "picker"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	task, err = f.svc.SkipItem(ctx, task.ID, skippedItem.ID)
	if err != nil {
		t.Fatalf("skip failed: %v", err)
	}
	if task.Status != TaskCompleted {
		t.Fatalf("task status = %s, want COMPLETED", task.Status)
	}

	task, err = f.svc.Revert(ctx, task.ID, "picker")
	if err != nil {
		t.Fatalf("revert failed: %v", err)
	}

	if f.stock.quantities[picked] != 100 {
		t.Errorf("picked part quantity = %d, want restored 100", f.stock.quantities[picked])
	}
	if f.stock.quantities[skipped] != 50 {
		t.Errorf("skipped part quantity = %d, want untouched 50", f.stock.quantities[skipped])
	}
	// Skipped item produced no ledger traffic: one pick, one revert.
	if len(f.stock.transactions) != 2 {
		t.Errorf("transactions = %d, want 2", len(f.stock.transactions))
	}
	if f.stock.transactions[1].Reference.Type != ledger.RefPickingRevert {
		t.Errorf("revert reference = %s, want PICKING_REVERT", f.stock.transactions[1].Reference.Type)
	}

	if task.Status != TaskPending {
		t.Errorf("task status = %s, want PENDING after revert", task.Status)
	}
	for _, item := range task.Items {
		if item.Status != ItemPending || !item.PickedQty.IsZero() {
			t.Errorf("item %s not reset: status %s picked %d", item.ID, item.Status, item.PickedQty)
		}
	}
}

func TestRevert_OnlyFromCompleted(t *testing.T) {
	f := newFixture()
	partID := f.addPart("A-01-01", 100)
	orderID := f.addSalesOrder(1, partID)
	ctx := context.Background()

	task, err := f.svc.CreateFromSalesOrder(ctx, orderID, "picker")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = f.svc.Revert(ctx, task.ID, "picker")
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT for pending task, got %v", err)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in    string
		want  Location
		valid bool
	}{
		{"A-01-02", Location{"A", 1, 2}, true},
		{"b-10-3", Location{"B", 10, 3}, true},
		{"dock", Location{}, false},
		{"A-x-1", Location{}, false},
		{"", Location{}, false},
		{"A-1-2-3", Location{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseLocation(tt.in)
		if ok != tt.valid || got != tt.want {
			t.Errorf("ParseLocation(%q) = %+v/%v, want %+v/%v", tt.in, got, ok, tt.want, tt.valid)
		}
	}
}
