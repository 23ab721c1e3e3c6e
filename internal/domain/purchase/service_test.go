package purchase

import (
	"context"
	"testing"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/types"
	"partsync/internal/domain/ledger"
)

type memRepo struct {
	orders map[id.ID]*Order
}

func newMemRepo() *memRepo {
	return &memRepo{orders: make(map[id.ID]*Order)}
}

func (r *memRepo) Create(ctx context.Context, order *Order) error {
	cp := *order
	cp.Items = append([]OrderItem(nil), order.Items...)
	r.orders[order.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := *order
	cp.Items = append([]OrderItem(nil), order.Items...)
	return &cp, nil
}

func (r *memRepo) GetByCode(ctx context.Context, code string) (*Order, error) {
	for _, order := range r.orders {
		if order.Code == code {
			return r.GetByID(ctx, order.ID)
		}
	}
	return nil, apperror.NewNotFound("order", code)
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]Order, error) {
	var out []Order
	for _, order := range r.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, orderID id.ID, status Status) error {
	order, ok := r.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	order.Status = status
	return nil
}

func (r *memRepo) UpdateItem(ctx context.Context, item *OrderItem) error {
	order, ok := r.orders[item.OrderID]
	if !ok {
		return apperror.NewNotFound("order", item.OrderID)
	}
	for i := range order.Items {
		if order.Items[i].ID == item.ID {
			order.Items[i] = *item
			return nil
		}
	}
	return apperror.NewNotFound("order item", item.ID)
}

func (r *memRepo) ListIncoming(ctx context.Context) ([]IncomingLine, error) {
	var out []IncomingLine
	for _, order := range r.orders {
		open := false
		for _, s := range OpenStatuses {
			if order.Status == s {
				open = true
			}
		}
		if !open {
			continue
		}
		for _, item := range order.Items {
			if remaining := item.Remaining(); remaining.IsPositive() {
				out = append(out, IncomingLine{
					PartID:       item.PartID,
					Remaining:    remaining,
					ExpectedDate: order.ExpectedDate,
				})
			}
		}
	}
	return out, nil
}

// ledgerStub tracks movements and incoming counters without real inventory.
type ledgerStub struct {
	movements []ledger.Movement
	incoming  map[id.ID]types.Quantity
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{incoming: make(map[id.ID]types.Quantity)}
}

func (l *ledgerStub) ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error) {
	l.movements = append(l.movements, m)
	return &ledger.Transaction{ID: id.New(), PartID: m.PartID, Type: m.Type, Quantity: m.Quantity}, nil
}

func (l *ledgerStub) AddIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error {
	l.incoming[partID] += qty
	return nil
}

func (l *ledgerStub) ReduceIncoming(ctx context.Context, partID id.ID, qty types.Quantity) error {
	l.incoming[partID] -= qty
	if l.incoming[partID] < 0 {
		l.incoming[partID] = 0
	}
	return nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *memRepo, stock *ledgerStub) *Service {
	return NewService(repo, stock, &numerator.MockGenerator{}, noopTxManager{})
}

func newOrderedOrder(t *testing.T, svc *Service, partID id.ID, qty types.Quantity) *Order {
	t.Helper()
	order, err := svc.Create(context.Background(), &Order{
		SupplierID:   id.New(),
		Status:       StatusOrdered,
		ExpectedDate: time.Now().AddDate(0, 0, 7),
		Items: []OrderItem{
			{PartID: partID, OrderQty: qty, UnitPrice: types.MustMoney("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreate_OrderedRegistersIncoming(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	partID := id.New()

	order := newOrderedOrder(t, svc, partID, 100)

	if order.Code == "" {
		t.Error("order code not generated")
	}
	if stock.incoming[partID] != 100 {
		t.Errorf("incoming = %d, want 100", stock.incoming[partID])
	}
	if !order.TotalAmount.Equal(types.MustMoney("250")) {
		t.Errorf("totalAmount = %s, want 250", order.TotalAmount)
	}
}

func TestCreate_DraftCarriesNoIncoming(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	partID := id.New()

	_, err := svc.Create(context.Background(), &Order{
		SupplierID: id.New(),
		Items:      []OrderItem{{PartID: partID, OrderQty: 40}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if stock.incoming[partID] != 0 {
		t.Errorf("draft order registered incoming = %d", stock.incoming[partID])
	}
}

func TestIssue_MovesDraftToOrdered(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	ctx := context.Background()
	partID := id.New()

	draft, err := svc.Create(ctx, &Order{
		SupplierID: id.New(),
		Items:      []OrderItem{{PartID: partID, OrderQty: 40}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	issued, err := svc.Issue(ctx, draft.ID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if issued.Status != StatusOrdered {
		t.Errorf("status = %s, want ORDERED", issued.Status)
	}
	if stock.incoming[partID] != 40 {
		t.Errorf("incoming = %d, want 40", stock.incoming[partID])
	}

	// Re-issue must not double the incoming counter.
	if _, err := svc.Issue(ctx, draft.ID); err != nil {
		t.Fatalf("re-issue failed: %v", err)
	}
	if stock.incoming[partID] != 40 {
		t.Errorf("incoming after re-issue = %d, want 40", stock.incoming[partID])
	}
}

func TestReceive_PartialThenComplete(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	ctx := context.Background()
	partID := id.New()

	order := newOrderedOrder(t, svc, partID, 100)
	itemID := order.Items[0].ID

	got, err := svc.Receive(ctx, order.ID, []ReceiveLine{{ItemID: itemID, Quantity: 60}}, "receiver")
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if got.Status != StatusPartial {
		t.Errorf("status = %s, want PARTIAL", got.Status)
	}
	if got.Items[0].Status != ItemPartial {
		t.Errorf("item status = %s, want PARTIAL", got.Items[0].Status)
	}
	if stock.incoming[partID] != 40 {
		t.Errorf("incoming = %d, want 40", stock.incoming[partID])
	}
	if len(stock.movements) != 1 || stock.movements[0].Type != ledger.MovementInbound {
		t.Fatalf("expected one INBOUND movement, got %v", stock.movements)
	}
	if stock.movements[0].Reference.Type != ledger.RefOrder || stock.movements[0].Reference.ID != order.ID {
		t.Errorf("movement reference = %+v", stock.movements[0].Reference)
	}

	got, err = svc.Receive(ctx, order.ID, []ReceiveLine{{ItemID: itemID, Quantity: 40}}, "receiver")
	if err != nil {
		t.Fatalf("second receive failed: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
	if got.Items[0].ReceivedQty != 100 {
		t.Errorf("receivedQty = %d, want 100", got.Items[0].ReceivedQty)
	}
	if stock.incoming[partID] != 0 {
		t.Errorf("incoming = %d, want 0", stock.incoming[partID])
	}
}

func TestReceive_RejectsOverReceipt(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	ctx := context.Background()
	partID := id.New()

	order := newOrderedOrder(t, svc, partID, 100)

	_, err := svc.Receive(ctx, order.ID,
		[]ReceiveLine{{ItemID: order.Items[0].ID, Quantity: 120}}, "receiver")
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if len(stock.movements) != 0 {
		t.Error("movement applied for rejected receipt")
	}
	stored, _ := repo.GetByID(ctx, order.ID)
	if stored.Items[0].ReceivedQty != 0 {
		t.Errorf("receivedQty = %d, want 0", stored.Items[0].ReceivedQty)
	}
}

func TestCancel_RefusesAfterReceipt(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	ctx := context.Background()
	partID := id.New()

	order := newOrderedOrder(t, svc, partID, 100)
	if _, err := svc.Receive(ctx, order.ID,
		[]ReceiveLine{{ItemID: order.Items[0].ID, Quantity: 10}}, "receiver"); err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	err := svc.Cancel(ctx, order.ID)
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCancel_ReleasesIncoming(t *testing.T) {
	repo := newMemRepo()
	stock := newLedgerStub()
	svc := newTestService(repo, stock)
	ctx := context.Background()
	partID := id.New()

	order := newOrderedOrder(t, svc, partID, 100)
	if err := svc.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if stock.incoming[partID] != 0 {
		t.Errorf("incoming = %d, want 0 after cancel", stock.incoming[partID])
	}

	stored, _ := repo.GetByID(ctx, order.ID)
	if stored.Status != StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", stored.Status)
	}
}
