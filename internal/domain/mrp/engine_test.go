package mrp

import (
	"context"
	"testing"
	"time"

	"partsync/internal/core/id"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/catalogs/product"
	"partsync/internal/domain/ledger"
	"partsync/internal/domain/notify"
	"partsync/internal/domain/salesorder"
)

type demandStub struct{ items []salesorder.OpenItem }

func (s *demandStub) OpenItems(ctx context.Context) ([]salesorder.OpenItem, error) {
	return s.items, nil
}

type bomStub struct{ boms map[id.ID][]product.BomItem }

func (s *bomStub) BomsFor(ctx context.Context, productIDs []id.ID) (map[id.ID][]product.BomItem, error) {
	return s.boms, nil
}

type supplyStub struct{ incoming map[id.ID]types.Quantity }

func (s *supplyStub) IncomingSupply(ctx context.Context) (map[id.ID]types.Quantity, error) {
	if s.incoming == nil {
		return map[id.ID]types.Quantity{}, nil
	}
	return s.incoming, nil
}

type partsStub struct{ parts map[id.ID]part.Part }

func (s *partsStub) Lookup(ctx context.Context, partIDs []id.ID) (map[id.ID]part.Part, error) {
	return s.parts, nil
}

func (s *partsStub) List(ctx context.Context, filter part.Filter) ([]part.Part, error) {
	var out []part.Part
	for _, p := range s.parts {
		out = append(out, p)
	}
	return out, nil
}

type stockStub struct{ inventories map[id.ID]ledger.Inventory }

func (s *stockStub) Snapshot(ctx context.Context, partIDs []id.ID) (map[id.ID]ledger.Inventory, error) {
	if s.inventories == nil {
		return map[id.ID]ledger.Inventory{}, nil
	}
	return s.inventories, nil
}

type resultsStub struct {
	stored []Result
}

func (s *resultsStub) ReplaceAll(ctx context.Context, results []Result) error {
	var kept []Result
	for _, r := range s.stored {
		if r.Status == ResultOrdered {
			kept = append(kept, r)
		}
	}
	s.stored = append(kept, results...)
	return nil
}

func (s *resultsStub) ReplaceForSalesOrder(ctx context.Context, salesOrderID id.ID, results []Result) error {
	var kept []Result
	for _, r := range s.stored {
		if r.Status == ResultOrdered || r.SalesOrderID == nil || *r.SalesOrderID != salesOrderID {
			kept = append(kept, r)
		}
	}
	s.stored = append(kept, results...)
	return nil
}

func (s *resultsStub) GetByIDs(ctx context.Context, ids []id.ID) ([]Result, error) {
	var out []Result
	for _, r := range s.stored {
		for _, rid := range ids {
			if r.ID == rid {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *resultsStub) List(ctx context.Context, filter ResultFilter) ([]Result, error) {
	return s.stored, nil
}

func (s *resultsStub) UpdateStatus(ctx context.Context, ids []id.ID, status ResultStatus) error {
	for _, rid := range ids {
		for i := range s.stored {
			if s.stored[i].ID == rid {
				s.stored[i].Status = status
			}
		}
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

type engineFixture struct {
	demand  *demandStub
	boms    *bomStub
	supply  *supplyStub
	parts   *partsStub
	stock   *stockStub
	results *resultsStub
	engine  *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		demand:  &demandStub{},
		boms:    &bomStub{boms: make(map[id.ID][]product.BomItem)},
		supply:  &supplyStub{incoming: make(map[id.ID]types.Quantity)},
		parts:   &partsStub{parts: make(map[id.ID]part.Part)},
		stock:   &stockStub{inventories: make(map[id.ID]ledger.Inventory)},
		results: &resultsStub{},
	}
	aggregator := NewAggregator(f.demand, f.boms)
	f.engine = NewEngine(aggregator, f.supply, f.parts, f.stock, f.results,
		noopTxManager{}, notify.NewLogNotifier())
	return f
}

func (f *engineFixture) addPart(p part.Part) id.ID {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	p.Active = true
	f.parts.parts[p.ID] = p
	return p.ID
}

func (f *engineFixture) addDemand(partID id.ID, orderQty types.Quantity, qtyPer, lossRate string, due time.Time) id.ID {
	productID := id.New()
	salesOrderID := id.New()
	f.boms.boms[productID] = append(f.boms.boms[productID], product.BomItem{
		ID:              id.New(),
		ProductID:       productID,
		PartID:          partID,
		QuantityPerUnit: types.MustFactor(qtyPer),
		LossRate:        types.MustFactor(lossRate),
	})
	f.demand.items = append(f.demand.items, salesorder.OpenItem{
		Item: salesorder.Item{
			ID:           id.New(),
			SalesOrderID: salesOrderID,
			ProductID:    productID,
			OrderQty:     orderQty,
		},
		Status:  salesorder.StatusConfirmed,
		DueDate: due,
	})
	return salesOrderID
}

func resultFor(t *testing.T, results []Result, partID id.ID) Result {
	t.Helper()
	for _, r := range results {
		if r.PartID == partID {
			return r
		}
	}
	t.Fatalf("no result for part %s", partID)
	return Result{}
}

func TestAggregateDemand_CeilExplosion(t *testing.T) {
	f := newEngineFixture()
	partID := f.addPart(part.Part{Code: "P-001"})
	// 10 × 2.5 × 1.1 = 27.5 → rounds up to 28; under-ordering is unsafe.
	f.addDemand(partID, 10, "2.5", "0.1", time.Now().AddDate(0, 0, 30))

	demand, err := NewAggregator(f.demand, f.boms).AggregateDemand(context.Background())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if demand[partID].GrossRequirement != 28 {
		t.Errorf("grossRequirement = %d, want 28", demand[partID].GrossRequirement)
	}
}

func TestRun_NettingAgainstStockAndMinOrder(t *testing.T) {
	f := newEngineFixture()
	due := time.Now().UTC().AddDate(0, 0, 30)

	// Net above min order quantity stays as computed.
	partA := f.addPart(part.Part{Code: "P-A", MinOrderQty: 50})
	f.addDemand(partA, 500, "1", "0", due)
	f.stock.inventories[partA] = ledger.Inventory{PartID: partA, CurrentQty: 100}

	// Net below min order quantity rounds up to it, never down.
	partB := f.addPart(part.Part{Code: "P-B", MinOrderQty: 200})
	f.addDemand(partB, 300, "1", "0", due)
	f.stock.inventories[partB] = ledger.Inventory{PartID: partB, CurrentQty: 150}

	summary, err := f.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	a := resultFor(t, summary.Results, partA)
	if a.NetRequirement != 400 || a.SuggestedOrderQty != 400 {
		t.Errorf("part A net/suggested = %d/%d, want 400/400", a.NetRequirement, a.SuggestedOrderQty)
	}

	b := resultFor(t, summary.Results, partB)
	if b.NetRequirement != 150 || b.SuggestedOrderQty != 200 {
		t.Errorf("part B net/suggested = %d/%d, want 150/200", b.NetRequirement, b.SuggestedOrderQty)
	}
}

func TestRun_SafetyStockAndIncomingSupply(t *testing.T) {
	f := newEngineFixture()
	partID := f.addPart(part.Part{Code: "P-C", SafetyStock: 30})
	f.addDemand(partID, 100, "1", "0", time.Now().AddDate(0, 0, 30))
	f.stock.inventories[partID] = ledger.Inventory{PartID: partID, CurrentQty: 50}
	f.supply.incoming[partID] = 20

	summary, err := f.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// available = 50 + 20 − 30 = 40; net = 100 − 40 = 60.
	r := resultFor(t, summary.Results, partID)
	if r.NetRequirement != 60 {
		t.Errorf("netRequirement = %d, want 60", r.NetRequirement)
	}
	if r.IncomingQty != 20 || r.SafetyStock != 30 || r.CurrentStock != 50 {
		t.Errorf("snapshot = current %d incoming %d safety %d", r.CurrentStock, r.IncomingQty, r.SafetyStock)
	}
}

func TestRun_OrderDateBackCalculation(t *testing.T) {
	f := newEngineFixture()
	due := time.Now().UTC().AddDate(0, 0, 30)
	partID := f.addPart(part.Part{Code: "P-D", LeadTimeDays: 10})
	f.addDemand(partID, 100, "1", "0", due)

	summary, err := f.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	r := resultFor(t, summary.Results, partID)
	if r.SuggestedOrderDate == nil {
		t.Fatal("suggestedOrderDate is nil")
	}
	want := due.AddDate(0, 0, -10)
	if !r.SuggestedOrderDate.Equal(want) {
		t.Errorf("suggestedOrderDate = %v, want %v", r.SuggestedOrderDate, want)
	}
}

func TestRun_ReorderPointTriggerWithoutDemand(t *testing.T) {
	f := newEngineFixture()
	partID := f.addPart(part.Part{Code: "P-E", ReorderPoint: 100, MinOrderQty: 60})
	f.stock.inventories[partID] = ledger.Inventory{PartID: partID, CurrentQty: 40}

	summary, err := f.engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	r := resultFor(t, summary.Results, partID)
	if r.NetRequirement != 60 {
		t.Errorf("netRequirement = %d, want 60", r.NetRequirement)
	}
	if r.SuggestedOrderDate != nil {
		t.Error("reorder-point trigger must carry no order date")
	}
	if r.Urgency != UrgencyLow {
		t.Errorf("urgency = %s, want LOW for pure reorder-point trigger", r.Urgency)
	}
}

func TestRun_PreservesOrderedRows(t *testing.T) {
	f := newEngineFixture()
	consumed := Result{ID: id.New(), PartID: id.New(), Status: ResultOrdered}
	f.results.stored = []Result{
		consumed,
		{ID: id.New(), PartID: id.New(), Status: ResultPending},
	}

	partID := f.addPart(part.Part{Code: "P-F"})
	f.addDemand(partID, 50, "1", "0", time.Now().AddDate(0, 0, 30))

	if _, err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var orderedSurvived, pendingSurvived bool
	for _, r := range f.results.stored {
		if r.ID == consumed.ID {
			orderedSurvived = true
		}
		if r.Status == ResultPending && r.PartID != partID {
			pendingSurvived = true
		}
	}
	if !orderedSurvived {
		t.Error("ORDERED row was cleared by full run")
	}
	if pendingSurvived {
		t.Error("stale PENDING row survived full run")
	}
}

func TestRunForSalesOrder_ScopedReplacement(t *testing.T) {
	f := newEngineFixture()
	due := time.Now().UTC().AddDate(0, 0, 30)

	partA := f.addPart(part.Part{Code: "P-G"})
	soA := f.addDemand(partA, 100, "1", "0", due)
	partB := f.addPart(part.Part{Code: "P-H"})
	f.addDemand(partB, 100, "1", "0", due)

	unrelated := Result{ID: id.New(), PartID: partB, Status: ResultPending}
	f.results.stored = []Result{unrelated}

	summary, err := f.engine.RunForSalesOrder(context.Background(), soA)
	if err != nil {
		t.Fatalf("scoped run failed: %v", err)
	}

	for _, r := range summary.Results {
		if r.PartID == partB {
			t.Error("scoped run produced a result for an unrelated part")
		}
		if r.SalesOrderID == nil || *r.SalesOrderID != soA {
			t.Errorf("result not attributed to sales order: %+v", r.SalesOrderID)
		}
	}

	found := false
	for _, r := range f.results.stored {
		if r.ID == unrelated.ID {
			found = true
		}
	}
	if !found {
		t.Error("scoped run disturbed an unrelated result row")
	}
}

func TestClassifyUrgency_Boundaries(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := asOf.AddDate(0, 0, offset)
		return &d
	}

	tests := []struct {
		name      string
		orderDate *time.Time
		want      Urgency
	}{
		{"nil date", nil, UrgencyLow},
		{"past", day(-3), UrgencyCritical},
		{"today", day(0), UrgencyCritical},
		{"tomorrow", day(1), UrgencyHigh},
		{"exactly 7 days", day(7), UrgencyHigh},
		{"exactly 8 days", day(8), UrgencyMedium},
		{"exactly 14 days", day(14), UrgencyMedium},
		{"exactly 15 days", day(15), UrgencyLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyUrgency(tt.orderDate, asOf); got != tt.want {
				t.Errorf("ClassifyUrgency() = %s, want %s", got, tt.want)
			}
		})
	}
}
