package audit

import (
	"context"
	"testing"
	"time"

	"partsync/internal/core/apperror"
	"partsync/internal/core/id"
	"partsync/internal/core/numerator"
	"partsync/internal/core/types"
	"partsync/internal/domain/catalogs/part"
	"partsync/internal/domain/ledger"
)

type memRepo struct {
	records       map[id.ID]*Record
	discrepancies []DiscrepancyLog
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[id.ID]*Record)}
}

func (r *memRepo) Create(ctx context.Context, record *Record) error {
	cp := *record
	cp.Items = append([]Item(nil), record.Items...)
	r.records[record.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, auditID id.ID) (*Record, error) {
	record, ok := r.records[auditID]
	if !ok {
		return nil, apperror.NewNotFound("audit", auditID)
	}
	cp := *record
	cp.Items = append([]Item(nil), record.Items...)
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]Record, error) {
	var out []Record
	for _, record := range r.records {
		out = append(out, *record)
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, record *Record) error {
	stored, ok := r.records[record.ID]
	if !ok {
		return apperror.NewNotFound("audit", record.ID)
	}
	items := stored.Items
	cp := *record
	cp.Items = items
	r.records[record.ID] = &cp
	return nil
}

func (r *memRepo) UpdateItem(ctx context.Context, item *Item) error {
	record, ok := r.records[item.AuditID]
	if !ok {
		return apperror.NewNotFound("audit", item.AuditID)
	}
	for i := range record.Items {
		if record.Items[i].ID == item.ID {
			record.Items[i] = *item
			return nil
		}
	}
	return apperror.NewNotFound("audit item", item.ID)
}

func (r *memRepo) ActiveAuditParts(ctx context.Context) (map[id.ID]id.ID, error) {
	covered := make(map[id.ID]id.ID)
	for _, record := range r.records {
		if record.Status != StatusPlanned && record.Status != StatusInProgress {
			continue
		}
		for _, item := range record.Items {
			covered[item.PartID] = record.ID
		}
	}
	return covered, nil
}

func (r *memRepo) AppendDiscrepancy(ctx context.Context, log *DiscrepancyLog) error {
	r.discrepancies = append(r.discrepancies, *log)
	return nil
}

func (r *memRepo) ListDiscrepancies(ctx context.Context, auditID id.ID) ([]DiscrepancyLog, error) {
	var out []DiscrepancyLog
	for _, log := range r.discrepancies {
		if log.AuditID == auditID {
			out = append(out, log)
		}
	}
	return out, nil
}

func (r *memRepo) SetDiscrepancyStatus(ctx context.Context, auditID id.ID, status DiscrepancyStatus) error {
	for i := range r.discrepancies {
		if r.discrepancies[i].AuditID == auditID {
			r.discrepancies[i].Status = status
		}
	}
	return nil
}

// stockStub mirrors the ledger's adjustment and reversal semantics over
// an in-memory quantity map.
type stockStub struct {
	quantities   map[id.ID]types.Quantity
	transactions []ledger.Transaction
}

func newStockStub() *stockStub {
	return &stockStub{quantities: make(map[id.ID]types.Quantity)}
}

func (s *stockStub) ApplyMovement(ctx context.Context, m ledger.Movement) (*ledger.Transaction, error) {
	before := s.quantities[m.PartID]
	var after, recorded types.Quantity
	switch m.Type {
	case ledger.MovementInbound:
		after = before + m.Quantity
		recorded = m.Quantity
	case ledger.MovementOutbound:
		if before-m.Quantity < 0 {
			return nil, apperror.NewInsufficientStock(m.PartID.String(), m.Quantity.Int64(), before.Int64())
		}
		after = before - m.Quantity
		recorded = m.Quantity
	case ledger.MovementAdjustment:
		after = m.Quantity
		recorded = (after - before).Abs()
	}
	s.quantities[m.PartID] = after
	txn := ledger.Transaction{
		ID:        id.New(),
		PartID:    m.PartID,
		Type:      m.Type,
		Quantity:  recorded,
		BeforeQty: before,
		AfterQty:  after,
		Reference: m.Reference,
		Performer: m.Performer,
	}
	s.transactions = append(s.transactions, txn)
	return &txn, nil
}

func (s *stockStub) Reverse(ctx context.Context, original *ledger.Transaction, refType ledger.ReferenceType, reason, performer string) (*ledger.Transaction, error) {
	m := ledger.Movement{
		PartID:    original.PartID,
		Reference: ledger.Reference{Type: refType, ID: original.Reference.ID},
		Reason:    reason,
		Performer: performer,
	}
	switch original.Type {
	case ledger.MovementInbound:
		m.Type = ledger.MovementOutbound
		m.Quantity = original.Quantity
	case ledger.MovementOutbound:
		m.Type = ledger.MovementInbound
		m.Quantity = original.Quantity
	case ledger.MovementAdjustment:
		m.Type = ledger.MovementAdjustment
		m.Quantity = original.BeforeQty
	}
	return s.ApplyMovement(ctx, m)
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

func (s *stockStub) Snapshot(ctx context.Context, partIDs []id.ID) (map[id.ID]ledger.Inventory, error) {
	snapshot := make(map[id.ID]ledger.Inventory, len(partIDs))
	for _, partID := range partIDs {
		snapshot[partID] = ledger.Inventory{PartID: partID, CurrentQty: s.quantities[partID]}
	}
	return snapshot, nil
}

type partsStub struct{ parts []part.Part }

func (s *partsStub) List(ctx context.Context, filter part.Filter) ([]part.Part, error) {
	return s.parts, nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noopTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	repo  *memRepo
	stock *stockStub
	parts *partsStub
	svc   *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:  newMemRepo(),
		stock: newStockStub(),
		parts: &partsStub{},
	}
	f.svc = NewService(f.repo, f.parts, f.stock, &numerator.MockGenerator{}, noopTxManager{})
	return f
}

func (f *fixture) addPart(qty types.Quantity) id.ID {
	partID := id.New()
	f.parts.parts = append(f.parts.parts, part.Part{ID: partID, Active: true})
	f.stock.quantities[partID] = qty
	return partID
}

func createAudit(t *testing.T, f *fixture, partIDs ...id.ID) *Record {
	t.Helper()
	record, err := f.svc.Create(context.Background(), CreateRequest{
		AuditDate: time.Now(),
		Type:      TypePartial,
		PartIDs:   partIDs,
	}, "auditor")
	if err != nil {
		t.Fatalf("create audit failed: %v", err)
	}
	return record
}

func count(t *testing.T, f *fixture, record *Record, counts map[id.ID]types.Quantity) {
	t.Helper()
	var lines []CountLine
	for _, item := range record.Items {
		if qty, ok := counts[item.PartID]; ok {
			lines = append(lines, CountLine{ItemID: item.ID, CountedQty: qty})
		}
	}
	if _, err := f.svc.RecordCounts(context.Background(), record.ID, lines); err != nil {
		t.Fatalf("record counts failed: %v", err)
	}
}

func TestAuditRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	partID := f.addPart(100)

	record := createAudit(t, f, partID)
	if record.Status != StatusPlanned {
		t.Fatalf("status = %s, want PLANNED", record.Status)
	}
	if record.Items[0].SystemQty != 100 {
		t.Fatalf("systemQty = %d, want snapshot 100", record.Items[0].SystemQty)
	}

	count(t, f, record, map[id.ID]types.Quantity{partID: 90})

	report, err := f.svc.Complete(ctx, record.ID, true, "auditor")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !report.Adjusted || report.DiscrepancyItems != 1 {
		t.Errorf("report = adjusted %v discrepancies %d", report.Adjusted, report.DiscrepancyItems)
	}

	// Exactly one ADJUSTMENT with before 100 / after 90.
	if len(f.stock.transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(f.stock.transactions))
	}
	txn := f.stock.transactions[0]
	if txn.Type != ledger.MovementAdjustment || txn.BeforeQty != 100 || txn.AfterQty != 90 {
		t.Errorf("adjustment = %s %d/%d, want ADJUSTMENT 100/90", txn.Type, txn.BeforeQty, txn.AfterQty)
	}

	// One SHORTAGE log, resolved immediately.
	if len(report.Discrepancies) != 1 {
		t.Fatalf("discrepancy logs = %d, want 1", len(report.Discrepancies))
	}
	log := report.Discrepancies[0]
	if log.Type != Shortage || log.Quantity != 10 || log.Status != DiscrepancyResolved {
		t.Errorf("log = %s qty %d status %s, want SHORTAGE 10 RESOLVED", log.Type, log.Quantity, log.Status)
	}

	// Revert restores the original quantity from the stored before value.
	reverted, err := f.svc.Revert(ctx, record.ID, "auditor")
	if err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if reverted.Status != StatusReverted {
		t.Errorf("status = %s, want REVERTED", reverted.Status)
	}
	if f.stock.quantities[partID] != 100 {
		t.Errorf("quantity = %d, want restored 100", f.stock.quantities[partID])
	}
	logs, _ := f.svc.Discrepancies(ctx, record.ID)
	if logs[0].Status != DiscrepancyReverted {
		t.Errorf("log status = %s, want REVERTED", logs[0].Status)
	}
}

func TestComplete_WithoutAdjustmentIsReportingOnly(t *testing.T) {
	f := newFixture()
	partID := f.addPart(100)

	record := createAudit(t, f, partID)
	count(t, f, record, map[id.ID]types.Quantity{partID: 110})

	report, err := f.svc.Complete(context.Background(), record.ID, false, "auditor")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if report.Adjusted {
		t.Error("report claims adjustment without ledger writes")
	}
	if len(f.stock.transactions) != 0 {
		t.Errorf("ledger transactions = %d, want 0", len(f.stock.transactions))
	}
	if f.stock.quantities[partID] != 100 {
		t.Errorf("quantity = %d, want unchanged 100", f.stock.quantities[partID])
	}
	if len(report.Discrepancies) != 1 || report.Discrepancies[0].Status != DiscrepancyLogged {
		t.Errorf("discrepancies = %+v, want one LOGGED OVERAGE", report.Discrepancies)
	}
	if report.Discrepancies[0].Type != Overage {
		t.Errorf("type = %s, want OVERAGE", report.Discrepancies[0].Type)
	}
}

func TestComplete_RecomputesCountersFromItems(t *testing.T) {
	f := newFixture()
	p1 := f.addPart(10)
	p2 := f.addPart(20)
	p3 := f.addPart(30)
	p4 := f.addPart(40)

	record := createAudit(t, f, p1, p2, p3, p4)
	count(t, f, record, map[id.ID]types.Quantity{p1: 10, p2: 20, p3: 25})

	report, err := f.svc.Complete(context.Background(), record.ID, true, "auditor")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if report.MatchedItems != 2 || report.DiscrepancyItems != 1 || report.UncountedItems != 1 {
		t.Errorf("counters = matched %d discrepant %d uncounted %d, want 2/1/1",
			report.MatchedItems, report.DiscrepancyItems, report.UncountedItems)
	}

	stored, _ := f.svc.GetByID(context.Background(), record.ID)
	if stored.MatchedItems != 2 || stored.DiscrepancyItems != 1 {
		t.Errorf("stored counters = %d/%d, want 2/1", stored.MatchedItems, stored.DiscrepancyItems)
	}
}

func TestCreate_ConflictOnOverlappingOpenAudit(t *testing.T) {
	f := newFixture()
	partID := f.addPart(10)

	createAudit(t, f, partID)
	_, err := f.svc.Create(context.Background(), CreateRequest{
		AuditDate: time.Now(),
		Type:      TypePartial,
		PartIDs:   []id.ID{partID},
	}, "auditor")
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRevert_OnlyFromCompleted(t *testing.T) {
	f := newFixture()
	partID := f.addPart(10)

	record := createAudit(t, f, partID)
	_, err := f.svc.Revert(context.Background(), record.ID, "auditor")
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("expected CONFLICT for PLANNED audit, got %v", err)
	}
}
