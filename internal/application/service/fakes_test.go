package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
)

// In-memory repository fakes. They hold everything under one mutex and
// ignore restaurant scoping; scope enforcement is the gorm layer's job.

type memBillRepo struct {
	mu       sync.Mutex
	bills    map[uuid.UUID]*entity.Bill
	counters map[string]int64

	failCreate bool
}

func newMemBillRepo() *memBillRepo {
	return &memBillRepo{
		bills:    make(map[uuid.UUID]*entity.Bill),
		counters: make(map[string]int64),
	}
}

func (r *memBillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("simulated create failure")
	}
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	bill.CreatedAt = time.Now()
	stored := *bill
	r.bills[bill.ID] = &stored
	return nil
}

func (r *memBillRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBillRepo) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	return r.GetByID(ctx, id)
}

func (r *memBillRepo) GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.BillNumber == billNumber {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memBillRepo) Update(ctx context.Context, bill *entity.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *bill
	r.bills[bill.ID] = &stored
	return nil
}

func (r *memBillRepo) List(ctx context.Context, params *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Bill
	for _, b := range r.bills {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *memBillRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Bill
	for _, id := range ids {
		if b, ok := r.bills[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBillRepo) ListBySession(ctx context.Context, sessionID string) ([]entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Bill
	for _, b := range r.bills {
		if b.SessionID == sessionID && b.Status != enum.BillStatusCancelled {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBillRepo) ListByTable(ctx context.Context, tableNumber int, status *enum.BillStatus) ([]entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Bill
	for _, b := range r.bills {
		if b.TableNumber != tableNumber {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *memBillRepo) FindActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	for _, b := range r.bills {
		if b.Status == enum.BillStatusCancelled {
			continue
		}
		for _, ref := range b.OrderRefs {
			if want[ref.OrderID] {
				cp := *b
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *memBillRepo) CreateItems(ctx context.Context, items []entity.BillItem) error {
	return nil
}

func (r *memBillRepo) ReplaceItems(ctx context.Context, billID uuid.UUID, items []entity.BillItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bills[billID]; ok {
		b.Items = items
	}
	return nil
}

func (r *memBillRepo) CreateOrderRefs(ctx context.Context, refs []entity.BillOrderRef) error {
	return nil
}

func (r *memBillRepo) NextSequence(ctx context.Context, restaurantID uuid.UUID, day string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s:%s", restaurantID, day)
	r.counters[key]++
	return r.counters[key], nil
}

func (r *memBillRepo) Stats(ctx context.Context, since time.Time) (*repository.BillStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.BillStats{}
	for _, b := range r.bills {
		if b.CreatedAt.Before(since) {
			continue
		}
		stats.TotalBills++
		switch b.Status {
		case enum.BillStatusDraft:
			stats.Draft++
		case enum.BillStatusFinalized:
			stats.Finalized++
			stats.TotalRevenue = stats.TotalRevenue.Add(b.GrandTotal)
		case enum.BillStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []entity.BillAuditLog
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (r *memAuditRepo) Append(ctx context.Context, entry *entity.BillAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) AppendBatch(ctx context.Context, entries []entity.BillAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memAuditRepo) ListByBill(ctx context.Context, billID uuid.UUID) ([]entity.BillAuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.BillAuditLog
	for _, e := range r.entries {
		if e.BillID == billID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*entity.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
}

func (r *memOrderRepo) add(order *entity.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	stored := *order
	r.orders[order.ID] = &stored
}

func (r *memOrderRepo) get(id uuid.UUID) *entity.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

func (r *memOrderRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) ClaimOrders(ctx context.Context, ids []uuid.UUID, billID uuid.UUID, billNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		o, ok := r.orders[id]
		if !ok || o.Billed {
			return apperror.NewConflictError("One or more orders are already billed")
		}
	}
	now := time.Now()
	for _, id := range ids {
		o := r.orders[id]
		o.Billed = true
		o.BillID = &billID
		o.BillNumber = billNumber
		o.BilledAt = &now
	}
	return nil
}

func (r *memOrderRepo) RepointOrders(ctx context.Context, ids []uuid.UUID, fromBillIDs []uuid.UUID, toBillID uuid.UUID, toBillNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	from := make(map[uuid.UUID]bool, len(fromBillIDs))
	for _, id := range fromBillIDs {
		from[id] = true
	}
	for _, id := range ids {
		o, ok := r.orders[id]
		if !ok || o.BillID == nil || !from[*o.BillID] {
			return apperror.NewConflictError("One or more orders moved to another bill")
		}
	}
	for _, id := range ids {
		o := r.orders[id]
		bid := toBillID
		o.BillID = &bid
		o.BillNumber = toBillNumber
	}
	return nil
}

func (r *memOrderRepo) ReleaseOrders(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			o.Billed = false
			o.BillID = nil
			o.BillNumber = ""
			o.BilledAt = nil
		}
	}
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*entity.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.SessionID == "" {
		session.SessionID = entity.GenerateSessionID()
	}
	stored := *session
	r.sessions[session.SessionID] = &stored
	return nil
}

func (r *memSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *memSessionRepo) Update(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	r.sessions[session.SessionID] = &stored
	return nil
}

func (r *memSessionRepo) FindActive(ctx context.Context, tableNumber int, phoneNumber string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TableNumber == tableNumber && s.PhoneNumber == phoneNumber && s.Status == enum.SessionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) ListActive(ctx context.Context) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Session
	for _, s := range r.sessions {
		if s.Status == enum.SessionStatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, s := range r.sessions {
		if s.Status == enum.SessionStatusActive && now.After(s.ExpiresAt) {
			s.Status = enum.SessionStatusExpired
			ended := now
			s.EndedAt = &ended
			count++
		}
	}
	return count, nil
}

type memComplianceRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*entity.ComplianceRecord
}

func newMemComplianceRepo() *memComplianceRepo {
	return &memComplianceRepo{records: make(map[uuid.UUID]*entity.ComplianceRecord)}
}

func (r *memComplianceRepo) Upsert(ctx context.Context, record *entity.ComplianceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	stored := *record
	r.records[record.BillID] = &stored
	return nil
}

func (r *memComplianceRepo) GetByBillID(ctx context.Context, billID uuid.UUID) (*entity.ComplianceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[billID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (r *memComplianceRepo) List(ctx context.Context, params *repository.ComplianceFilterParams) ([]entity.ComplianceRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ComplianceRecord
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, int64(len(out)), nil
}

func (r *memComplianceRepo) Summary(ctx context.Context, start, end time.Time) ([]repository.TaxTypeSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := make(map[enum.TaxType]*repository.TaxTypeSummary)
	for _, rec := range r.records {
		s, ok := byType[rec.TaxType]
		if !ok {
			s = &repository.TaxTypeSummary{TaxType: rec.TaxType}
			byType[rec.TaxType] = s
		}
		s.TotalBills++
		s.TotalSales = s.TotalSales.Add(rec.GrandTotal)
		s.TotalTaxable = s.TotalTaxable.Add(rec.TaxableAmount)
		s.TotalCGST = s.TotalCGST.Add(rec.CGSTAmount)
		s.TotalSGST = s.TotalSGST.Add(rec.SGSTAmount)
		s.TotalIGST = s.TotalIGST.Add(rec.IGSTAmount)
		s.TotalTax = s.TotalTax.Add(rec.TotalTax)
	}
	var out []repository.TaxTypeSummary
	for _, s := range byType {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memComplianceRepo) DailyReport(ctx context.Context, start, end time.Time) ([]repository.DailyTaxSummary, error) {
	return nil, nil
}

func (r *memComplianceRepo) RateBreakdown(ctx context.Context, start, end time.Time) ([]repository.TaxRateSummary, error) {
	return nil, nil
}

type memConfigRepo struct {
	mu      sync.Mutex
	configs map[uuid.UUID]*entity.BillingConfig
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: make(map[uuid.UUID]*entity.BillingConfig)}
}

func (r *memConfigRepo) GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*entity.BillingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.configs[restaurantID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memConfigRepo) Upsert(ctx context.Context, config *entity.BillingConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *config
	r.configs[config.RestaurantID] = &stored
	return nil
}
