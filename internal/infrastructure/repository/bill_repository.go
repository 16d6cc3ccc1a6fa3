package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	domainRepo "github.com/tablewise/billing-api/internal/domain/repository"
	"gorm.io/gorm"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Preload("Items").
		Preload("OrderRefs").
		Preload("AuditLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		First(&bill, "bill_number = ?", billNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) Update(ctx context.Context, bill *entity.Bill) error {
	return r.db.WithContext(ctx).Save(bill).Error
}

func (r *billRepository) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Bill{}).Scopes(RestaurantScope(ctx))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.TableNumber != nil {
		query = query.Where("table_number = ?", *params.TableNumber)
	}
	if params.PhoneNumber != "" {
		query = query.Where("phone_number = ?", params.PhoneNumber)
	}
	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Items").
		Order("created_at DESC").
		Find(&bills).Error

	return bills, total, err
}

func (r *billRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Bill, error) {
	var bills []entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Preload("Items").
		Preload("OrderRefs").
		Where("id IN ?", ids).
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) ListBySession(ctx context.Context, sessionID string) ([]entity.Bill, error) {
	var bills []entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Where("session_id = ? AND status <> ?", sessionID, enum.BillStatusCancelled).
		Order("created_at DESC").
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) ListByTable(ctx context.Context, tableNumber int, status *enum.BillStatus) ([]entity.Bill, error) {
	var bills []entity.Bill
	query := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Where("table_number = ?", tableNumber)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Order("created_at DESC").Find(&bills).Error
	return bills, err
}

func (r *billRepository) FindActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Joins("JOIN bill_order_refs ON bill_order_refs.bill_id = bills.id").
		Where("bill_order_refs.order_id IN ?", orderIDs).
		Where("bills.status <> ?", enum.BillStatusCancelled).
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) CreateItems(ctx context.Context, items []entity.BillItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *billRepository) ReplaceItems(ctx context.Context, billID uuid.UUID, items []entity.BillItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BillItem{}, "bill_id = ?", billID).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *billRepository) CreateOrderRefs(ctx context.Context, refs []entity.BillOrderRef) error {
	if len(refs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&refs).Error
}

// NextSequence advances the per-restaurant-per-day counter with a single
// atomic upsert. The RETURNING clause hands back the post-increment value,
// so two concurrent callers can never observe the same sequence.
func (r *billRepository) NextSequence(ctx context.Context, restaurantID uuid.UUID, day string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO bill_counters (id, restaurant_id, day, seq, created_at, updated_at)
		VALUES (?, ?, ?, 1, NOW(), NOW())
		ON CONFLICT (restaurant_id, day)
		DO UPDATE SET seq = bill_counters.seq + 1, updated_at = NOW()
		RETURNING seq`,
		uuid.New(), restaurantID, day,
	).Scan(&seq).Error
	return seq, err
}

func (r *billRepository) Stats(ctx context.Context, since time.Time) (*domainRepo.BillStats, error) {
	var row struct {
		TotalBills   int64
		TotalRevenue decimal.Decimal
		Draft        int64
		Finalized    int64
		Cancelled    int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Scopes(RestaurantScope(ctx)).
		Where("created_at >= ?", since).
		Select(`COUNT(*) AS total_bills,
			COALESCE(SUM(CASE WHEN status = ? THEN grand_total ELSE 0 END), 0) AS total_revenue,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS draft,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS finalized,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS cancelled`,
			enum.BillStatusFinalized, enum.BillStatusDraft, enum.BillStatusFinalized, enum.BillStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &domainRepo.BillStats{
		TotalBills:   row.TotalBills,
		TotalRevenue: row.TotalRevenue,
		Draft:        row.Draft,
		Finalized:    row.Finalized,
		Cancelled:    row.Cancelled,
	}
	if row.Finalized > 0 {
		stats.AvgBillValue = row.TotalRevenue.Div(decimal.NewFromInt(row.Finalized)).Round(2)
	}
	return stats, nil
}

type billAuditRepository struct {
	db *gorm.DB
}

// NewBillAuditRepository creates an append-only audit log repository
func NewBillAuditRepository(db *gorm.DB) domainRepo.BillAuditRepository {
	return &billAuditRepository{db: db}
}

func (r *billAuditRepository) Append(ctx context.Context, entry *entity.BillAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *billAuditRepository) AppendBatch(ctx context.Context, entries []entity.BillAuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *billAuditRepository) ListByBill(ctx context.Context, billID uuid.UUID) ([]entity.BillAuditLog, error) {
	var entries []entity.BillAuditLog
	err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("timestamp ASC").
		Find(&entries).Error
	return entries, err
}
