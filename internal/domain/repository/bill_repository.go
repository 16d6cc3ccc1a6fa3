package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/pagination"
)

// BillRepository defines the interface for bill data operations
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error)
	Update(ctx context.Context, bill *entity.Bill) error
	List(ctx context.Context, params *BillFilterParams) ([]entity.Bill, int64, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Bill, error)
	ListBySession(ctx context.Context, sessionID string) ([]entity.Bill, error)
	ListByTable(ctx context.Context, tableNumber int, status *enum.BillStatus) ([]entity.Bill, error)

	// FindActiveByOrderIDs returns the first non-cancelled bill referencing
	// any of the given source orders. It is the double-billing guard.
	FindActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (*entity.Bill, error)

	// CreateItems and CreateOrderRefs insert dependent rows for a bill
	CreateItems(ctx context.Context, items []entity.BillItem) error
	ReplaceItems(ctx context.Context, billID uuid.UUID, items []entity.BillItem) error
	CreateOrderRefs(ctx context.Context, refs []entity.BillOrderRef) error

	// NextSequence atomically advances and returns the bill-number counter
	// for the given restaurant and day key. Concurrent callers never see
	// the same value.
	NextSequence(ctx context.Context, restaurantID uuid.UUID, day string) (int64, error)

	Stats(ctx context.Context, since time.Time) (*BillStats, error)
}

// BillFilterParams contains filtering parameters for bill queries
type BillFilterParams struct {
	Pagination    *pagination.PaginationParams
	Status        *enum.BillStatus
	PaymentStatus *enum.PaymentStatus
	TableNumber   *int
	PhoneNumber   string
	StartDate     *time.Time
	EndDate       *time.Time
}

// BillStats aggregates bill counts and revenue for a period
type BillStats struct {
	TotalBills   int64           `json:"total_bills"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AvgBillValue decimal.Decimal `json:"avg_bill_value"`
	Draft        int64           `json:"draft"`
	Finalized    int64           `json:"finalized"`
	Cancelled    int64           `json:"cancelled"`
}

// BillAuditRepository appends entries to a bill's audit log. Insert only:
// audit entries are never updated or deleted.
type BillAuditRepository interface {
	Append(ctx context.Context, entry *entity.BillAuditLog) error
	AppendBatch(ctx context.Context, entries []entity.BillAuditLog) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]entity.BillAuditLog, error)
}
