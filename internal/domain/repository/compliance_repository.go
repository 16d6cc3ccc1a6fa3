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

// ComplianceRepository defines the interface for the tax-reporting ledger
type ComplianceRepository interface {
	// Upsert writes the record keyed by bill id, overwriting any previous
	// version. Re-syncing the same bill never duplicates.
	Upsert(ctx context.Context, record *entity.ComplianceRecord) error
	GetByBillID(ctx context.Context, billID uuid.UUID) (*entity.ComplianceRecord, error)
	List(ctx context.Context, params *ComplianceFilterParams) ([]entity.ComplianceRecord, int64, error)

	Summary(ctx context.Context, start, end time.Time) ([]TaxTypeSummary, error)
	DailyReport(ctx context.Context, start, end time.Time) ([]DailyTaxSummary, error)
	RateBreakdown(ctx context.Context, start, end time.Time) ([]TaxRateSummary, error)
}

// ComplianceFilterParams filters ledger queries
type ComplianceFilterParams struct {
	Pagination    *pagination.PaginationParams
	TaxType       *enum.TaxType
	PaymentMethod *enum.PaymentMethod
	StartDate     *time.Time
	EndDate       *time.Time
}

// TaxTypeSummary aggregates finalized records per tax type over a period
type TaxTypeSummary struct {
	TaxType       enum.TaxType    `json:"tax_type"`
	TotalBills    int64           `json:"total_bills"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalTaxable  decimal.Decimal `json:"total_taxable"`
	TotalCGST     decimal.Decimal `json:"total_cgst"`
	TotalSGST     decimal.Decimal `json:"total_sgst"`
	TotalIGST     decimal.Decimal `json:"total_igst"`
	TotalTax      decimal.Decimal `json:"total_tax"`
}

// DailyTaxSummary is one day of the monthly report
type DailyTaxSummary struct {
	Day        time.Time       `json:"day"`
	TaxType    enum.TaxType    `json:"tax_type"`
	TotalBills int64           `json:"total_bills"`
	TotalSales decimal.Decimal `json:"total_sales"`
	TotalTax   decimal.Decimal `json:"total_tax"`
}

// TaxRateSummary aggregates per configured tax rate
type TaxRateSummary struct {
	TaxRate      decimal.Decimal `json:"tax_rate"`
	TotalBills   int64           `json:"total_bills"`
	TotalTaxable decimal.Decimal `json:"total_taxable"`
	TotalTax     decimal.Decimal `json:"total_tax"`
}

// BillingConfigRepository reads restaurant tax configuration
type BillingConfigRepository interface {
	GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*entity.BillingConfig, error)
	Upsert(ctx context.Context, config *entity.BillingConfig) error
}
