package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/entity"
	domainRepo "github.com/tablewise/billing-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type complianceRepository struct {
	db *gorm.DB
}

// NewComplianceRepository creates a new compliance ledger repository
func NewComplianceRepository(db *gorm.DB) domainRepo.ComplianceRepository {
	return &complianceRepository{db: db}
}

// Upsert keys on bill_id so re-syncing a bill after a payment update
// overwrites the earlier record instead of duplicating it.
func (r *complianceRepository) Upsert(ctx context.Context, record *entity.ComplianceRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bill_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_name", "customer_phone", "subtotal", "discount",
			"discount_type", "taxable_amount", "tax_type", "tax_rate",
			"cgst_amount", "sgst_amount", "igst_amount", "total_tax",
			"service_charge_amount", "grand_total", "rounding_adjustment",
			"payment_method", "payment_status", "status", "finalized_at",
			"updated_at",
		}),
	}).Create(record).Error
}

func (r *complianceRepository) GetByBillID(ctx context.Context, billID uuid.UUID) (*entity.ComplianceRecord, error) {
	var record entity.ComplianceRecord
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		First(&record, "bill_id = ?", billID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

func (r *complianceRepository) List(ctx context.Context, params *domainRepo.ComplianceFilterParams) ([]entity.ComplianceRecord, int64, error) {
	var records []entity.ComplianceRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ComplianceRecord{}).Scopes(RestaurantScope(ctx))

	if params.TaxType != nil {
		query = query.Where("tax_type = ?", *params.TaxType)
	}
	if params.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *params.PaymentMethod)
	}
	if params.StartDate != nil {
		query = query.Where("billed_at >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("billed_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// A nil pagination means the caller wants the full period, e.g. exports
	if params.Pagination != nil {
		params.Pagination.Validate()
		query = query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage)
	}
	err := query.Order("billed_at DESC").Find(&records).Error

	return records, total, err
}

func (r *complianceRepository) Summary(ctx context.Context, start, end time.Time) ([]domainRepo.TaxTypeSummary, error) {
	var rows []domainRepo.TaxTypeSummary
	err := r.db.WithContext(ctx).Model(&entity.ComplianceRecord{}).
		Scopes(RestaurantScope(ctx)).
		Where("billed_at >= ? AND billed_at <= ?", start, end).
		Select(`tax_type,
			COUNT(*) AS total_bills,
			COALESCE(SUM(grand_total), 0) AS total_sales,
			COALESCE(SUM(taxable_amount), 0) AS total_taxable,
			COALESCE(SUM(cgst_amount), 0) AS total_cgst,
			COALESCE(SUM(sgst_amount), 0) AS total_sgst,
			COALESCE(SUM(igst_amount), 0) AS total_igst,
			COALESCE(SUM(total_tax), 0) AS total_tax`).
		Group("tax_type").
		Order("tax_type").
		Scan(&rows).Error
	return rows, err
}

func (r *complianceRepository) DailyReport(ctx context.Context, start, end time.Time) ([]domainRepo.DailyTaxSummary, error) {
	var rows []domainRepo.DailyTaxSummary
	err := r.db.WithContext(ctx).Model(&entity.ComplianceRecord{}).
		Scopes(RestaurantScope(ctx)).
		Where("billed_at >= ? AND billed_at <= ?", start, end).
		Select(`DATE_TRUNC('day', billed_at) AS day,
			tax_type,
			COUNT(*) AS total_bills,
			COALESCE(SUM(grand_total), 0) AS total_sales,
			COALESCE(SUM(total_tax), 0) AS total_tax`).
		Group("DATE_TRUNC('day', billed_at), tax_type").
		Order("day, tax_type").
		Scan(&rows).Error
	return rows, err
}

func (r *complianceRepository) RateBreakdown(ctx context.Context, start, end time.Time) ([]domainRepo.TaxRateSummary, error) {
	var rows []domainRepo.TaxRateSummary
	err := r.db.WithContext(ctx).Model(&entity.ComplianceRecord{}).
		Scopes(RestaurantScope(ctx)).
		Where("billed_at >= ? AND billed_at <= ?", start, end).
		Select(`tax_rate,
			COUNT(*) AS total_bills,
			COALESCE(SUM(taxable_amount), 0) AS total_taxable,
			COALESCE(SUM(total_tax), 0) AS total_tax`).
		Group("tax_rate").
		Order("tax_rate").
		Scan(&rows).Error
	return rows, err
}

type billingConfigRepository struct {
	db *gorm.DB
}

// NewBillingConfigRepository creates a new billing config repository
func NewBillingConfigRepository(db *gorm.DB) domainRepo.BillingConfigRepository {
	return &billingConfigRepository{db: db}
}

func (r *billingConfigRepository) GetByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*entity.BillingConfig, error) {
	var config entity.BillingConfig
	err := r.db.WithContext(ctx).
		First(&config, "restaurant_id = ?", restaurantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &config, err
}

func (r *billingConfigRepository) Upsert(ctx context.Context, config *entity.BillingConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"legal_name", "tax_number", "pan_number", "address", "state",
			"pincode", "tax_type", "tax_rate", "service_charge_enabled",
			"service_charge_rate", "updated_at",
		}),
	}).Create(config).Error
}
