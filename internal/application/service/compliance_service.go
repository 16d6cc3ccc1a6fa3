package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	infraRepo "github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
	"github.com/xuri/excelize/v2"
)

var two = decimal.NewFromInt(2)

// ComplianceService mirrors finalized bills into the tax-reporting ledger
// and serves the reports built from it. The ledger is derived state: it can
// always be rebuilt from the bills, so writes are upserts keyed by bill id.
type ComplianceService struct {
	complianceRepo repository.ComplianceRepository
	configRepo     repository.BillingConfigRepository
	log            *logrus.Logger
}

// NewComplianceService creates a new compliance service
func NewComplianceService(
	complianceRepo repository.ComplianceRepository,
	configRepo repository.BillingConfigRepository,
	log *logrus.Logger,
) *ComplianceService {
	return &ComplianceService{
		complianceRepo: complianceRepo,
		configRepo:     configRepo,
		log:            log,
	}
}

// SyncBill writes or overwrites the ledger record for a finalized bill.
// The tax split follows the restaurant's configured treatment: CGST_SGST
// halves the total tax across the two components, IGST takes all of it,
// and NO_GST records zero components.
func (s *ComplianceService) SyncBill(ctx context.Context, bill *entity.Bill) error {
	if bill.Status != enum.BillStatusFinalized {
		return apperror.NewBadRequestError("Only finalized bills enter the compliance ledger")
	}

	cfg, err := s.configRepo.GetByRestaurant(ctx, bill.RestaurantID)
	if err != nil {
		return err
	}

	record := &entity.ComplianceRecord{
		RestaurantID:  bill.RestaurantID,
		BillID:        bill.ID,
		BillNumber:    bill.BillNumber,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.PhoneNumber,

		Subtotal:      bill.Subtotal,
		Discount:      bill.DiscountAmount,
		DiscountType:  bill.DiscountType,
		TaxableAmount: bill.Subtotal.Sub(bill.DiscountAmount).Add(bill.ServiceCharge.Amount),

		TotalTax:            bill.TotalTax,
		ServiceChargeAmount: bill.ServiceCharge.Amount,
		GrandTotal:          bill.GrandTotal,
		RoundingAdjustment:  bill.RoundingAdjustment,

		PaymentMethod: bill.PaymentMethod,
		PaymentStatus: bill.PaymentStatus,

		TableNumber: bill.TableNumber,
		SessionID:   bill.SessionID,
		Status:      bill.Status,
		BilledAt:    bill.CreatedAt,
		FinalizedAt: bill.FinalizedAt,
		CreatedBy:   bill.CreatedBy,
	}

	if cfg != nil {
		record.TaxType = cfg.TaxType
		record.TaxRate = cfg.TaxRate
		record.BusinessTaxNumber = cfg.TaxNumber
		record.BusinessPAN = cfg.PANNumber
		record.BusinessLegalName = cfg.LegalName
	}

	switch record.TaxType {
	case enum.TaxTypeCGSTSGST:
		half := bill.TotalTax.Div(two)
		record.CGSTAmount = half
		record.SGSTAmount = half
	case enum.TaxTypeIGST:
		record.IGSTAmount = bill.TotalTax
	default:
		record.CGSTAmount = decimal.Zero
		record.SGSTAmount = decimal.Zero
		record.IGSTAmount = decimal.Zero
	}

	return s.complianceRepo.Upsert(ctx, record)
}

// Logs lists ledger records matching the filter
func (s *ComplianceService) Logs(ctx context.Context, params *repository.ComplianceFilterParams) ([]entity.ComplianceRecord, int64, error) {
	return s.complianceRepo.List(ctx, params)
}

// Record returns the ledger entry for one bill
func (s *ComplianceService) Record(ctx context.Context, bill *entity.Bill) (*entity.ComplianceRecord, error) {
	record, err := s.complianceRepo.GetByBillID(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperror.NewNotFoundError("Compliance record")
	}
	return record, nil
}

// Summary aggregates the ledger per tax type over a period
func (s *ComplianceService) Summary(ctx context.Context, start, end time.Time) ([]repository.TaxTypeSummary, error) {
	if end.Before(start) {
		return nil, apperror.NewBadRequestError("End date precedes start date")
	}
	return s.complianceRepo.Summary(ctx, start, end)
}

// MonthlyReport returns a day-by-day breakdown for the given month
func (s *ComplianceService) MonthlyReport(ctx context.Context, year int, month time.Month) ([]repository.DailyTaxSummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return s.complianceRepo.DailyReport(ctx, start, end)
}

// RateBreakdown aggregates the ledger per configured tax rate
func (s *ComplianceService) RateBreakdown(ctx context.Context, start, end time.Time) ([]repository.TaxRateSummary, error) {
	if end.Before(start) {
		return nil, apperror.NewBadRequestError("End date precedes start date")
	}
	return s.complianceRepo.RateBreakdown(ctx, start, end)
}

// ExportExcel renders the ledger for a period as an xlsx workbook
func (s *ComplianceService) ExportExcel(ctx context.Context, start, end time.Time) (*bytes.Buffer, error) {
	if _, ok := infraRepo.GetRestaurantID(ctx); !ok {
		return nil, apperror.NewBadRequestError("Restaurant context required")
	}

	params := &repository.ComplianceFilterParams{
		StartDate: &start,
		EndDate:   &end,
	}
	records, _, err := s.complianceRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Tax Ledger"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Bill Number", "Billed At", "Customer", "Table",
		"Subtotal", "Discount", "Taxable Amount", "Tax Type", "Tax Rate",
		"CGST", "SGST", "IGST", "Total Tax",
		"Service Charge", "Grand Total", "Payment Method", "Payment Status",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, r := range records {
		method := ""
		if r.PaymentMethod != nil {
			method = string(*r.PaymentMethod)
		}
		values := []interface{}{
			r.BillNumber,
			r.BilledAt.Format("2006-01-02 15:04"),
			r.CustomerName,
			r.TableNumber,
			r.Subtotal.InexactFloat64(),
			r.Discount.InexactFloat64(),
			r.TaxableAmount.InexactFloat64(),
			r.TaxType.String(),
			r.TaxRate.InexactFloat64(),
			r.CGSTAmount.InexactFloat64(),
			r.SGSTAmount.InexactFloat64(),
			r.IGSTAmount.InexactFloat64(),
			r.TotalTax.InexactFloat64(),
			r.ServiceChargeAmount.InexactFloat64(),
			r.GrandTotal.InexactFloat64(),
			method,
			r.PaymentStatus.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// Totals row
	totalRow := len(records) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOTAL")
	var totalSales, totalTax decimal.Decimal
	for _, r := range records {
		totalSales = totalSales.Add(r.GrandTotal)
		totalTax = totalTax.Add(r.TotalTax)
	}
	f.SetCellValue(sheet, fmt.Sprintf("M%d", totalRow), totalTax.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("O%d", totalRow), totalSales.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
