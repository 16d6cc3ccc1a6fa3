package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/request"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/response"
	"github.com/tablewise/billing-api/pkg/pagination"
)

// ComplianceHandler handles tax-ledger and billing-config HTTP requests
type ComplianceHandler struct {
	complianceService *service.ComplianceService
	configRepo        repository.BillingConfigRepository
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(complianceService *service.ComplianceService, configRepo repository.BillingConfigRepository) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		configRepo:        configRepo,
	}
}

// Logs handles listing ledger records
func (h *ComplianceHandler) Logs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.ComplianceFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
	}

	if taxTypeStr := c.Query("tax_type"); taxTypeStr != "" {
		taxType := enum.ParseTaxType(taxTypeStr)
		params.TaxType = &taxType
	}
	if methodStr := c.Query("payment_method"); methodStr != "" {
		method := enum.PaymentMethod(methodStr)
		if method.Valid() {
			params.PaymentMethod = &method
		}
	}
	if startDateStr := c.Query("start_date"); startDateStr != "" {
		if startDate, err := time.Parse("2006-01-02", startDateStr); err == nil {
			params.StartDate = &startDate
		}
	}
	if endDateStr := c.Query("end_date"); endDateStr != "" {
		if endDate, err := time.Parse("2006-01-02", endDateStr); err == nil {
			params.EndDate = &endDate
		}
	}

	records, total, err := h.complianceService.Logs(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	params.Pagination.Validate()
	result := pagination.NewPaginatedResult(records,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total))
	response.SuccessWithPagination(c, 200, "Compliance records retrieved successfully", result)
}

// Summary handles the per-tax-type aggregation report
func (h *ComplianceHandler) Summary(c *gin.Context) {
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	summary, err := h.complianceService.Summary(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tax summary retrieved successfully", summary)
}

// MonthlyReport handles the day-by-day report for one month
func (h *ComplianceHandler) MonthlyReport(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, "Invalid year")
		return
	}
	monthInt, err := strconv.Atoi(c.Query("month"))
	if err != nil || monthInt < 1 || monthInt > 12 {
		response.BadRequest(c, "Invalid month")
		return
	}

	report, err := h.complianceService.MonthlyReport(c.Request.Context(), year, time.Month(monthInt))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Monthly report retrieved successfully", report)
}

// RateBreakdown handles the per-tax-rate aggregation report
func (h *ComplianceHandler) RateBreakdown(c *gin.Context) {
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	breakdown, err := h.complianceService.RateBreakdown(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Rate breakdown retrieved successfully", breakdown)
}

// Export handles downloading the ledger as an xlsx workbook
func (h *ComplianceHandler) Export(c *gin.Context) {
	start, end, ok := parsePeriod(c)
	if !ok {
		return
	}

	buf, err := h.complianceService.ExportExcel(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("tax-ledger-%s-to-%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GetConfig handles reading the restaurant's billing configuration
func (h *ComplianceHandler) GetConfig(c *gin.Context) {
	restaurantID := GetRestaurantID(c)
	config, err := h.configRepo.GetByRestaurant(c.Request.Context(), restaurantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if config == nil {
		response.NotFound(c, "Billing configuration not found")
		return
	}

	response.OK(c, "Billing configuration retrieved successfully", config)
}

// UpsertConfig handles setting the restaurant's billing configuration
func (h *ComplianceHandler) UpsertConfig(c *gin.Context) {
	restaurantID := GetRestaurantID(c)

	var req request.UpsertBillingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	config := &entity.BillingConfig{
		RestaurantID:         restaurantID,
		LegalName:            req.LegalName,
		TaxNumber:            req.TaxNumber,
		PANNumber:            req.PANNumber,
		Address:              req.Address,
		State:                req.State,
		Pincode:              req.Pincode,
		TaxType:              enum.ParseTaxType(req.TaxType),
		TaxRate:              req.TaxRate,
		ServiceChargeEnabled: req.ServiceChargeEnabled,
		ServiceChargeRate:    req.ServiceChargeRate,
	}

	if err := h.configRepo.Upsert(c.Request.Context(), config); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Billing configuration saved successfully", config)
}

// parsePeriod reads start_date and end_date query params, defaulting to the
// current month
func parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	end := now

	if startDateStr := c.Query("start_date"); startDateStr != "" {
		parsed, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			response.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
			return start, end, false
		}
		start = parsed
	}
	if endDateStr := c.Query("end_date"); endDateStr != "" {
		parsed, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			response.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
			return start, end, false
		}
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, true
}
