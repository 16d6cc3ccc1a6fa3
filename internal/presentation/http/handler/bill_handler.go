package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/request"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/response"
	"github.com/tablewise/billing-api/pkg/pagination"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billingService *service.BillingService
	mergeService   *service.MergeService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billingService *service.BillingService, mergeService *service.MergeService) *BillHandler {
	return &BillHandler{
		billingService: billingService,
		mergeService:   mergeService,
	}
}

// Create handles creating a bill from placed orders
func (h *BillHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	selections := make([]service.OrderSelection, len(req.Orders))
	for i, o := range req.Orders {
		selections[i] = service.OrderSelection{OrderID: o.OrderID, ItemIndexes: o.ItemIndexes}
	}

	bill, err := h.billingService.CreateFromOrders(c.Request.Context(), &service.CreateFromOrdersInput{
		SessionID:    req.SessionID,
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Selections:   selections,
		Charges:      req.Charges.ToChargeInput(),
		Notes:        req.Notes,
		CreatedBy:    *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// CreateManual handles creating a bill from hand-entered items
func (h *BillHandler) CreateManual(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateManualBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bill, err := h.billingService.CreateManual(c.Request.Context(), &service.CreateManualInput{
		SessionID:    req.SessionID,
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
		Items:        request.ToManualItems(req.Items),
		Charges:      req.Charges.ToChargeInput(),
		Notes:        req.Notes,
		CreatedBy:    *userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// Get handles retrieving a bill with items, order refs, and audit log
func (h *BillHandler) Get(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billingService.Get(c.Request.Context(), billID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved successfully", bill)
}

// List handles listing bills with filters
func (h *BillHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &repository.BillFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    page,
			PerPage: perPage,
		},
		PhoneNumber: c.Query("phone_number"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		if statusInt, err := strconv.Atoi(statusStr); err == nil {
			status := enum.BillStatus(statusInt)
			params.Status = &status
		}
	}
	if tableStr := c.Query("table_number"); tableStr != "" {
		if table, err := strconv.Atoi(tableStr); err == nil {
			params.TableNumber = &table
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

	bills, total, err := h.billingService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	params.Pagination.Validate()
	result := pagination.NewPaginatedResult(bills,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total))
	response.SuccessWithPagination(c, 200, "Bills retrieved successfully", result)
}

// ByTable handles listing a table's bills
func (h *BillHandler) ByTable(c *gin.Context) {
	table, err := strconv.Atoi(c.Param("table"))
	if err != nil || table < 1 {
		response.BadRequest(c, "Invalid table number")
		return
	}

	var status *enum.BillStatus
	if statusStr := c.Query("status"); statusStr != "" {
		if statusInt, err := strconv.Atoi(statusStr); err == nil {
			s := enum.BillStatus(statusInt)
			status = &s
		}
	}

	bills, err := h.billingService.BillsByTable(c.Request.Context(), table, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bills retrieved successfully", bills)
}

// UpdateItems handles replacing a draft bill's items
func (h *BillHandler) UpdateItems(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.UpdateBillItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bill, err := h.billingService.UpdateItems(c.Request.Context(), billID,
		request.ToManualItems(req.Items), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill items updated successfully", bill)
}

// UpdateCharges handles replacing a draft bill's charge configuration
func (h *BillHandler) UpdateCharges(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.ChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bill, err := h.billingService.UpdateCharges(c.Request.Context(), billID, req.ToChargeInput(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill charges updated successfully", bill)
}

// UpdateCustomer handles changing customer attribution on a draft bill
func (h *BillHandler) UpdateCustomer(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bill, err := h.billingService.UpdateCustomer(c.Request.Context(), billID,
		req.CustomerName, req.PhoneNumber, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", bill)
}

// Finalize handles freezing a bill
func (h *BillHandler) Finalize(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.FinalizeBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	input := &service.FinalizeInput{
		BillID:     billID,
		PaidAmount: req.PaidAmount,
		Actor:      *userID,
	}
	if req.PaymentMethod != "" {
		method := enum.PaymentMethod(req.PaymentMethod)
		input.PaymentMethod = &method
	}

	bill, err := h.billingService.Finalize(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill finalized successfully", bill)
}

// RecordPayment handles updating payment on a bill
func (h *BillHandler) RecordPayment(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	var method *enum.PaymentMethod
	if req.PaymentMethod != "" {
		m := enum.PaymentMethod(req.PaymentMethod)
		method = &m
	}

	bill, err := h.billingService.RecordPayment(c.Request.Context(), billID, method, req.PaidAmount, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment recorded successfully", bill)
}

// Cancel handles voiding a draft bill
func (h *BillHandler) Cancel(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid bill ID")
		return
	}

	var req request.CancelBillRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	bill, err := h.billingService.Cancel(c.Request.Context(), billID, req.Reason, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill cancelled successfully", bill)
}

// Merge handles consolidating draft bills into one
func (h *BillHandler) Merge(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.MergeBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	var override *service.MergeOverride
	if req.CustomerName != "" || req.PhoneNumber != "" || req.TableNumber > 0 {
		override = &service.MergeOverride{
			CustomerName: req.CustomerName,
			PhoneNumber:  req.PhoneNumber,
			TableNumber:  req.TableNumber,
		}
	}

	merged, err := h.mergeService.Merge(c.Request.Context(), req.BillIDs, override, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bills merged successfully", merged)
}

// MergeTables handles merging the open draft bills of several tables
func (h *BillHandler) MergeTables(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.MergeTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	merged, err := h.mergeService.MergeTables(c.Request.Context(), req.TableNumbers, *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Tables merged successfully", merged)
}

// Stats handles the bill statistics endpoint
func (h *BillHandler) Stats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	stats, err := h.billingService.Stats(c.Request.Context(), since)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Statistics retrieved successfully", stats)
}
