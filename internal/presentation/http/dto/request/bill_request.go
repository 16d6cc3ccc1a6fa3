package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
)

// TaxLineRequest is one named tax rate on a bill
type TaxLineRequest struct {
	Name string          `json:"name" binding:"required,max=60"`
	Rate decimal.Decimal `json:"rate"`
}

// ServiceChargeRequest is the service charge configuration on a bill
type ServiceChargeRequest struct {
	Enabled bool            `json:"enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

// AdditionalChargeRequest is a flat named charge added after tax
type AdditionalChargeRequest struct {
	Name   string          `json:"name" binding:"required,max=60"`
	Amount decimal.Decimal `json:"amount"`
}

// ChargesRequest bundles the charge configuration of a bill. Discount type
// accepts the client spellings PERCENT and FLAT alongside the canonical
// PERCENTAGE and FIXED.
type ChargesRequest struct {
	Discount          decimal.Decimal           `json:"discount"`
	DiscountType      string                    `json:"discount_type"`
	Taxes             []TaxLineRequest          `json:"taxes"`
	ServiceCharge     *ServiceChargeRequest     `json:"service_charge"`
	AdditionalCharges []AdditionalChargeRequest `json:"additional_charges"`
}

// ToChargeInput normalizes the request into the service-layer input
func (r *ChargesRequest) ToChargeInput() service.ChargeInput {
	input := service.ChargeInput{
		Discount:     r.Discount,
		DiscountType: enum.ParseDiscountType(r.DiscountType),
	}
	for _, tax := range r.Taxes {
		input.Taxes = append(input.Taxes, entity.TaxLine{Name: tax.Name, Rate: tax.Rate})
	}
	if r.ServiceCharge != nil {
		input.ServiceCharge = entity.ServiceCharge{
			Enabled: r.ServiceCharge.Enabled,
			Rate:    r.ServiceCharge.Rate,
		}
	}
	for _, charge := range r.AdditionalCharges {
		input.AdditionalCharges = append(input.AdditionalCharges, entity.AdditionalCharge{
			Name:   charge.Name,
			Amount: charge.Amount,
		})
	}
	return input
}

// OrderSelectionRequest picks an order, optionally restricted to some items
type OrderSelectionRequest struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	ItemIndexes []int     `json:"item_indexes"`
}

// CreateBillRequest creates a bill from placed orders
type CreateBillRequest struct {
	SessionID    string                  `json:"session_id"`
	TableNumber  int                     `json:"table_number" binding:"required,min=1"`
	CustomerName string                  `json:"customer_name" binding:"max=120"`
	PhoneNumber  string                  `json:"phone_number" binding:"required,max=20"`
	Orders       []OrderSelectionRequest `json:"orders" binding:"required,min=1"`
	Charges      ChargesRequest          `json:"charges"`
	Notes        string                  `json:"notes" binding:"max=500"`
}

// ManualItemRequest is one hand-entered bill line
type ManualItemRequest struct {
	ItemID    string              `json:"item_id" binding:"max=64"`
	Name      string              `json:"name" binding:"required,max=160"`
	Qty       int                 `json:"qty" binding:"required,min=1"`
	UnitPrice decimal.Decimal     `json:"unit_price"`
	Variant   *entity.ItemVariant `json:"variant"`
	Addons    []entity.ItemAddon  `json:"addons"`
}

// CreateManualBillRequest creates a bill from hand-entered items
type CreateManualBillRequest struct {
	SessionID    string              `json:"session_id"`
	TableNumber  int                 `json:"table_number" binding:"required,min=1"`
	CustomerName string              `json:"customer_name" binding:"max=120"`
	PhoneNumber  string              `json:"phone_number" binding:"required,max=20"`
	Items        []ManualItemRequest `json:"items" binding:"required,min=1"`
	Charges      ChargesRequest      `json:"charges"`
	Notes        string              `json:"notes" binding:"max=500"`
}

// UpdateBillItemsRequest replaces a draft bill's items
type UpdateBillItemsRequest struct {
	Items []ManualItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateCustomerRequest changes customer attribution on a draft bill
type UpdateCustomerRequest struct {
	CustomerName string `json:"customer_name" binding:"required,max=120"`
	PhoneNumber  string `json:"phone_number" binding:"required,max=20"`
}

// FinalizeBillRequest freezes a bill, optionally recording payment
type FinalizeBillRequest struct {
	PaymentMethod string           `json:"payment_method" binding:"omitempty,oneof=CASH CARD UPI MIXED"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
}

// RecordPaymentRequest updates the payment on a bill
type RecordPaymentRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=CASH CARD UPI MIXED"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// CancelBillRequest voids a draft bill
type CancelBillRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// MergeBillsRequest merges draft bills by id; order matters. The customer
// fields optionally override the attribution picked from the largest source.
type MergeBillsRequest struct {
	BillIDs      []uuid.UUID `json:"bill_ids" binding:"required,min=2"`
	CustomerName string      `json:"customer_name" binding:"max=120"`
	PhoneNumber  string      `json:"phone_number" binding:"max=20"`
	TableNumber  int         `json:"table_number" binding:"omitempty,min=1"`
}

// MergeTablesRequest merges the open draft bills of the given tables
type MergeTablesRequest struct {
	TableNumbers []int `json:"table_numbers" binding:"required,min=2"`
}

// ToManualItems converts request items into the service-layer inputs
func ToManualItems(items []ManualItemRequest) []service.ManualItemInput {
	out := make([]service.ManualItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, service.ManualItemInput{
			ItemID:    item.ItemID,
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			Variant:   item.Variant,
			Addons:    item.Addons,
		})
	}
	return out
}
