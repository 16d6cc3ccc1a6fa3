package request

import "github.com/shopspring/decimal"

// UpsertBillingConfigRequest sets a restaurant's tax registration and
// billing defaults. Tax type accepts NO_GST, CGST_SGST, IGST, INCLUSIVE_GST.
type UpsertBillingConfigRequest struct {
	LegalName string `json:"legal_name" binding:"required,max=160"`
	TaxNumber string `json:"tax_number" binding:"max=20"`
	PANNumber string `json:"pan_number" binding:"max=10"`
	Address   string `json:"address" binding:"max=500"`
	State     string `json:"state" binding:"max=60"`
	Pincode   string `json:"pincode" binding:"max=10"`

	TaxType string          `json:"tax_type" binding:"omitempty,oneof=NO_GST CGST_SGST IGST INCLUSIVE_GST"`
	TaxRate decimal.Decimal `json:"tax_rate"`

	ServiceChargeEnabled bool            `json:"service_charge_enabled"`
	ServiceChargeRate    decimal.Decimal `json:"service_charge_rate"`
}
