package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"gorm.io/gorm"
)

// ComplianceRecord mirrors one finalized bill into the tax-reporting ledger.
// There is exactly one record per bill id; finalize re-runs overwrite it.
// Records are never deleted outside retention cascades.
type ComplianceRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	BillID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"bill_id"`
	BillNumber   string    `gorm:"size:20;not null;index" json:"bill_number"`

	CustomerName  string `gorm:"size:120;not null" json:"customer_name"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone,omitempty"`

	Subtotal       decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Discount       decimal.Decimal   `gorm:"type:numeric(12,2);default:0" json:"discount"`
	DiscountType   enum.DiscountType `gorm:"default:0" json:"discount_type"`
	TaxableAmount  decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"taxable_amount"`

	TaxType    enum.TaxType    `gorm:"default:0;index" json:"tax_type"`
	TaxRate    decimal.Decimal `gorm:"type:numeric(5,2);default:0" json:"tax_rate"`
	CGSTAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"cgst_amount"`
	SGSTAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"sgst_amount"`
	IGSTAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"igst_amount"`
	TotalTax   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_tax"`

	ServiceChargeAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"service_charge_amount"`
	GrandTotal          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"grand_total"`
	RoundingAdjustment  decimal.Decimal `gorm:"type:numeric(12,4);default:0" json:"rounding_adjustment"`

	PaymentMethod *enum.PaymentMethod `gorm:"size:10" json:"payment_method,omitempty"`
	PaymentStatus enum.PaymentStatus  `gorm:"default:0" json:"payment_status"`

	TableNumber int    `gorm:"not null" json:"table_number"`
	SessionID   string `gorm:"size:64" json:"session_id,omitempty"`

	// Business identifiers snapshotted from the restaurant's billing config
	BusinessTaxNumber string `gorm:"size:20" json:"business_tax_number,omitempty"`
	BusinessPAN       string `gorm:"size:10" json:"business_pan,omitempty"`
	BusinessLegalName string `gorm:"size:160" json:"business_legal_name,omitempty"`

	Status      enum.BillStatus `gorm:"default:1;index" json:"status"`
	BilledAt    time.Time       `gorm:"not null;index" json:"billed_at"`
	FinalizedAt *time.Time      `json:"finalized_at,omitempty"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new compliance record
func (r *ComplianceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ComplianceRecord model
func (ComplianceRecord) TableName() string {
	return "compliance_records"
}
