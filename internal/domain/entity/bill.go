package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
	"gorm.io/gorm"
)

// TaxLine is a named tax rate applied to a bill, with its computed amount
type TaxLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// ServiceCharge is the restaurant-set percentage fee applied before tax
type ServiceCharge struct {
	Enabled bool            `json:"enabled"`
	Rate    decimal.Decimal `json:"rate"`
	Amount  decimal.Decimal `json:"amount"`
}

// AdditionalCharge is a named flat charge added after tax
type AdditionalCharge struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MergeSource records one bill consumed by a merge
type MergeSource struct {
	BillID     uuid.UUID `json:"bill_id"`
	BillNumber string    `json:"bill_number"`
	MergedAt   time.Time `json:"merged_at"`
}

// Bill is the financial document derived from one or more orders.
// Totals are always derived through billing.Compute from the current items
// and charge configuration; they are never written independently. Once the
// status is FINALIZED, items and charges are frozen and only the payment
// fields may still change.
type Bill struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_bills_restaurant_number,priority:1" json:"restaurant_id"`
	BillNumber   string     `gorm:"size:20;not null;uniqueIndex:idx_bills_restaurant_number,priority:2" json:"bill_number"`
	SessionID    string     `gorm:"size:64;not null;index" json:"session_id"`
	TableNumber  int        `gorm:"not null;index" json:"table_number"`
	MergedTables []int      `gorm:"serializer:json" json:"merged_tables,omitempty"`
	CustomerName string     `gorm:"size:120;not null" json:"customer_name"`
	PhoneNumber  string     `gorm:"size:20;not null;index" json:"phone_number"`

	// Charge configuration, mutable only while the bill is DRAFT
	Discount          decimal.Decimal    `gorm:"type:numeric(12,2);default:0" json:"discount"`
	DiscountType      enum.DiscountType  `gorm:"default:0" json:"discount_type"`
	Taxes             []TaxLine          `gorm:"serializer:json" json:"taxes"`
	ServiceCharge     ServiceCharge      `gorm:"serializer:json" json:"service_charge"`
	AdditionalCharges []AdditionalCharge `gorm:"serializer:json" json:"additional_charges"`

	// Derived totals, set only via ApplyTotals
	Subtotal           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"discount_amount"`
	TotalTax           decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"total_tax"`
	GrandTotal         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"grand_total"`
	RoundingAdjustment decimal.Decimal `gorm:"type:numeric(12,4);default:0" json:"rounding_adjustment"`

	PaymentStatus enum.PaymentStatus  `gorm:"default:0" json:"payment_status"`
	PaymentMethod *enum.PaymentMethod `gorm:"size:10" json:"payment_method,omitempty"`
	PaidAmount    decimal.Decimal     `gorm:"type:numeric(12,2);default:0" json:"paid_amount"`

	Status     enum.BillStatus `gorm:"default:0;index" json:"status"`
	MergedFrom []MergeSource   `gorm:"serializer:json" json:"merged_from,omitempty"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`

	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Items     []BillItem     `gorm:"foreignKey:BillID" json:"items,omitempty"`
	OrderRefs []BillOrderRef `gorm:"foreignKey:BillID" json:"order_refs,omitempty"`
	AuditLog  []BillAuditLog `gorm:"foreignKey:BillID" json:"audit_log,omitempty"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// EnsureDraft rejects item or charge mutation on a non-draft bill
func (b *Bill) EnsureDraft() error {
	if b.Status != enum.BillStatusDraft {
		return apperror.NewInvalidTransitionError("Cannot modify a " + b.Status.String() + " bill")
	}
	return nil
}

// Finalize transitions the bill to FINALIZED. Finalizing twice is rejected.
func (b *Bill) Finalize(now time.Time) error {
	if b.Status == enum.BillStatusFinalized {
		return apperror.NewInvalidTransitionError("Bill is already finalized")
	}
	if !b.Status.CanTransitionTo(enum.BillStatusFinalized) {
		return apperror.NewInvalidTransitionError("Cannot finalize a " + b.Status.String() + " bill")
	}
	b.Status = enum.BillStatusFinalized
	b.FinalizedAt = &now
	return nil
}

// Cancel transitions the bill to CANCELLED. A finalized bill cannot be
// cancelled; it has to be refunded or credited through a separate flow.
func (b *Bill) Cancel(now time.Time) error {
	if b.Status == enum.BillStatusFinalized {
		return apperror.NewInvalidTransitionError("Cannot cancel a finalized bill")
	}
	if !b.Status.CanTransitionTo(enum.BillStatusCancelled) {
		return apperror.NewInvalidTransitionError("Cannot cancel a " + b.Status.String() + " bill")
	}
	b.Status = enum.BillStatusCancelled
	b.CancelledAt = &now
	return nil
}

// RecordPayment updates the payment fields. This is the only mutation allowed
// on a finalized bill.
func (b *Bill) RecordPayment(method *enum.PaymentMethod, amount decimal.Decimal) error {
	if b.Status == enum.BillStatusCancelled {
		return apperror.NewInvalidTransitionError("Cannot record payment on a cancelled bill")
	}
	if amount.IsNegative() {
		return apperror.NewBadRequestError("Paid amount cannot be negative")
	}
	if method != nil {
		b.PaymentMethod = method
	}
	b.PaidAmount = amount
	if amount.GreaterThanOrEqual(b.GrandTotal) {
		b.PaymentStatus = enum.PaymentStatusPaid
	} else if amount.IsPositive() {
		b.PaymentStatus = enum.PaymentStatusPartial
	} else {
		b.PaymentStatus = enum.PaymentStatusPending
	}
	return nil
}

// SourceOrderIDs returns the order ids this bill claims
func (b *Bill) SourceOrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.OrderRefs))
	for _, ref := range b.OrderRefs {
		ids = append(ids, ref.OrderID)
	}
	return ids
}
