package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemVariant is the chosen variant of a menu item
type ItemVariant struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ItemAddon is an add-on chosen with a menu item
type ItemAddon struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// BillItem is one billable line copied from an order. Rows are immutable
// after creation; item-level edits replace the whole set on a draft bill.
// SourceOrderID keeps provenance so cancelling a bill can release exactly
// the orders it claimed.
type BillItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BillID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bill_id"`
	ItemID        string          `gorm:"size:64;not null" json:"item_id"`
	Name          string          `gorm:"size:160;not null" json:"name"`
	ImageURL      string          `gorm:"size:512" json:"image_url,omitempty"`
	Qty           int             `gorm:"not null" json:"qty"`
	Variant       *ItemVariant    `gorm:"serializer:json" json:"variant,omitempty"`
	Addons        []ItemAddon     `gorm:"serializer:json" json:"addons,omitempty"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_total"`
	SourceOrderID *uuid.UUID      `gorm:"type:uuid;index" json:"source_order_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new bill item
func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}

// BillOrderRef links a bill to one claimed source order. The uniqueness
// conflict check for double billing runs against these rows joined with the
// owning bill's status.
type BillOrderRef struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BillID    uuid.UUID `gorm:"type:uuid;not null;index" json:"bill_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new order ref
func (r *BillOrderRef) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillOrderRef model
func (BillOrderRef) TableName() string {
	return "bill_order_refs"
}
