package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is one line of an order as placed by the customer
type OrderItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Qty       int             `json:"qty"`
	Variant   *ItemVariant    `json:"variant,omitempty"`
	Addons    []ItemAddon     `json:"addons,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is the order-store record this subsystem reads and claims. The menu
// and ordering flows that produce these rows live elsewhere; billing only
// selects them, flips the billed flag, and releases them on cancellation.
// An order can be claimed by at most one non-cancelled bill at a time.
type Order struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID   `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	SessionID    string      `gorm:"size:64;not null;index" json:"session_id"`
	TableNumber  int         `gorm:"not null" json:"table_number"`
	Items        []OrderItem `gorm:"serializer:json" json:"items"`
	Billed       bool        `gorm:"default:false;index" json:"billed"`
	BillID       *uuid.UUID  `gorm:"type:uuid" json:"bill_id,omitempty"`
	BillNumber   string      `gorm:"size:20" json:"bill_number,omitempty"`
	BilledAt     *time.Time  `json:"billed_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}
