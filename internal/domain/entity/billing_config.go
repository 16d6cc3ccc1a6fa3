package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"gorm.io/gorm"
)

// BillingConfig holds a restaurant's tax registration and defaults. One row
// per restaurant; the compliance mirror snapshots these identifiers into
// every record it writes.
type BillingConfig struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"restaurant_id"`
	LegalName    string          `gorm:"size:160;not null" json:"legal_name"`
	TaxNumber    string          `gorm:"size:20" json:"tax_number,omitempty"`
	PANNumber    string          `gorm:"size:10" json:"pan_number,omitempty"`
	Address      string          `gorm:"type:text" json:"address,omitempty"`
	State        string          `gorm:"size:60" json:"state,omitempty"`
	Pincode      string          `gorm:"size:10" json:"pincode,omitempty"`
	TaxType      enum.TaxType    `gorm:"default:0" json:"tax_type"`
	TaxRate      decimal.Decimal `gorm:"type:numeric(5,2);default:0" json:"tax_rate"`

	ServiceChargeEnabled bool            `gorm:"default:false" json:"service_charge_enabled"`
	ServiceChargeRate    decimal.Decimal `gorm:"type:numeric(5,2);default:0" json:"service_charge_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new billing config
func (c *BillingConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillingConfig model
func (BillingConfig) TableName() string {
	return "billing_configs"
}

// BillCounter is the per-restaurant-per-day sequence behind bill numbers.
// The seq column is advanced only through an atomic upsert increment, never
// read-modify-write, so concurrent number generation cannot collide.
type BillCounter struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bill_counters_day,priority:1" json:"restaurant_id"`
	Day          string    `gorm:"size:8;not null;uniqueIndex:idx_bill_counters_day,priority:2" json:"day"`
	Seq          int64     `gorm:"not null;default:0" json:"seq"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new counter row
func (c *BillCounter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillCounter model
func (BillCounter) TableName() string {
	return "bill_counters"
}
