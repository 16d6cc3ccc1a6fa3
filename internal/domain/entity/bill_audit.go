package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"gorm.io/gorm"
)

// BillAuditLog is one append-only audit entry for a bill. Rows are only ever
// inserted; the repository exposes no update or delete for them.
type BillAuditLog struct {
	ID          uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	BillID      uuid.UUID              `gorm:"type:uuid;not null;index" json:"bill_id"`
	Action      enum.AuditAction       `gorm:"size:40;not null" json:"action"`
	PerformedBy uuid.UUID              `gorm:"type:uuid;not null" json:"performed_by"`
	Details     map[string]interface{} `gorm:"serializer:json" json:"details,omitempty"`
	Timestamp   time.Time              `gorm:"not null" json:"timestamp"`
}

// BeforeCreate generates a UUID and stamps the entry
func (l *BillAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	return nil
}

// TableName returns the table name for the BillAuditLog model
func (BillAuditLog) TableName() string {
	return "bill_audit_logs"
}

// NewAuditEntry builds an audit entry for a bill action
func NewAuditEntry(billID uuid.UUID, action enum.AuditAction, actor uuid.UUID, details map[string]interface{}) *BillAuditLog {
	return &BillAuditLog{
		BillID:      billID,
		Action:      action,
		PerformedBy: actor,
		Details:     details,
		Timestamp:   time.Now(),
	}
}
