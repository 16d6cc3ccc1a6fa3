package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
	"gorm.io/gorm"
)

// DefaultSessionTTL is how long an untouched ACTIVE session stays claimable
const DefaultSessionTTL = 24 * time.Hour

// Session groups the orders of one dining visit at a table. It outlives
// individual orders but ends when a bill finalizes against it, or when the
// expiry sweep finds it stale.
type Session struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	SessionID    string             `gorm:"size:64;uniqueIndex;not null" json:"session_id"`
	RestaurantID uuid.UUID          `gorm:"type:uuid;not null;index:idx_sessions_lookup,priority:1" json:"restaurant_id"`
	TableNumber  int                `gorm:"not null;index:idx_sessions_lookup,priority:2" json:"table_number"`
	CustomerName string             `gorm:"size:120;not null" json:"customer_name"`
	PhoneNumber  string             `gorm:"size:20;not null;index:idx_sessions_lookup,priority:3" json:"phone_number"`
	Status       enum.SessionStatus `gorm:"default:0;index" json:"status"`
	OrderIDs     []uuid.UUID        `gorm:"serializer:json" json:"order_ids,omitempty"`
	BillID       *uuid.UUID         `gorm:"type:uuid" json:"bill_id,omitempty"`
	StartedAt    time.Time          `gorm:"not null" json:"started_at"`
	EndedAt      *time.Time         `json:"ended_at,omitempty"`
	ExpiresAt    time.Time          `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// BeforeCreate generates identifiers and default timestamps
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SessionID == "" {
		s.SessionID = GenerateSessionID()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = s.StartedAt.Add(DefaultSessionTTL)
	}
	return nil
}

// TableName returns the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// GenerateSessionID produces a human-scannable session identifier
func GenerateSessionID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("SES-%d-%s", time.Now().UnixMilli(), suffix)
}

// MarkBilled ties the session to the bill that finalized it. Marking a
// session billed by a second bill is rejected; re-marking by the same bill
// is a no-op so finalize retries stay idempotent.
func (s *Session) MarkBilled(billID uuid.UUID, now time.Time) error {
	if s.Status == enum.SessionStatusBilled {
		if s.BillID != nil && *s.BillID == billID {
			return nil
		}
		return apperror.NewInvalidTransitionError("Session is already billed by another bill")
	}
	s.Status = enum.SessionStatusBilled
	s.BillID = &billID
	s.EndedAt = &now
	return nil
}

// RevertToActive un-claims the session after its bill was cancelled
func (s *Session) RevertToActive() {
	s.Status = enum.SessionStatusActive
	s.BillID = nil
	s.EndedAt = nil
}

// AttachOrders appends order refs not already tracked by the session
func (s *Session) AttachOrders(orderIDs []uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(s.OrderIDs))
	for _, id := range s.OrderIDs {
		seen[id] = true
	}
	for _, id := range orderIDs {
		if !seen[id] {
			s.OrderIDs = append(s.OrderIDs, id)
			seen[id] = true
		}
	}
}

// Expired reports whether an ACTIVE session has passed its TTL
func (s *Session) Expired(now time.Time) bool {
	return s.Status == enum.SessionStatusActive && now.After(s.ExpiresAt)
}
