package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/entity"
)

// SessionRepository defines the interface for dining-session data operations
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*entity.Session, error)
	Update(ctx context.Context, session *entity.Session) error

	// FindActive returns the ACTIVE session for the exact
	// (restaurant, table, phone) tuple, or nil when none exists.
	FindActive(ctx context.Context, tableNumber int, phoneNumber string) (*entity.Session, error)
	ListActive(ctx context.Context) ([]entity.Session, error)

	// ExpireStale marks ACTIVE sessions past their TTL as EXPIRED and
	// returns how many were transitioned. It never touches bills.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// OrderRepository is the surface this subsystem consumes from the order
// store. Order creation and menu composition live in a separate service;
// billing only reads, claims, and releases.
type OrderRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Order, error)

	// ClaimOrders atomically flips the billed flag on all given orders.
	// It fails with Conflict when any order is already claimed, leaving
	// no partial claims behind.
	ClaimOrders(ctx context.Context, ids []uuid.UUID, billID uuid.UUID, billNumber string) error

	// ReleaseOrders clears the billed flag and bill back-references
	ReleaseOrders(ctx context.Context, ids []uuid.UUID) error

	// RepointOrders moves claims held by the source bills onto the target
	// bill in one conditional update. It fails with Conflict when any order
	// is no longer claimed by one of the sources, changing nothing.
	RepointOrders(ctx context.Context, ids []uuid.UUID, fromBillIDs []uuid.UUID, toBillID uuid.UUID, toBillNumber string) error
}
