package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	infraRepo "github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
)

// SessionService tracks dining sessions, the unit that groups the orders of
// one table visit for billing.
type SessionService struct {
	sessionRepo repository.SessionRepository
	billRepo    repository.BillRepository
	ttl         time.Duration
	log         *logrus.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo repository.SessionRepository,
	billRepo repository.BillRepository,
	ttl time.Duration,
	log *logrus.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = entity.DefaultSessionTTL
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		billRepo:    billRepo,
		ttl:         ttl,
		log:         log,
	}
}

// FindOrCreateInput identifies the customer at a table
type FindOrCreateInput struct {
	TableNumber  int
	CustomerName string
	PhoneNumber  string
	OrderIDs     []uuid.UUID
}

// FindOrCreate returns the ACTIVE session for the (table, phone) pair,
// creating one when none exists. An expired-but-unswept session is treated
// as absent: it gets expired on the spot and a fresh session takes over.
func (s *SessionService) FindOrCreate(ctx context.Context, input *FindOrCreateInput) (*entity.Session, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Restaurant context required")
	}
	if input.TableNumber <= 0 {
		return nil, apperror.NewBadRequestError("Table number must be positive")
	}
	if input.PhoneNumber == "" {
		return nil, apperror.NewBadRequestError("Phone number is required")
	}

	now := time.Now()

	session, err := s.sessionRepo.FindActive(ctx, input.TableNumber, input.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if session != nil {
		if session.Expired(now) {
			session.Status = enum.SessionStatusExpired
			session.EndedAt = &now
			if err := s.sessionRepo.Update(ctx, session); err != nil {
				return nil, err
			}
		} else {
			if len(input.OrderIDs) > 0 {
				session.AttachOrders(input.OrderIDs)
				if err := s.sessionRepo.Update(ctx, session); err != nil {
					return nil, err
				}
			}
			return session, nil
		}
	}

	session = &entity.Session{
		RestaurantID: restaurantID,
		TableNumber:  input.TableNumber,
		CustomerName: input.CustomerName,
		PhoneNumber:  input.PhoneNumber,
		OrderIDs:     input.OrderIDs,
		StartedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AttachOrders records newly placed orders against an active session
func (s *SessionService) AttachOrders(ctx context.Context, sessionID string, orderIDs []uuid.UUID) (*entity.Session, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.AttachOrders(orderIDs)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// MarkBilled ties the session to its finalizing bill
func (s *SessionService) MarkBilled(ctx context.Context, sessionID string, billID uuid.UUID) error {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NewNotFoundError("Session")
	}
	if err := session.MarkBilled(billID, time.Now()); err != nil {
		return err
	}
	return s.sessionRepo.Update(ctx, session)
}

// RevertToActive un-claims a session whose bill was cancelled. Reverting a
// session that was never billed is a no-op.
func (s *SessionService) RevertToActive(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NewNotFoundError("Session")
	}
	if session.Status != enum.SessionStatusBilled {
		return nil
	}
	session.RevertToActive()
	return s.sessionRepo.Update(ctx, session)
}

// GetActiveSessions lists the restaurant's currently active sessions
func (s *SessionService) GetActiveSessions(ctx context.Context) ([]entity.Session, error) {
	return s.sessionRepo.ListActive(ctx)
}

// GetSessionDetails returns a session together with its non-cancelled bills
func (s *SessionService) GetSessionDetails(ctx context.Context, sessionID string) (*entity.Session, []entity.Bill, error) {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperror.NewNotFoundError("Session")
	}
	bills, err := s.billRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, bills, nil
}

// ExpireStale transitions ACTIVE sessions past their TTL to EXPIRED. Bills
// are left untouched: expiry only affects claimability for new orders.
func (s *SessionService) ExpireStale(ctx context.Context) (int64, error) {
	return s.sessionRepo.ExpireStale(ctx, time.Now())
}

// StartSweeper runs the expiry sweep on an interval until ctx is cancelled
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := s.ExpireStale(ctx)
				if err != nil {
					s.log.WithError(err).Error("session expiry sweep failed")
					continue
				}
				if count > 0 {
					s.log.WithField("expired", count).Info("expired stale sessions")
				}
			}
		}
	}()
}

func (s *SessionService) getActive(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Session")
	}
	if session.Expired(time.Now()) {
		return nil, apperror.NewConflictError("Session has expired")
	}
	return session, nil
}
