package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
)

func TestFindOrCreateReturnsExistingActiveSession(t *testing.T) {
	e := newEnv(t)

	first, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber:  4,
		CustomerName: "Asha",
		PhoneNumber:  "9000000030",
	})
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}
	if !strings.HasPrefix(first.SessionID, "SES-") {
		t.Errorf("session id %q missing SES- prefix", first.SessionID)
	}

	second, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 4,
		PhoneNumber: "9000000030",
	})
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("got new session %s, want existing %s", second.SessionID, first.SessionID)
	}

	// Different phone at the same table is a different party
	other, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 4,
		PhoneNumber: "9000000031",
	})
	if err != nil {
		t.Fatalf("other FindOrCreate: %v", err)
	}
	if other.SessionID == first.SessionID {
		t.Error("distinct phone reused the same session")
	}
}

func TestFindOrCreateReplacesExpiredSession(t *testing.T) {
	e := newEnv(t)

	stale, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 2,
		PhoneNumber: "9000000032",
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	// Age the session past its TTL
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	if err := e.sessions.Update(e.ctx, stale); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fresh, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 2,
		PhoneNumber: "9000000032",
	})
	if err != nil {
		t.Fatalf("FindOrCreate after expiry: %v", err)
	}
	if fresh.SessionID == stale.SessionID {
		t.Error("expired session was reused")
	}

	old, _ := e.sessions.GetBySessionID(e.ctx, stale.SessionID)
	if old.Status != enum.SessionStatusExpired {
		t.Errorf("stale session status = %s, want EXPIRED", old.Status)
	}
}

func TestMarkBilledIsIdempotentPerBill(t *testing.T) {
	e := newEnv(t)

	session, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 3,
		PhoneNumber: "9000000033",
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	billID := uuid.New()
	if err := e.sessionSvc.MarkBilled(e.ctx, session.SessionID, billID); err != nil {
		t.Fatalf("MarkBilled: %v", err)
	}
	if err := e.sessionSvc.MarkBilled(e.ctx, session.SessionID, billID); err != nil {
		t.Fatalf("repeat MarkBilled by same bill: %v", err)
	}

	err = e.sessionSvc.MarkBilled(e.ctx, session.SessionID, uuid.New())
	if !apperror.IsInvalidTransition(err) {
		t.Fatalf("MarkBilled by other bill error = %v, want invalid transition", err)
	}
}

func TestExpireStaleSkipsBilledSessions(t *testing.T) {
	e := newEnv(t)

	active, _ := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 1,
		PhoneNumber: "9000000034",
	})
	billed, _ := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 2,
		PhoneNumber: "9000000035",
	})

	past := time.Now().Add(-time.Minute)
	active.ExpiresAt = past
	billed.ExpiresAt = past
	e.sessions.Update(e.ctx, active)
	e.sessions.Update(e.ctx, billed)
	if err := e.sessionSvc.MarkBilled(e.ctx, billed.SessionID, uuid.New()); err != nil {
		t.Fatalf("MarkBilled: %v", err)
	}

	count, err := e.sessionSvc.ExpireStale(e.ctx)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired count = %d, want 1", count)
	}

	gotActive, _ := e.sessions.GetBySessionID(e.ctx, active.SessionID)
	if gotActive.Status != enum.SessionStatusExpired {
		t.Errorf("active session status = %s, want EXPIRED", gotActive.Status)
	}
	gotBilled, _ := e.sessions.GetBySessionID(e.ctx, billed.SessionID)
	if gotBilled.Status != enum.SessionStatusBilled {
		t.Errorf("billed session status = %s, want BILLED untouched", gotBilled.Status)
	}
}

func TestAttachOrdersDeduplicates(t *testing.T) {
	e := newEnv(t)

	session, err := e.sessionSvc.FindOrCreate(e.ctx, &service.FindOrCreateInput{
		TableNumber: 7,
		PhoneNumber: "9000000036",
	})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	a, b := uuid.New(), uuid.New()
	if _, err := e.sessionSvc.AttachOrders(e.ctx, session.SessionID, []uuid.UUID{a, b}); err != nil {
		t.Fatalf("AttachOrders: %v", err)
	}
	updated, err := e.sessionSvc.AttachOrders(e.ctx, session.SessionID, []uuid.UUID{b, a})
	if err != nil {
		t.Fatalf("repeat AttachOrders: %v", err)
	}
	if len(updated.OrderIDs) != 2 {
		t.Fatalf("order ids = %v, want exactly two", updated.OrderIDs)
	}
}
