package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
)

func TestBillFinalizeTransitions(t *testing.T) {
	now := time.Now()

	bill := &entity.Bill{Status: enum.BillStatusDraft}
	if err := bill.Finalize(now); err != nil {
		t.Fatalf("Finalize draft: %v", err)
	}
	if bill.Status != enum.BillStatusFinalized || bill.FinalizedAt == nil {
		t.Fatal("finalize did not set status and timestamp")
	}

	err := bill.Finalize(now)
	if !apperror.IsInvalidTransition(err) {
		t.Fatalf("second Finalize error = %v, want invalid transition", err)
	}

	cancelled := &entity.Bill{Status: enum.BillStatusCancelled}
	if err := cancelled.Finalize(now); err == nil {
		t.Fatal("finalized a cancelled bill")
	}
}

func TestBillCancelTransitions(t *testing.T) {
	now := time.Now()

	bill := &entity.Bill{Status: enum.BillStatusDraft}
	if err := bill.Cancel(now); err != nil {
		t.Fatalf("Cancel draft: %v", err)
	}
	if bill.Status != enum.BillStatusCancelled || bill.CancelledAt == nil {
		t.Fatal("cancel did not set status and timestamp")
	}

	finalized := &entity.Bill{Status: enum.BillStatusFinalized}
	err := finalized.Cancel(now)
	if !apperror.IsInvalidTransition(err) {
		t.Fatalf("cancel finalized error = %v, want invalid transition", err)
	}
}

func TestBillEnsureDraft(t *testing.T) {
	for _, status := range []enum.BillStatus{enum.BillStatusFinalized, enum.BillStatusCancelled} {
		bill := &entity.Bill{Status: status}
		if err := bill.EnsureDraft(); err == nil {
			t.Errorf("EnsureDraft allowed mutation on %s", status)
		}
	}
	draft := &entity.Bill{Status: enum.BillStatusDraft}
	if err := draft.EnsureDraft(); err != nil {
		t.Errorf("EnsureDraft rejected a draft: %v", err)
	}
}

func TestBillRecordPayment(t *testing.T) {
	method := enum.PaymentMethodCard
	grand := decimal.NewFromInt(500)

	tests := []struct {
		name   string
		amount string
		want   enum.PaymentStatus
	}{
		{"full payment", "500", enum.PaymentStatusPaid},
		{"overpayment", "600", enum.PaymentStatusPaid},
		{"partial payment", "200", enum.PaymentStatusPartial},
		{"zero payment", "0", enum.PaymentStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill := &entity.Bill{Status: enum.BillStatusFinalized, GrandTotal: grand}
			amount, _ := decimal.NewFromString(tt.amount)
			if err := bill.RecordPayment(&method, amount); err != nil {
				t.Fatalf("RecordPayment: %v", err)
			}
			if bill.PaymentStatus != tt.want {
				t.Errorf("payment status = %s, want %s", bill.PaymentStatus, tt.want)
			}
		})
	}

	cancelled := &entity.Bill{Status: enum.BillStatusCancelled, GrandTotal: grand}
	if err := cancelled.RecordPayment(&method, grand); err == nil {
		t.Fatal("recorded payment on a cancelled bill")
	}
	bill := &entity.Bill{Status: enum.BillStatusFinalized, GrandTotal: grand}
	if err := bill.RecordPayment(&method, decimal.NewFromInt(-1)); err == nil {
		t.Fatal("accepted a negative payment")
	}
}

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    enum.BillStatus
		to      enum.BillStatus
		allowed bool
	}{
		{enum.BillStatusDraft, enum.BillStatusFinalized, true},
		{enum.BillStatusDraft, enum.BillStatusCancelled, true},
		{enum.BillStatusFinalized, enum.BillStatusCancelled, false},
		{enum.BillStatusFinalized, enum.BillStatusDraft, false},
		{enum.BillStatusCancelled, enum.BillStatusFinalized, false},
		{enum.BillStatusCancelled, enum.BillStatusDraft, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
