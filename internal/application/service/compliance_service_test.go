package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/application/service"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
)

func TestSyncBillTaxSplit(t *testing.T) {
	tests := []struct {
		name     string
		taxType  enum.TaxType
		totalTax string
		wantCGST string
		wantSGST string
		wantIGST string
	}{
		{
			name:     "intra-state splits evenly",
			taxType:  enum.TaxTypeCGSTSGST,
			totalTax: "40",
			wantCGST: "20",
			wantSGST: "20",
			wantIGST: "0",
		},
		{
			name:     "odd split stays exact",
			taxType:  enum.TaxTypeCGSTSGST,
			totalTax: "22.5",
			wantCGST: "11.25",
			wantSGST: "11.25",
			wantIGST: "0",
		},
		{
			name:     "inter-state takes the whole tax",
			taxType:  enum.TaxTypeIGST,
			totalTax: "40",
			wantCGST: "0",
			wantSGST: "0",
			wantIGST: "40",
		},
		{
			name:     "unregistered records zero components",
			taxType:  enum.TaxTypeNone,
			totalTax: "0",
			wantCGST: "0",
			wantSGST: "0",
			wantIGST: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			if err := e.configs.Upsert(e.ctx, &entity.BillingConfig{
				RestaurantID: e.restaurant,
				LegalName:    "Tandoor House Pvt Ltd",
				TaxNumber:    "29ABCDE1234F1Z5",
				PANNumber:    "ABCDE1234F",
				TaxType:      tt.taxType,
				TaxRate:      dec("5"),
			}); err != nil {
				t.Fatalf("config Upsert: %v", err)
			}

			rate := dec("5")
			var taxes []entity.TaxLine
			if tt.taxType != enum.TaxTypeNone {
				taxes = []entity.TaxLine{{Name: "GST", Rate: rate}}
			}
			// Subtotal sized so 5% of it equals the wanted total tax
			subtotal := dec(tt.totalTax).Mul(decimal.NewFromInt(20))
			if tt.taxType == enum.TaxTypeNone {
				subtotal = dec("800")
			}

			bill, err := e.billing.CreateManual(e.ctx, &service.CreateManualInput{
				TableNumber: 4,
				PhoneNumber: "9000000040",
				Items: []service.ManualItemInput{
					{ItemID: "combo", Name: "Combo", Qty: 1, UnitPrice: subtotal},
				},
				Charges:   service.ChargeInput{Taxes: taxes},
				CreatedBy: e.actor,
			})
			if err != nil {
				t.Fatalf("CreateManual: %v", err)
			}
			if _, err := e.billing.Finalize(e.ctx, &service.FinalizeInput{BillID: bill.ID, Actor: e.actor}); err != nil {
				t.Fatalf("Finalize: %v", err)
			}

			record, err := e.records.GetByBillID(e.ctx, bill.ID)
			if err != nil || record == nil {
				t.Fatalf("ledger record missing: %v", err)
			}

			if !record.TotalTax.Equal(dec(tt.totalTax)) {
				t.Errorf("total tax = %s, want %s", record.TotalTax, tt.totalTax)
			}
			if !record.CGSTAmount.Equal(dec(tt.wantCGST)) {
				t.Errorf("cgst = %s, want %s", record.CGSTAmount, tt.wantCGST)
			}
			if !record.SGSTAmount.Equal(dec(tt.wantSGST)) {
				t.Errorf("sgst = %s, want %s", record.SGSTAmount, tt.wantSGST)
			}
			if !record.IGSTAmount.Equal(dec(tt.wantIGST)) {
				t.Errorf("igst = %s, want %s", record.IGSTAmount, tt.wantIGST)
			}
			if record.BusinessTaxNumber != "29ABCDE1234F1Z5" {
				t.Errorf("tax number = %q, want snapshot from config", record.BusinessTaxNumber)
			}
			if record.TaxType != tt.taxType {
				t.Errorf("tax type = %s, want %s", record.TaxType, tt.taxType)
			}
		})
	}
}

func TestSyncBillUpsertsByBillID(t *testing.T) {
	e := newEnv(t)

	bill, err := e.billing.CreateManual(e.ctx, &service.CreateManualInput{
		TableNumber: 2,
		PhoneNumber: "9000000041",
		Items:       []service.ManualItemInput{{ItemID: "x", Name: "X", Qty: 1, UnitPrice: dec("500")}},
		CreatedBy:   e.actor,
	})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if _, err := e.billing.Finalize(e.ctx, &service.FinalizeInput{BillID: bill.ID, Actor: e.actor}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// Payment update re-syncs the same record
	method := enum.PaymentMethodUPI
	if _, err := e.billing.RecordPayment(e.ctx, bill.ID, &method, dec("500"), e.actor); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	records, total, err := e.records.List(e.ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("ledger has %d records, want 1", total)
	}
	if records[0].PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("payment status = %s, want PAID after re-sync", records[0].PaymentStatus)
	}
	if records[0].PaymentMethod == nil || *records[0].PaymentMethod != enum.PaymentMethodUPI {
		t.Error("payment method not carried into re-synced record")
	}
}

func TestSyncBillRejectsDraft(t *testing.T) {
	e := newEnv(t)

	bill, err := e.billing.CreateManual(e.ctx, &service.CreateManualInput{
		TableNumber: 2,
		PhoneNumber: "9000000042",
		Items:       []service.ManualItemInput{{ItemID: "x", Name: "X", Qty: 1, UnitPrice: dec("100")}},
		CreatedBy:   e.actor,
	})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}

	if err := e.compliance.SyncBill(e.ctx, bill); err == nil {
		t.Fatal("draft bill accepted into the compliance ledger")
	}
}
