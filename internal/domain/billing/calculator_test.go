package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/billing"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func items(lineTotals ...string) []entity.BillItem {
	out := make([]entity.BillItem, 0, len(lineTotals))
	for _, lt := range lineTotals {
		out = append(out, entity.BillItem{
			ItemID:    "item",
			Name:      "Item",
			Qty:       1,
			UnitPrice: dec(lt),
			LineTotal: dec(lt),
		})
	}
	return out
}

func checkIdentity(t *testing.T, got billing.Totals) {
	t.Helper()
	lhs := got.Subtotal.
		Sub(got.DiscountAmount).
		Add(got.ServiceChargeAmount).
		Add(got.TotalTax).
		Add(got.AdditionalTotal).
		Add(got.RoundingAdjustment)
	if !lhs.Equal(got.GrandTotal) {
		t.Fatalf("reconciliation identity broken: lhs=%s grand=%s", lhs, got.GrandTotal)
	}
}

func TestComputeFixedDiscountWithTax(t *testing.T) {
	// 500 subtotal, fixed 50 off, 5% tax, no service charge:
	// afterDiscount=450, tax=22.5, raw=472.5, rounded=473, adjustment=0.5
	got, err := billing.Compute(items("200", "300"), billing.ChargeConfig{
		Discount:     dec("50"),
		DiscountType: enum.DiscountTypeFixed,
		Taxes:        []entity.TaxLine{{Name: "GST", Rate: dec("5")}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	cases := []struct {
		field    string
		got      decimal.Decimal
		expected string
	}{
		{"subtotal", got.Subtotal, "500"},
		{"discountAmount", got.DiscountAmount, "50"},
		{"afterDiscount", got.AfterDiscount, "450"},
		{"totalTax", got.TotalTax, "22.5"},
		{"rawGrandTotal", got.RawGrandTotal, "472.5"},
		{"grandTotal", got.GrandTotal, "473"},
		{"roundingAdjustment", got.RoundingAdjustment, "0.5"},
	}
	for _, tc := range cases {
		if !tc.got.Equal(dec(tc.expected)) {
			t.Fatalf("%s expected %s, got %s", tc.field, tc.expected, tc.got)
		}
	}
	checkIdentity(t, got)
}

func TestComputePercentageDiscountAndServiceCharge(t *testing.T) {
	got, err := billing.Compute(items("1000"), billing.ChargeConfig{
		Discount:      dec("10"),
		DiscountType:  enum.DiscountTypePercentage,
		ServiceCharge: entity.ServiceCharge{Enabled: true, Rate: dec("10")},
		Taxes: []entity.TaxLine{
			{Name: "CGST", Rate: dec("2.5")},
			{Name: "SGST", Rate: dec("2.5")},
		},
		AdditionalCharges: []entity.AdditionalCharge{{Name: "Packing", Amount: dec("20")}},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 1000 - 100 = 900; service 90; taxable 990; tax 24.75 + 24.75
	if !got.DiscountAmount.Equal(dec("100")) {
		t.Fatalf("discountAmount expected 100, got %s", got.DiscountAmount)
	}
	if !got.ServiceChargeAmount.Equal(dec("90")) {
		t.Fatalf("serviceChargeAmount expected 90, got %s", got.ServiceChargeAmount)
	}
	if !got.TaxableBase.Equal(dec("990")) {
		t.Fatalf("taxableBase expected 990, got %s", got.TaxableBase)
	}
	if !got.Taxes[0].Amount.Equal(dec("24.75")) || !got.Taxes[1].Amount.Equal(dec("24.75")) {
		t.Fatalf("per-tax amounts expected 24.75 each, got %s and %s", got.Taxes[0].Amount, got.Taxes[1].Amount)
	}
	if !got.TotalTax.Equal(dec("49.5")) {
		t.Fatalf("totalTax expected 49.5, got %s", got.TotalTax)
	}
	// raw = 990 + 49.5 + 20 = 1059.5 -> 1060, adjustment 0.5
	if !got.GrandTotal.Equal(dec("1060")) {
		t.Fatalf("grandTotal expected 1060, got %s", got.GrandTotal)
	}
	if !got.RoundingAdjustment.Equal(dec("0.5")) {
		t.Fatalf("roundingAdjustment expected 0.5, got %s", got.RoundingAdjustment)
	}
	checkIdentity(t, got)
}

func TestComputeClampsDiscountExceedingSubtotal(t *testing.T) {
	got, err := billing.Compute(items("100"), billing.ChargeConfig{
		Discount:     dec("250"),
		DiscountType: enum.DiscountTypeFixed,
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !got.AfterDiscount.Equal(decimal.Zero) {
		t.Fatalf("afterDiscount expected 0, got %s", got.AfterDiscount)
	}
	if !got.DiscountAmount.Equal(dec("100")) {
		t.Fatalf("clamped discountAmount expected 100, got %s", got.DiscountAmount)
	}
	if !got.GrandTotal.Equal(decimal.Zero) {
		t.Fatalf("grandTotal expected 0, got %s", got.GrandTotal)
	}
	checkIdentity(t, got)
}

func TestComputeDeterministicAndReconciles(t *testing.T) {
	configs := []billing.ChargeConfig{
		{},
		{Discount: dec("5"), DiscountType: enum.DiscountTypePercentage},
		{Discount: dec("33.33"), DiscountType: enum.DiscountTypeFixed},
		{
			Taxes:         []entity.TaxLine{{Name: "GST", Rate: dec("18")}},
			ServiceCharge: entity.ServiceCharge{Enabled: true, Rate: dec("5")},
		},
		{
			Discount:          dec("12.5"),
			DiscountType:      enum.DiscountTypePercentage,
			Taxes:             []entity.TaxLine{{Name: "CGST", Rate: dec("6")}, {Name: "SGST", Rate: dec("6")}},
			ServiceCharge:     entity.ServiceCharge{Enabled: true, Rate: dec("7.5")},
			AdditionalCharges: []entity.AdditionalCharge{{Name: "Delivery", Amount: dec("45.55")}},
		},
	}
	itemSets := [][]entity.BillItem{
		items("1"),
		items("99.99"),
		items("149.50", "230", "75.25"),
		items("333.33", "666.67"),
	}

	for ci, cfg := range configs {
		for ii, set := range itemSets {
			first, err := billing.Compute(set, cfg)
			if err != nil {
				t.Fatalf("config %d items %d: %v", ci, ii, err)
			}
			second, err := billing.Compute(set, cfg)
			if err != nil {
				t.Fatalf("config %d items %d re-run: %v", ci, ii, err)
			}
			if !first.GrandTotal.Equal(second.GrandTotal) || !first.RoundingAdjustment.Equal(second.RoundingAdjustment) {
				t.Fatalf("config %d items %d not deterministic", ci, ii)
			}
			if first.AfterDiscount.IsNegative() {
				t.Fatalf("config %d items %d: negative base %s", ci, ii, first.AfterDiscount)
			}
			checkIdentity(t, first)
		}
	}
}

func TestComputeRejectsMalformedConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  billing.ChargeConfig
	}{
		{"negative discount", billing.ChargeConfig{Discount: dec("-5"), DiscountType: enum.DiscountTypeFixed}},
		{"percentage over 100", billing.ChargeConfig{Discount: dec("120"), DiscountType: enum.DiscountTypePercentage}},
		{"negative tax rate", billing.ChargeConfig{Taxes: []entity.TaxLine{{Name: "GST", Rate: dec("-1")}}}},
		{"unnamed tax", billing.ChargeConfig{Taxes: []entity.TaxLine{{Rate: dec("5")}}}},
		{"service charge over 100", billing.ChargeConfig{ServiceCharge: entity.ServiceCharge{Enabled: true, Rate: dec("101")}}},
		{"negative additional charge", billing.ChargeConfig{AdditionalCharges: []entity.AdditionalCharge{{Name: "x", Amount: dec("-1")}}}},
	}
	for _, tc := range cases {
		_, err := billing.Compute(items("100"), tc.cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !apperror.IsCalculation(err) {
			t.Fatalf("%s: expected calculation error, got %v", tc.name, err)
		}
	}
}

func TestRecalculateWritesDerivedFields(t *testing.T) {
	bill := &entity.Bill{
		Items:        items("200", "300"),
		Discount:     dec("50"),
		DiscountType: enum.DiscountTypeFixed,
		Taxes:        []entity.TaxLine{{Name: "GST", Rate: dec("5")}},
	}
	if err := billing.Recalculate(bill); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if !bill.Subtotal.Equal(dec("500")) {
		t.Fatalf("subtotal expected 500, got %s", bill.Subtotal)
	}
	if !bill.GrandTotal.Equal(dec("473")) {
		t.Fatalf("grandTotal expected 473, got %s", bill.GrandTotal)
	}
	if !bill.Taxes[0].Amount.Equal(dec("22.5")) {
		t.Fatalf("tax amount expected 22.5, got %s", bill.Taxes[0].Amount)
	}
	if !bill.RoundingAdjustment.Equal(dec("0.5")) {
		t.Fatalf("roundingAdjustment expected 0.5, got %s", bill.RoundingAdjustment)
	}
}

func TestFormatBillNumber(t *testing.T) {
	got := billing.FormatBillNumber("250901", 7)
	if got != "B2509010007" {
		t.Fatalf("expected B2509010007, got %s", got)
	}
	got = billing.FormatBillNumber("250901", 1234)
	if got != "B2509011234" {
		t.Fatalf("expected B2509011234, got %s", got)
	}
}
