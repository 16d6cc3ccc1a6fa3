package billing

import (
	"github.com/shopspring/decimal"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/pkg/apperror"
)

var hundred = decimal.NewFromInt(100)

// ChargeConfig is the charge configuration a bill's totals derive from
type ChargeConfig struct {
	Discount          decimal.Decimal
	DiscountType      enum.DiscountType
	Taxes             []entity.TaxLine
	ServiceCharge     entity.ServiceCharge
	AdditionalCharges []entity.AdditionalCharge
}

// Totals is the full derived breakdown of a bill. The reconciliation
// identity holds exactly for every valid input:
//
//	Subtotal - DiscountAmount + ServiceChargeAmount + TotalTax +
//	AdditionalTotal + RoundingAdjustment == GrandTotal
type Totals struct {
	Subtotal            decimal.Decimal
	DiscountAmount      decimal.Decimal
	AfterDiscount       decimal.Decimal
	ServiceChargeAmount decimal.Decimal
	TaxableBase         decimal.Decimal
	Taxes               []entity.TaxLine
	TotalTax            decimal.Decimal
	AdditionalTotal     decimal.Decimal
	RawGrandTotal       decimal.Decimal
	GrandTotal          decimal.Decimal
	RoundingAdjustment  decimal.Decimal
}

// Compute derives a bill's totals from its items and charge configuration.
// It is a pure function: same inputs, same totals. Persisting a grand total
// that did not just come out of Compute is a bug.
func Compute(items []entity.BillItem, cfg ChargeConfig) (Totals, error) {
	if err := validateConfig(cfg); err != nil {
		return Totals{}, err
	}

	var t Totals

	t.Subtotal = decimal.Zero
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.LineTotal)
	}

	switch cfg.DiscountType {
	case enum.DiscountTypePercentage:
		t.DiscountAmount = t.Subtotal.Mul(cfg.Discount).Div(hundred)
	case enum.DiscountTypeFixed:
		t.DiscountAmount = cfg.Discount
	default:
		t.DiscountAmount = decimal.Zero
	}

	t.AfterDiscount = t.Subtotal.Sub(t.DiscountAmount)
	if t.AfterDiscount.IsNegative() {
		// Discount never drives the base negative; the excess is clamped
		// and the recorded discount shrinks with it so totals reconcile.
		t.DiscountAmount = t.Subtotal
		t.AfterDiscount = decimal.Zero
	}

	if cfg.ServiceCharge.Enabled {
		t.ServiceChargeAmount = t.AfterDiscount.Mul(cfg.ServiceCharge.Rate).Div(hundred)
	} else {
		t.ServiceChargeAmount = decimal.Zero
	}

	t.TaxableBase = t.AfterDiscount.Add(t.ServiceChargeAmount)

	t.Taxes = make([]entity.TaxLine, len(cfg.Taxes))
	t.TotalTax = decimal.Zero
	for i, tax := range cfg.Taxes {
		amount := t.TaxableBase.Mul(tax.Rate).Div(hundred)
		t.Taxes[i] = entity.TaxLine{Name: tax.Name, Rate: tax.Rate, Amount: amount}
		t.TotalTax = t.TotalTax.Add(amount)
	}

	t.AdditionalTotal = decimal.Zero
	for _, charge := range cfg.AdditionalCharges {
		t.AdditionalTotal = t.AdditionalTotal.Add(charge.Amount)
	}

	t.RawGrandTotal = t.TaxableBase.Add(t.TotalTax).Add(t.AdditionalTotal)
	t.GrandTotal = t.RawGrandTotal.Round(0)
	t.RoundingAdjustment = t.GrandTotal.Sub(t.RawGrandTotal)

	return t, nil
}

func validateConfig(cfg ChargeConfig) error {
	if cfg.Discount.IsNegative() {
		return apperror.NewCalculationError("Discount cannot be negative")
	}
	if cfg.DiscountType == enum.DiscountTypePercentage && cfg.Discount.GreaterThan(hundred) {
		return apperror.NewCalculationError("Percentage discount cannot exceed 100")
	}
	for _, tax := range cfg.Taxes {
		if tax.Name == "" {
			return apperror.NewCalculationError("Tax rate requires a name")
		}
		if tax.Rate.IsNegative() || tax.Rate.GreaterThan(hundred) {
			return apperror.NewCalculationError("Tax rate must be between 0 and 100")
		}
	}
	if cfg.ServiceCharge.Enabled {
		if cfg.ServiceCharge.Rate.IsNegative() || cfg.ServiceCharge.Rate.GreaterThan(hundred) {
			return apperror.NewCalculationError("Service charge rate must be between 0 and 100")
		}
	}
	for _, charge := range cfg.AdditionalCharges {
		if charge.Amount.IsNegative() {
			return apperror.NewCalculationError("Additional charge cannot be negative")
		}
	}
	return nil
}

// ConfigFromBill lifts a bill's stored charge configuration into a ChargeConfig
func ConfigFromBill(b *entity.Bill) ChargeConfig {
	return ChargeConfig{
		Discount:          b.Discount,
		DiscountType:      b.DiscountType,
		Taxes:             b.Taxes,
		ServiceCharge:     b.ServiceCharge,
		AdditionalCharges: b.AdditionalCharges,
	}
}

// Recalculate recomputes a bill's derived totals in place from its current
// items and charge configuration. Every mutation path must call this before
// persisting; there is no save-time hook doing it implicitly.
func Recalculate(b *entity.Bill) error {
	totals, err := Compute(b.Items, ConfigFromBill(b))
	if err != nil {
		return err
	}
	b.Subtotal = totals.Subtotal
	b.DiscountAmount = totals.DiscountAmount
	b.Taxes = totals.Taxes
	b.ServiceCharge.Amount = totals.ServiceChargeAmount
	b.TotalTax = totals.TotalTax
	b.GrandTotal = totals.GrandTotal
	b.RoundingAdjustment = totals.RoundingAdjustment
	return nil
}
