package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/domain/billing"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/internal/infrastructure/cache"
	"github.com/tablewise/billing-api/internal/infrastructure/notify"
	infraRepo "github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
)

// BillingService drives the bill lifecycle: creation from orders, draft
// edits, finalization, and cancellation. Mutations against the order store
// and the compliance ledger are sequenced so that a failure at any step
// leaves no order claimed by a bill that does not exist.
type BillingService struct {
	billRepo    repository.BillRepository
	auditRepo   repository.BillAuditRepository
	orderRepo   repository.OrderRepository
	sessionSvc  *SessionService
	compliance  *ComplianceService
	publisher   notify.Publisher
	invalidator cache.Invalidator
	log         *logrus.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(
	billRepo repository.BillRepository,
	auditRepo repository.BillAuditRepository,
	orderRepo repository.OrderRepository,
	sessionSvc *SessionService,
	compliance *ComplianceService,
	publisher notify.Publisher,
	invalidator cache.Invalidator,
	log *logrus.Logger,
) *BillingService {
	return &BillingService{
		billRepo:    billRepo,
		auditRepo:   auditRepo,
		orderRepo:   orderRepo,
		sessionSvc:  sessionSvc,
		compliance:  compliance,
		publisher:   publisher,
		invalidator: invalidator,
		log:         log,
	}
}

// ChargeInput carries the charge configuration applied to a bill
type ChargeInput struct {
	Discount          decimal.Decimal
	DiscountType      enum.DiscountType
	Taxes             []entity.TaxLine
	ServiceCharge     entity.ServiceCharge
	AdditionalCharges []entity.AdditionalCharge
}

// OrderSelection picks which lines of an order go onto the bill. Empty
// ItemIndexes takes the whole order.
type OrderSelection struct {
	OrderID     uuid.UUID
	ItemIndexes []int
}

// CreateFromOrdersInput is the input for building a bill from placed orders
type CreateFromOrdersInput struct {
	SessionID    string
	TableNumber  int
	CustomerName string
	PhoneNumber  string
	Selections   []OrderSelection
	Charges      ChargeInput
	Notes        string
	CreatedBy    uuid.UUID
}

// CreateFromOrders builds a draft bill from the selected orders. The bill's
// session comes from the orders themselves: every selected order must sit on
// the same live session, and a caller-supplied session id is checked against
// it rather than trusted. The claim against the order store is atomic: if any
// selected order is already on a non-cancelled bill, nothing is claimed and
// the call fails with Conflict. A claim that succeeds but is followed by a
// persistence failure is compensated by releasing the claimed orders.
func (s *BillingService) CreateFromOrders(ctx context.Context, input *CreateFromOrdersInput) (*entity.Bill, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Restaurant context required")
	}
	if len(input.Selections) == 0 {
		return nil, apperror.NewBadRequestError("At least one order is required")
	}

	orderIDs := make([]uuid.UUID, len(input.Selections))
	for i, sel := range input.Selections {
		orderIDs[i] = sel.OrderID
	}

	// Pre-check against existing bills. The authoritative guard is the
	// atomic claim below; this check just produces a friendlier error
	// naming the conflicting bill.
	existing, err := s.billRepo.FindActiveByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError(
			fmt.Sprintf("Order already billed on %s", existing.BillNumber))
	}

	orders, err := s.orderRepo.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(orderIDs) {
		return nil, apperror.NewNotFoundError("Order")
	}
	ordersByID := make(map[uuid.UUID]*entity.Order, len(orders))
	for i := range orders {
		ordersByID[orders[i].ID] = &orders[i]
	}

	sessionID := input.SessionID
	for i := range orders {
		switch {
		case orders[i].SessionID == "":
			return nil, apperror.NewBadRequestError(
				fmt.Sprintf("Order %s has no session", orders[i].ID))
		case sessionID == "":
			sessionID = orders[i].SessionID
		case orders[i].SessionID != sessionID:
			return nil, apperror.NewConflictError("Selected orders belong to a different session")
		}
	}
	session, err := s.sessionSvc.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items, err := buildItems(input.Selections, ordersByID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	day := billing.DayKey(now)
	seq, err := s.billRepo.NextSequence(ctx, restaurantID, day)
	if err != nil {
		return nil, err
	}

	tableNumber := input.TableNumber
	if tableNumber == 0 {
		tableNumber = session.TableNumber
	}
	customerName := input.CustomerName
	if customerName == "" {
		customerName = session.CustomerName
	}
	phoneNumber := input.PhoneNumber
	if phoneNumber == "" {
		phoneNumber = session.PhoneNumber
	}

	bill := &entity.Bill{
		ID:                uuid.New(),
		RestaurantID:      restaurantID,
		BillNumber:        billing.FormatBillNumber(day, seq),
		SessionID:         session.SessionID,
		TableNumber:       tableNumber,
		CustomerName:      customerName,
		PhoneNumber:       phoneNumber,
		Discount:          input.Charges.Discount,
		DiscountType:      input.Charges.DiscountType,
		Taxes:             input.Charges.Taxes,
		ServiceCharge:     input.Charges.ServiceCharge,
		AdditionalCharges: input.Charges.AdditionalCharges,
		Notes:             input.Notes,
		Status:            enum.BillStatusDraft,
		CreatedBy:         input.CreatedBy,
		Items:             items,
	}
	if err := billing.Recalculate(bill); err != nil {
		return nil, err
	}

	// Claim first: the conditional update is the only step that can lose a
	// race, so it runs before anything is persisted.
	if err := s.orderRepo.ClaimOrders(ctx, orderIDs, bill.ID, bill.BillNumber); err != nil {
		return nil, err
	}

	refs := make([]entity.BillOrderRef, len(orderIDs))
	for i, id := range orderIDs {
		refs[i] = entity.BillOrderRef{BillID: bill.ID, OrderID: id}
	}
	bill.OrderRefs = refs

	if err := s.billRepo.Create(ctx, bill); err != nil {
		if relErr := s.orderRepo.ReleaseOrders(ctx, orderIDs); relErr != nil {
			s.log.WithError(relErr).WithField("bill_number", bill.BillNumber).
				Error("failed to release orders after bill create failure")
		}
		return nil, err
	}

	s.audit(ctx, bill.ID, enum.AuditBillCreated, input.CreatedBy, map[string]interface{}{
		"bill_number": bill.BillNumber,
		"order_count": len(orderIDs),
		"grand_total": bill.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillCreated, bill)
	s.invalidator.InvalidateOrders(ctx, restaurantID)

	return bill, nil
}

// ManualItemInput is one hand-entered line for a manual bill
type ManualItemInput struct {
	ItemID    string
	Name      string
	Qty       int
	UnitPrice decimal.Decimal
	Variant   *entity.ItemVariant
	Addons    []entity.ItemAddon
}

// CreateManualInput is the input for a bill with hand-entered items
type CreateManualInput struct {
	SessionID    string
	TableNumber  int
	CustomerName string
	PhoneNumber  string
	Items        []ManualItemInput
	Charges      ChargeInput
	Notes        string
	CreatedBy    uuid.UUID
}

// CreateManual builds a draft bill from hand-entered items, without touching
// the order store. Walk-ins and phone orders come through here. The bill
// still hangs off a dining session: a supplied session id must resolve to a
// live session, otherwise the (table, phone) pair finds or opens one.
func (s *BillingService) CreateManual(ctx context.Context, input *CreateManualInput) (*entity.Bill, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Restaurant context required")
	}
	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("At least one item is required")
	}

	var session *entity.Session
	var err error
	if input.SessionID != "" {
		session, err = s.sessionSvc.getActive(ctx, input.SessionID)
	} else {
		session, err = s.sessionSvc.FindOrCreate(ctx, &FindOrCreateInput{
			TableNumber:  input.TableNumber,
			CustomerName: input.CustomerName,
			PhoneNumber:  input.PhoneNumber,
		})
	}
	if err != nil {
		return nil, err
	}

	items := make([]entity.BillItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Qty <= 0 {
			return nil, apperror.NewBadRequestError("Item quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, apperror.NewBadRequestError("Item price cannot be negative")
		}
		items = append(items, entity.BillItem{
			ItemID:    in.ItemID,
			Name:      in.Name,
			Qty:       in.Qty,
			Variant:   in.Variant,
			Addons:    in.Addons,
			UnitPrice: in.UnitPrice,
			LineTotal: lineTotal(in.UnitPrice, in.Qty, in.Addons),
		})
	}

	now := time.Now()
	day := billing.DayKey(now)
	seq, err := s.billRepo.NextSequence(ctx, restaurantID, day)
	if err != nil {
		return nil, err
	}

	bill := &entity.Bill{
		ID:                uuid.New(),
		RestaurantID:      restaurantID,
		BillNumber:        billing.FormatBillNumber(day, seq),
		SessionID:         session.SessionID,
		TableNumber:       input.TableNumber,
		CustomerName:      input.CustomerName,
		PhoneNumber:       input.PhoneNumber,
		Discount:          input.Charges.Discount,
		DiscountType:      input.Charges.DiscountType,
		Taxes:             input.Charges.Taxes,
		ServiceCharge:     input.Charges.ServiceCharge,
		AdditionalCharges: input.Charges.AdditionalCharges,
		Notes:             input.Notes,
		Status:            enum.BillStatusDraft,
		CreatedBy:         input.CreatedBy,
		Items:             items,
	}
	if err := billing.Recalculate(bill); err != nil {
		return nil, err
	}
	if err := s.billRepo.Create(ctx, bill); err != nil {
		return nil, err
	}

	s.audit(ctx, bill.ID, enum.AuditBillCreated, input.CreatedBy, map[string]interface{}{
		"bill_number": bill.BillNumber,
		"manual":      true,
		"grand_total": bill.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillCreated, bill)

	return bill, nil
}

// UpdateItems replaces the item set of a draft bill and recomputes totals
func (s *BillingService) UpdateItems(ctx context.Context, billID uuid.UUID, items []ManualItemInput, actor uuid.UUID) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.EnsureDraft(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.NewBadRequestError("A bill must keep at least one item")
	}

	newItems := make([]entity.BillItem, 0, len(items))
	for _, in := range items {
		if in.Qty <= 0 {
			return nil, apperror.NewBadRequestError("Item quantity must be positive")
		}
		newItems = append(newItems, entity.BillItem{
			BillID:    bill.ID,
			ItemID:    in.ItemID,
			Name:      in.Name,
			Qty:       in.Qty,
			Variant:   in.Variant,
			Addons:    in.Addons,
			UnitPrice: in.UnitPrice,
			LineTotal: lineTotal(in.UnitPrice, in.Qty, in.Addons),
		})
	}

	bill.Items = newItems
	if err := billing.Recalculate(bill); err != nil {
		return nil, err
	}
	if err := s.billRepo.ReplaceItems(ctx, bill.ID, newItems); err != nil {
		return nil, err
	}
	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	s.audit(ctx, bill.ID, enum.AuditQtyUpdated, actor, map[string]interface{}{
		"item_count":  len(newItems),
		"grand_total": bill.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillUpdated, bill)

	return bill, nil
}

// UpdateCharges replaces the charge configuration of a draft bill
func (s *BillingService) UpdateCharges(ctx context.Context, billID uuid.UUID, charges ChargeInput, actor uuid.UUID) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.EnsureDraft(); err != nil {
		return nil, err
	}

	bill.Discount = charges.Discount
	bill.DiscountType = charges.DiscountType
	bill.Taxes = charges.Taxes
	bill.ServiceCharge = charges.ServiceCharge
	bill.AdditionalCharges = charges.AdditionalCharges

	if err := billing.Recalculate(bill); err != nil {
		return nil, err
	}
	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	s.audit(ctx, bill.ID, enum.AuditDiscountApplied, actor, map[string]interface{}{
		"discount":      charges.Discount,
		"discount_type": charges.DiscountType.String(),
		"grand_total":   bill.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillUpdated, bill)

	return bill, nil
}

// UpdateCustomer changes the customer attribution on a draft bill
func (s *BillingService) UpdateCustomer(ctx context.Context, billID uuid.UUID, name, phone string, actor uuid.UUID) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.EnsureDraft(); err != nil {
		return nil, err
	}

	bill.CustomerName = name
	bill.PhoneNumber = phone
	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	s.audit(ctx, bill.ID, enum.AuditCustomerUpdated, actor, map[string]interface{}{
		"customer_name": name,
	})
	return bill, nil
}

// FinalizeInput carries payment details captured at finalize time
type FinalizeInput struct {
	BillID        uuid.UUID
	PaymentMethod *enum.PaymentMethod
	PaidAmount    *decimal.Decimal
	Actor         uuid.UUID
}

// Finalize freezes the bill, marks its session billed, and mirrors the bill
// into the compliance ledger. The compliance sync is best effort: a ledger
// failure is logged and retried on the next payment update, never surfaced
// as a finalize failure.
func (s *BillingService) Finalize(ctx context.Context, input *FinalizeInput) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, input.BillID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := bill.Finalize(now); err != nil {
		return nil, err
	}
	// Recompute from stored items so the frozen totals cannot drift from
	// what Compute says.
	if err := billing.Recalculate(bill); err != nil {
		return nil, err
	}
	if input.PaidAmount != nil {
		if err := bill.RecordPayment(input.PaymentMethod, *input.PaidAmount); err != nil {
			return nil, err
		}
	} else if input.PaymentMethod != nil {
		bill.PaymentMethod = input.PaymentMethod
	}

	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	if bill.SessionID != "" {
		if err := s.sessionSvc.MarkBilled(ctx, bill.SessionID, bill.ID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"bill_number": bill.BillNumber,
				"session_id":  bill.SessionID,
			}).Warn("failed to mark session billed")
		}
	}

	if err := s.compliance.SyncBill(ctx, bill); err != nil {
		s.log.WithError(err).WithField("bill_number", bill.BillNumber).
			Error("compliance sync failed, will retry on next update")
	}

	s.audit(ctx, bill.ID, enum.AuditBillFinalized, input.Actor, map[string]interface{}{
		"bill_number": bill.BillNumber,
		"grand_total": bill.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillFinalized, bill)
	s.invalidator.InvalidateBills(ctx, bill.RestaurantID)

	return bill, nil
}

// RecordPayment updates payment fields on a finalized bill and re-syncs the
// compliance record
func (s *BillingService) RecordPayment(ctx context.Context, billID uuid.UUID, method *enum.PaymentMethod, amount decimal.Decimal, actor uuid.UUID) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := bill.RecordPayment(method, amount); err != nil {
		return nil, err
	}
	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	if bill.Status == enum.BillStatusFinalized {
		if err := s.compliance.SyncBill(ctx, bill); err != nil {
			s.log.WithError(err).WithField("bill_number", bill.BillNumber).
				Error("compliance re-sync failed")
		}
	}

	s.audit(ctx, bill.ID, enum.AuditPaymentReceived, actor, map[string]interface{}{
		"paid_amount":    amount,
		"payment_status": bill.PaymentStatus.String(),
	})
	return bill, nil
}

// Cancel voids a draft bill: claimed orders are released first, then the
// session reverts to active, then the bill record flips. Order release
// leads so a crash mid-cancel can only leave orders free, never stranded
// on a cancelled bill.
func (s *BillingService) Cancel(ctx context.Context, billID uuid.UUID, reason string, actor uuid.UUID) (*entity.Bill, error) {
	bill, err := s.getDetailed(ctx, billID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := bill.Cancel(now); err != nil {
		return nil, err
	}

	orderIDs := bill.SourceOrderIDs()
	if len(orderIDs) > 0 {
		if err := s.orderRepo.ReleaseOrders(ctx, orderIDs); err != nil {
			return nil, err
		}
	}

	if bill.SessionID != "" {
		if err := s.sessionSvc.RevertToActive(ctx, bill.SessionID); err != nil {
			s.log.WithError(err).WithField("session_id", bill.SessionID).
				Warn("failed to revert session after cancel")
		}
	}

	if err := s.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}

	details := map[string]interface{}{"bill_number": bill.BillNumber}
	if reason != "" {
		details["reason"] = reason
	}
	s.audit(ctx, bill.ID, enum.AuditBillCancelled, actor, details)
	s.publisher.PublishBillEvent(ctx, notify.EventBillCancelled, bill)
	s.invalidator.InvalidateOrders(ctx, bill.RestaurantID)

	return bill, nil
}

// Get returns a bill with items, order refs, and audit log
func (s *BillingService) Get(ctx context.Context, billID uuid.UUID) (*entity.Bill, error) {
	return s.getDetailed(ctx, billID)
}

// GetByNumber looks a bill up by its printed number
func (s *BillingService) GetByNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByNumber(ctx, billNumber)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// List returns bills matching the filter, newest first
func (s *BillingService) List(ctx context.Context, params *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	return s.billRepo.List(ctx, params)
}

// BillsByTable returns a table's bills, optionally filtered by status
func (s *BillingService) BillsByTable(ctx context.Context, tableNumber int, status *enum.BillStatus) ([]entity.Bill, error) {
	return s.billRepo.ListByTable(ctx, tableNumber, status)
}

// Stats aggregates bill counts and revenue since the given time
func (s *BillingService) Stats(ctx context.Context, since time.Time) (*repository.BillStats, error) {
	return s.billRepo.Stats(ctx, since)
}

func (s *BillingService) getDetailed(ctx context.Context, billID uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetWithDetails(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

func (s *BillingService) audit(ctx context.Context, billID uuid.UUID, action enum.AuditAction, actor uuid.UUID, details map[string]interface{}) {
	entry := entity.NewAuditEntry(billID, action, actor, details)
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", string(action)).
			Warn("failed to append audit entry")
	}
}

// buildItems copies order lines onto the bill, honoring per-order item
// selections. Indexes are validated against the order's current lines.
func buildItems(selections []OrderSelection, orders map[uuid.UUID]*entity.Order) ([]entity.BillItem, error) {
	var items []entity.BillItem
	for _, sel := range selections {
		order := orders[sel.OrderID]
		if order == nil {
			return nil, apperror.NewNotFoundError("Order")
		}
		sourceID := order.ID
		if len(sel.ItemIndexes) == 0 {
			for _, line := range order.Items {
				items = append(items, itemFromOrderLine(line, sourceID))
			}
			continue
		}
		for _, idx := range sel.ItemIndexes {
			if idx < 0 || idx >= len(order.Items) {
				return nil, apperror.NewBadRequestError("Item index out of range")
			}
			items = append(items, itemFromOrderLine(order.Items[idx], sourceID))
		}
	}
	if len(items) == 0 {
		return nil, apperror.NewBadRequestError("Selected orders contain no items")
	}
	return items, nil
}

func itemFromOrderLine(line entity.OrderItem, orderID uuid.UUID) entity.BillItem {
	src := orderID
	return entity.BillItem{
		ItemID:        line.ItemID,
		Name:          line.Name,
		ImageURL:      line.ImageURL,
		Qty:           line.Qty,
		Variant:       line.Variant,
		Addons:        line.Addons,
		UnitPrice:     line.UnitPrice,
		LineTotal:     line.LineTotal,
		SourceOrderID: &src,
	}
}

func lineTotal(unitPrice decimal.Decimal, qty int, addons []entity.ItemAddon) decimal.Decimal {
	total := unitPrice
	for _, addon := range addons {
		total = total.Add(addon.Price)
	}
	return total.Mul(decimal.NewFromInt(int64(qty)))
}
