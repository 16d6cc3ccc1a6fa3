package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/domain/billing"
	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	"github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/internal/infrastructure/notify"
	infraRepo "github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
)

// MergeService consolidates several draft bills into one. The sources are
// cancelled, their orders move to the merged bill, and the merged bill gets
// a fresh number. Charge configuration comes from the first source; customer
// and table attribution follow the source with the largest grand total
// unless the caller overrides them.
type MergeService struct {
	billRepo  repository.BillRepository
	auditRepo repository.BillAuditRepository
	orderRepo repository.OrderRepository
	publisher notify.Publisher
	log       *logrus.Logger
}

// NewMergeService creates a new merge service
func NewMergeService(
	billRepo repository.BillRepository,
	auditRepo repository.BillAuditRepository,
	orderRepo repository.OrderRepository,
	publisher notify.Publisher,
	log *logrus.Logger,
) *MergeService {
	return &MergeService{
		billRepo:  billRepo,
		auditRepo: auditRepo,
		orderRepo: orderRepo,
		publisher: publisher,
		log:       log,
	}
}

// MergeOverride forces the customer attribution on a merged bill instead of
// taking it from the largest source. Zero-valued fields are ignored.
type MergeOverride struct {
	CustomerName string
	PhoneNumber  string
	TableNumber  int
}

// Merge combines the given draft bills into a new draft bill. Input order
// matters: the first bill donates the charge configuration, and ties on
// grand total resolve to the earlier bill.
func (s *MergeService) Merge(ctx context.Context, billIDs []uuid.UUID, override *MergeOverride, actor uuid.UUID) (*entity.Bill, error) {
	restaurantID, ok := infraRepo.GetRestaurantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Restaurant context required")
	}
	if len(billIDs) < 2 {
		return nil, apperror.NewBadRequestError("Merging requires at least two bills")
	}
	seen := make(map[uuid.UUID]bool, len(billIDs))
	for _, id := range billIDs {
		if seen[id] {
			return nil, apperror.NewBadRequestError("Duplicate bill in merge set")
		}
		seen[id] = true
	}

	fetched, err := s.billRepo.ListByIDs(ctx, billIDs)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(billIDs) {
		return nil, apperror.NewNotFoundError("Bill")
	}

	byID := make(map[uuid.UUID]*entity.Bill, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}
	sources := make([]*entity.Bill, len(billIDs))
	for i, id := range billIDs {
		sources[i] = byID[id]
	}

	for _, src := range sources {
		if src.Status != enum.BillStatusDraft {
			return nil, apperror.NewInvalidTransitionError(
				fmt.Sprintf("Cannot merge %s bill %s", src.Status.String(), src.BillNumber))
		}
	}

	primary := sources[0]
	winner := primary
	for _, src := range sources[1:] {
		if src.GrandTotal.GreaterThan(winner.GrandTotal) {
			winner = src
		}
	}

	now := time.Now()
	day := billing.DayKey(now)
	seq, err := s.billRepo.NextSequence(ctx, restaurantID, day)
	if err != nil {
		return nil, err
	}

	merged := &entity.Bill{
		ID:                uuid.New(),
		RestaurantID:      restaurantID,
		BillNumber:        billing.FormatBillNumber(day, seq),
		SessionID:         winner.SessionID,
		TableNumber:       winner.TableNumber,
		MergedTables:      mergedTableSet(sources),
		CustomerName:      winner.CustomerName,
		PhoneNumber:       winner.PhoneNumber,
		Discount:          primary.Discount,
		DiscountType:      primary.DiscountType,
		Taxes:             primary.Taxes,
		ServiceCharge:     primary.ServiceCharge,
		AdditionalCharges: primary.AdditionalCharges,
		Status:            enum.BillStatusDraft,
		CreatedBy:         actor,
	}
	if override != nil {
		if override.CustomerName != "" {
			merged.CustomerName = override.CustomerName
		}
		if override.PhoneNumber != "" {
			merged.PhoneNumber = override.PhoneNumber
		}
		if override.TableNumber > 0 {
			merged.TableNumber = override.TableNumber
		}
	}

	var orderIDs []uuid.UUID
	for _, src := range sources {
		for _, item := range src.Items {
			line := item
			line.ID = uuid.Nil
			line.BillID = merged.ID
			merged.Items = append(merged.Items, line)
		}
		for _, ref := range src.OrderRefs {
			orderIDs = append(orderIDs, ref.OrderID)
			merged.OrderRefs = append(merged.OrderRefs, entity.BillOrderRef{
				BillID:  merged.ID,
				OrderID: ref.OrderID,
			})
		}
		merged.MergedFrom = append(merged.MergedFrom, entity.MergeSource{
			BillID:     src.ID,
			BillNumber: src.BillNumber,
			MergedAt:   now,
		})
	}

	if err := billing.Recalculate(merged); err != nil {
		return nil, err
	}
	if err := s.billRepo.Create(ctx, merged); err != nil {
		return nil, err
	}

	// Move the claims from the sources to the merged bill in one conditional
	// update, so the orders are never unclaimed mid-merge. A failure means
	// another actor touched the orders; void the merged bill and leave the
	// sources as the sole claimants.
	if len(orderIDs) > 0 {
		sourceIDs := make([]uuid.UUID, len(sources))
		for i, src := range sources {
			sourceIDs[i] = src.ID
		}
		if err := s.orderRepo.RepointOrders(ctx, orderIDs, sourceIDs, merged.ID, merged.BillNumber); err != nil {
			s.log.WithError(err).WithField("bill_number", merged.BillNumber).
				Error("order repoint failed, voiding merged bill")
			if cancelErr := merged.Cancel(now); cancelErr == nil {
				if updErr := s.billRepo.Update(ctx, merged); updErr != nil {
					s.log.WithError(updErr).WithField("bill_number", merged.BillNumber).
						Error("failed to void merged bill after repoint failure")
				}
			}
			return nil, err
		}
	}

	// Cancel the sources after the merged bill owns everything
	for _, src := range sources {
		if err := src.Cancel(now); err != nil {
			return nil, err
		}
		if err := s.billRepo.Update(ctx, src); err != nil {
			return nil, err
		}
		s.auditOne(ctx, src.ID, enum.AuditBillMerged, actor, map[string]interface{}{
			"merged_into": merged.BillNumber,
		})
	}

	s.auditOne(ctx, merged.ID, enum.AuditBillMerged, actor, map[string]interface{}{
		"bill_number":  merged.BillNumber,
		"source_count": len(sources),
		"grand_total":  merged.GrandTotal,
	})
	s.publisher.PublishBillEvent(ctx, notify.EventBillMerged, merged)

	return merged, nil
}

// MergeTables merges the open draft bills of the given tables into one.
// Each table must hold exactly one draft bill.
func (s *MergeService) MergeTables(ctx context.Context, tableNumbers []int, actor uuid.UUID) (*entity.Bill, error) {
	if len(tableNumbers) < 2 {
		return nil, apperror.NewBadRequestError("Merging requires at least two tables")
	}

	draft := enum.BillStatusDraft
	var billIDs []uuid.UUID
	for _, table := range tableNumbers {
		bills, err := s.billRepo.ListByTable(ctx, table, &draft)
		if err != nil {
			return nil, err
		}
		if len(bills) == 0 {
			return nil, apperror.NewNotFoundError("Draft bill for table")
		}
		if len(bills) > 1 {
			return nil, apperror.NewConflictError(
				fmt.Sprintf("Table %d has multiple draft bills; merge by bill id instead", table))
		}
		billIDs = append(billIDs, bills[0].ID)
	}

	merged, err := s.Merge(ctx, billIDs, nil, actor)
	if err != nil {
		return nil, err
	}

	s.auditOne(ctx, merged.ID, enum.AuditTableMerged, actor, map[string]interface{}{
		"tables": tableNumbers,
	})
	return merged, nil
}

func (s *MergeService) auditOne(ctx context.Context, billID uuid.UUID, action enum.AuditAction, actor uuid.UUID, details map[string]interface{}) {
	entry := entity.NewAuditEntry(billID, action, actor, details)
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.log.WithError(err).WithField("action", string(action)).
			Warn("failed to append audit entry")
	}
}

// mergedTableSet unions the table numbers of all sources, including tables
// they themselves absorbed in earlier merges
func mergedTableSet(sources []*entity.Bill) []int {
	seen := make(map[int]bool)
	var tables []int
	add := func(t int) {
		if !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	for _, src := range sources {
		add(src.TableNumber)
		for _, t := range src.MergedTables {
			add(t)
		}
	}
	return tables
}
