package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tablewise/billing-api/internal/domain/entity"
	domainRepo "github.com/tablewise/billing-api/internal/domain/repository"
	"github.com/tablewise/billing-api/pkg/apperror"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Where("id IN ?", ids).
		Find(&orders).Error
	return orders, err
}

// ClaimOrders flips the billed flag on every order in one conditional
// UPDATE. The WHERE clause only matches unclaimed rows, so the affected
// count tells us whether another bill got there first. A short count rolls
// the whole claim back.
func (r *orderRepository) ClaimOrders(ctx context.Context, ids []uuid.UUID, billID uuid.UUID, billNumber string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Order{}).
			Scopes(RestaurantScope(ctx)).
			Where("id IN ? AND billed = ?", ids, false).
			Updates(map[string]interface{}{
				"billed":      true,
				"bill_id":     billID,
				"bill_number": billNumber,
				"billed_at":   now,
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return apperror.NewConflictError("One or more orders are already billed")
		}
		return nil
	})
}

// RepointOrders rewires claims from the source bills to the target bill
// without ever leaving the orders unclaimed. The WHERE clause only matches
// rows still held by a source, so a short count means another bill moved in
// and the whole repoint rolls back.
func (r *orderRepository) RepointOrders(ctx context.Context, ids []uuid.UUID, fromBillIDs []uuid.UUID, toBillID uuid.UUID, toBillNumber string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Order{}).
			Scopes(RestaurantScope(ctx)).
			Where("id IN ? AND bill_id IN ?", ids, fromBillIDs).
			Updates(map[string]interface{}{
				"bill_id":     toBillID,
				"bill_number": toBillNumber,
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return apperror.NewConflictError("One or more orders moved to another bill")
		}
		return nil
	})
}

func (r *orderRepository) ReleaseOrders(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.Order{}).
		Scopes(RestaurantScope(ctx)).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"billed":      false,
			"bill_id":     nil,
			"bill_number": "",
			"billed_at":   nil,
			"updated_at":  time.Now(),
		}).Error
}
