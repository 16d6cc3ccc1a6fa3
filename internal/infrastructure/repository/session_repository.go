package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tablewise/billing-api/internal/domain/entity"
	"github.com/tablewise/billing-api/internal/domain/enum"
	domainRepo "github.com/tablewise/billing-api/internal/domain/repository"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) domainRepo.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		First(&session, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) FindActive(ctx context.Context, tableNumber int, phoneNumber string) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Where("table_number = ? AND phone_number = ? AND status = ?",
			tableNumber, phoneNumber, enum.SessionStatusActive).
		Order("started_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *sessionRepository) ListActive(ctx context.Context) ([]entity.Session, error) {
	var sessions []entity.Session
	err := r.db.WithContext(ctx).
		Scopes(RestaurantScope(ctx)).
		Where("status = ?", enum.SessionStatusActive).
		Order("started_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// ExpireStale runs unscoped across restaurants: the sweep is a background
// job, not a request.
func (r *sessionRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Session{}).
		Where("status = ? AND expires_at < ?", enum.SessionStatusActive, now).
		Updates(map[string]interface{}{
			"status":     enum.SessionStatusExpired,
			"ended_at":   now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}
