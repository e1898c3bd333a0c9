package billing

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/models"
)

const mysqlDuplicateEntry = 1062

// GormUserStore implements UserStore over the users table. Each mutation is
// a single UPDATE with fixed values, so replays converge on the same state.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) ActivatePlan(ctx context.Context, userID, customerID, subscriptionID string) error {
	plan := models.PlanEssential
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan":                   plan,
			"stripe_customer_id":     customerID,
			"stripe_subscription_id": subscriptionID,
		}).Error
}

func (s *GormUserStore) DeactivatePlan(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan":                   nil,
			"stripe_customer_id":     nil,
			"stripe_subscription_id": nil,
		}).Error
}

func (s *GormUserStore) AttachCustomer(ctx context.Context, userID, customerID string) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID).Error
}

// GormEventLedger implements EventLedger over the webhook_events table; the
// primary key on event_id makes the insert race-safe.
type GormEventLedger struct {
	db *gorm.DB
}

func NewGormEventLedger(db *gorm.DB) *GormEventLedger {
	return &GormEventLedger{db: db}
}

func (l *GormEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (l *GormEventLedger) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	record := models.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}
	err := l.db.WithContext(ctx).Create(&record).Error
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
