package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/domain/entity"
)

// Event types published on the bill lifecycle channel
const (
	EventBillCreated   = "bill.created"
	EventBillUpdated   = "bill.updated"
	EventBillMerged    = "bill.merged"
	EventBillFinalized = "bill.finalized"
	EventBillCancelled = "bill.cancelled"
)

// BillEvent is the payload pushed to downstream listeners (kitchen
// displays, table dashboards). Consumers treat it as a snapshot; the bill
// record remains the source of truth.
type BillEvent struct {
	Event        string       `json:"event"`
	RestaurantID string       `json:"restaurant_id"`
	BillID       string       `json:"bill_id"`
	BillNumber   string       `json:"bill_number"`
	TableNumber  int          `json:"table_number"`
	SessionID    string       `json:"session_id,omitempty"`
	Bill         *entity.Bill `json:"bill,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Publisher pushes bill lifecycle events to listeners. Publishing is fire
// and forget: failures are logged, never surfaced to the request.
type Publisher interface {
	PublishBillEvent(ctx context.Context, event string, bill *entity.Bill)
}

type redisPublisher struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisPublisher creates a publisher backed by redis pub/sub
func NewRedisPublisher(client *redis.Client, log *logrus.Logger) Publisher {
	return &redisPublisher{client: client, log: log}
}

func (p *redisPublisher) PublishBillEvent(ctx context.Context, event string, bill *entity.Bill) {
	payload := BillEvent{
		Event:        event,
		RestaurantID: bill.RestaurantID.String(),
		BillID:       bill.ID.String(),
		BillNumber:   bill.BillNumber,
		TableNumber:  bill.TableNumber,
		SessionID:    bill.SessionID,
		Bill:         bill,
		Timestamp:    time.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("event", event).Warn("failed to marshal bill event")
		return
	}
	channel := fmt.Sprintf("billing:%s", bill.RestaurantID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"event":       event,
			"bill_number": bill.BillNumber,
		}).Warn("failed to publish bill event")
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops all events
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishBillEvent(ctx context.Context, event string, bill *entity.Bill) {}
