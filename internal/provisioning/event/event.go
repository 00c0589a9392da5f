// Package event is the provisioning outbox. Integrations that fail during
// provisioning are recorded here and replayed later.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TopicSubdomainAdd = "subdomain.add"

	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"

	DefaultMaxAttempts = 5
)

var ErrInvalidEvent = errors.New("invalid_provisioning_event")

type ProvisioningEvent struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID  string         `gorm:"type:varchar(63);not null;index" json:"tenant_id"`
	Topic     string         `gorm:"type:varchar(64);not null;index:ix_provisioning_events_topic_status,priority:1" json:"topic"`
	Status    string         `gorm:"type:varchar(16);not null;index:ix_provisioning_events_topic_status,priority:2" json:"status"`
	Payload   datatypes.JSON `gorm:"type:json" json:"payload"`
	Attempts  int            `gorm:"not null;default:0" json:"attempts"`
	LastError string         `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ProvisioningEvent) TableName() string { return "provisioning_events" }

type EventPublisher interface {
	Publish(ctx context.Context, tenantID string, topic string, payload any) error
}

// Outbox stores events in the central database.
type Outbox struct {
	db          *gorm.DB
	genID       *snowflake.Node
	maxAttempts int
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node, maxAttempts int) *Outbox {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Outbox{
		db:          db,
		genID:       genID,
		maxAttempts: maxAttempts,
	}
}

func (o *Outbox) Publish(ctx context.Context, tenantID string, topic string, payload any) error {
	tenantID = strings.TrimSpace(tenantID)
	topic = strings.TrimSpace(topic)
	if tenantID == "" || topic == "" {
		return ErrInvalidEvent
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return o.db.WithContext(ctx).Create(&ProvisioningEvent{
		ID:        o.genID.Generate(),
		TenantID:  tenantID,
		Topic:     topic,
		Status:    StatusPending,
		Payload:   datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

// Pending returns up to limit pending events for topic, oldest first.
func (o *Outbox) Pending(ctx context.Context, topic string, limit int) ([]ProvisioningEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []ProvisioningEvent
	err := o.db.WithContext(ctx).
		Where("topic = ? AND status = ?", topic, StatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (o *Outbox) Complete(ctx context.Context, id snowflake.ID) error {
	return o.db.WithContext(ctx).
		Model(&ProvisioningEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     StatusDone,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

// Fail records a failed attempt. The event is parked as failed once it has
// used up its attempts. It reports whether the event is still pending.
func (o *Outbox) Fail(ctx context.Context, ev ProvisioningEvent, cause string) (bool, error) {
	attempts := ev.Attempts + 1
	status := StatusPending
	if attempts >= o.maxAttempts {
		status = StatusFailed
	}
	err := o.db.WithContext(ctx).
		Model(&ProvisioningEvent{}).
		Where("id = ?", ev.ID).
		Updates(map[string]any{
			"status":     status,
			"attempts":   attempts,
			"last_error": cause,
			"updated_at": time.Now().UTC(),
		}).Error
	return status == StatusPending, err
}
