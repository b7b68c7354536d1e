// Package audit persists authentication and deletion audit events.
package audit

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/entities"
)

const defaultLimit = 50

// Query narrows an event listing. Zero values mean "any".
type Query struct {
	UserID    uint
	EventType entities.AuditEventType
	Limit     int
	Offset    int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// Events returns matching events, most recent first, and the total match count.
func (r *Repository) Events(q Query) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{})
	if q.UserID > 0 {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.EventType != "" {
		query = query.Where("event_type = ?", q.EventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load audit events: %w", err)
	}
	return events, total, nil
}

// DeleteOlderThan removes events created before cutoff.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
