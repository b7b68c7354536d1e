package audit

import (
	"strconv"
	"sync"
	"time"

	"github.com/mrlokans/bookkinder/internal/database/audit"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			logger.L.Error().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogAuth records a login or logout attempt. err is stored on failures.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, err error) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogDelete records removal of a catalog entity.
func (s *Service) LogDelete(userID uint, entityType string, entityID uint, entityName string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: truncate("Deleted "+entityType+": "+entityName, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogTokenPrune records a maintenance run over session tokens.
func (s *Service) LogTokenPrune(removed int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventTokens,
		Action:      "prune_expired_tokens",
		Description: "Removed expired session tokens",
		Status:      entities.AuditStatusSuccess,
	}
	if removed > 0 {
		event.Description = truncate(event.Description+" ("+strconv.FormatInt(removed, 10)+")", 500)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// Events returns paginated audit events.
func (s *Service) Events(q audit.Query) ([]entities.AuditEvent, int64, error) {
	return s.repo.Events(q)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(time.Now().Add(-retention))
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
