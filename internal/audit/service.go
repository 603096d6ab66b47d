package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/mrlokans/cypher/internal/database/audit"
	"github.com/mrlokans/cypher/internal/entities"
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
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			logrus.WithError(err).WithField("action", event.Action).Warn("failed to log audit event")
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogImport records a backup import. counts holds rows written per table.
func (s *Service) LogImport(format, description string, counts map[string]int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Action:      format + "_import",
		Description: description,
		EntityType:  "snapshot",
		Metadata:    encodeMetadata(counts),
	}
	s.LogAsync(withOutcome(event, err))
}

// LogExport records a backup export.
func (s *Service) LogExport(format, description string, counts map[string]int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventExport,
		Action:      format + "_export",
		Description: description,
		EntityType:  "snapshot",
		Metadata:    encodeMetadata(counts),
	}
	s.LogAsync(withOutcome(event, err))
}

// LogBackup records a backup file written by the scheduler or a job.
func (s *Service) LogBackup(path string, sealed bool, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventBackup,
		Action:      "backup_file",
		Description: "Wrote backup " + path,
		EntityType:  "file",
		Metadata:    encodeMetadata(map[string]any{"path": path, "sealed": sealed}),
	}
	s.LogAsync(withOutcome(event, err))
}

// LogDelete records a deletion.
func (s *Service) LogDelete(entityType, entityID, entityName string) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	s.LogAsync(event)
}

// LogPrune records a retention sweep.
func (s *Service) LogPrune(what string, deleted int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventPrune,
		Action:      what + "_prune",
		Description: fmt.Sprintf("Pruned %d %s", deleted, what),
		Metadata:    encodeMetadata(map[string]int64{"deleted": deleted}),
	}
	s.LogAsync(withOutcome(event, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func withOutcome(event *entities.AuditEvent, err error) *entities.AuditEvent {
	event.Status = entities.AuditStatusSuccess
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

func encodeMetadata(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
