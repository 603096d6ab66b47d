package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditEventType string

const (
	AuditEventImport AuditEventType = "import"
	AuditEventExport AuditEventType = "export"
	AuditEventBackup AuditEventType = "backup"
	AuditEventDelete AuditEventType = "delete"
	AuditEventPrune  AuditEventType = "prune"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one entry of the activity log. It is not part of the
// backup snapshot.
type AuditEvent struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "json_import", "move_delete"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type,omitempty"`
	EntityID    string         `gorm:"index;size:36" json:"entity_id,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
