package http

import (
	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Moves    MoveStore
	Combos   ComboStore
	Battle   BattleStore
	Goals    GoalStore

	// Backup and restore
	Exporter    SnapshotExporter
	Importer    SnapshotImporter
	BackupFiles BackupFiles
	KeepBackups int
	Auditor     *audit.Auditor

	// Activity log (optional)
	Activity              ActivityLog
	ActivityRetentionDays int

	Preferences TimerPreferences

	// Task queue (optional)
	TaskQueue TaskEnqueuer

	// ReadOnly rejects every write under /api
	ReadOnly bool

	// Application info
	Version string
}
