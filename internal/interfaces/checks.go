package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/database/combos"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/database/moves"
	"github.com/mrlokans/cypher/internal/http"
	"github.com/mrlokans/cypher/internal/preferences"
	"github.com/mrlokans/cypher/internal/scheduler"
	"github.com/mrlokans/cypher/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.MoveStore = (*moves.Repository)(nil)
var _ http.ComboStore = (*combos.Repository)(nil)
var _ http.BattleStore = (*battle.Repository)(nil)
var _ http.GoalStore = (*goals.Repository)(nil)

// Change notification
var _ changes.Publisher = (*changes.Broker)(nil)
var _ changes.Publisher = changes.NoopPublisher{}

// =============================================================================
// Backup and Restore
// =============================================================================

var _ http.SnapshotExporter = (*backup.Exporter)(nil)
var _ http.SnapshotImporter = (*backup.Importer)(nil)
var _ http.BackupFiles = (*backup.Service)(nil)
var _ tasks.Backupper = (*backup.Service)(nil)

// =============================================================================
// Activity Log and Preferences
// =============================================================================

var _ http.ActivityLog = (*audit.Service)(nil)
var _ tasks.BackupRecorder = (*audit.Service)(nil)
var _ tasks.ActivityPruner = (*audit.Service)(nil)
var _ http.TimerPreferences = (*preferences.Preferences)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskEnqueuer = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
