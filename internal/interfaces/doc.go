// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help find extension
// points and see how the pieces are wired together in entrypoint.go.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - MoveStore: Moves, move tags and their links (internal/http/stores.go)
//   - ComboStore: Saved combos (internal/http/stores.go)
//   - BattleStore: Battle combos and battle tags (internal/http/stores.go)
//   - GoalStore: Goals and their stages (internal/http/stores.go)
//   - Publisher: Table change notifications (internal/changes/broker.go)
//
// ## Backup Interfaces
//
//   - SnapshotExporter / SnapshotImporter: Whole-catalog export and replace-all import (internal/http/backup.go)
//   - BackupFiles: Backup files on disk (internal/http/backup.go)
//   - Backupper / BackupRecorder: Used by the export_backup task (internal/tasks/export_backup.go)
//
// ## Background Work Interfaces
//
//   - TaskEnqueuer: HTTP view of the task queue (internal/http/backup.go)
//   - Enqueuer: Scheduler view of the task queue (internal/scheduler/jobs.go)
//   - ActivityPruner: Used by the prune_activity task (internal/tasks/prune_activity.go)
//
// # Adding a New Catalog Table
//
//  1. Add the entity to internal/entities/ with a BeforeCreate hook for its ID
//     and a constraint tag on each foreign key.
//
//  2. Register the model in database.Models and the table in changes.AllTables.
//
//  3. Create a sub-package under internal/database/:
//
//     type Repository struct {
//         db        *gorm.DB
//         publisher changes.Publisher
//     }
//
//     func NewRepository(db *gorm.DB, broker *changes.Broker) *Repository
//
//  4. Carry the table in backup.Snapshot, clear it in the importer and bump
//     backup.CurrentVersion.
//
//  5. Add the store interface to internal/http/stores.go and a compile-time check:
//
//     var _ http.ThingStore = (*things.Repository)(nil)
//
// # Adding a New Background Task
//
//  1. Define the task and its Config in internal/tasks/:
//
//     type VacuumTask struct{}
//
//     func (t VacuumTask) Config() backlite.QueueConfig
//
//  2. Write a processor and a NewVacuumQueue constructor.
//
//  3. Register the queue in entrypoint.go and, if it runs on a schedule, add
//     a job in internal/scheduler/jobs.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
