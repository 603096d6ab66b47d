package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// Backupper writes a backup file of the live catalog and prunes old ones.
type Backupper interface {
	Backup(ctx context.Context) (string, error)
	Prune(keep int) (int, error)
	Sealed() bool
}

// BackupRecorder records the outcome of a backup in the activity log.
type BackupRecorder interface {
	LogBackup(path string, sealed bool, err error)
}

// ExportBackupTask writes one backup file, then keeps only the newest Keep
// files. Keep <= 0 keeps everything.
type ExportBackupTask struct {
	Reason string `json:"reason"` // "schedule", "manual"
	Keep   int    `json:"keep"`
}

// Config returns the queue configuration for backup exports.
func (t ExportBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_backup",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportBackupProcessor creates a processor function for ExportBackupTask.
func ExportBackupProcessor(backupper Backupper, recorder BackupRecorder) backlite.QueueProcessor[ExportBackupTask] {
	return func(ctx context.Context, task ExportBackupTask) error {
		if backupper == nil {
			return fmt.Errorf("backup service not configured")
		}

		path, err := backupper.Backup(ctx)
		if recorder != nil {
			recorder.LogBackup(path, backupper.Sealed(), err)
		}
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		removed, err := backupper.Prune(task.Keep)
		if err != nil {
			// The new backup exists; a failed prune is retried next run.
			logrus.WithError(err).Warn("failed to prune old backups")
		}

		logrus.WithFields(logrus.Fields{
			"path":    path,
			"reason":  task.Reason,
			"removed": removed,
		}).Info("backup task completed")
		return nil
	}
}

// NewExportBackupQueue creates a backlite queue for backup exports.
func NewExportBackupQueue(backupper Backupper, recorder BackupRecorder) backlite.Queue {
	return backlite.NewQueue(ExportBackupProcessor(backupper, recorder))
}
