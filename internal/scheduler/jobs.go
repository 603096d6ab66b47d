package scheduler

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cypher/internal/config"
	"github.com/mrlokans/cypher/internal/tasks"
)

const (
	BackupJobName        = "backup"
	PruneActivityJobName = "prune_activity"
)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error)
}

// BackupJob enqueues an export of the catalog on cfg.Schedule.
func BackupJob(q Enqueuer, cfg config.Backup) Job {
	return Job{
		Name:     BackupJobName,
		Schedule: cfg.Schedule,
		Run: func(ctx context.Context) error {
			return enqueue(ctx, q, tasks.ExportBackupTask{Reason: "schedule", Keep: cfg.Retention})
		},
	}
}

// PruneActivityJob enqueues removal of activity rows older than retentionDays.
func PruneActivityJob(q Enqueuer, schedule string, retentionDays int) Job {
	return Job{
		Name:     PruneActivityJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			return enqueue(ctx, q, tasks.PruneActivityTask{RetentionDays: retentionDays})
		},
	}
}

func enqueue(ctx context.Context, q Enqueuer, task backlite.Task) error {
	if q == nil {
		return fmt.Errorf("task queue not configured")
	}
	if _, err := q.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Config().Name, err)
	}
	return nil
}
