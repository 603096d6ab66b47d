package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// ActivityPruner deletes activity log rows older than retention.
type ActivityPruner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
	LogPrune(what string, deleted int64, err error)
}

// PruneActivityTask removes activity log rows older than RetentionDays.
type PruneActivityTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for activity pruning.
func (t PruneActivityTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_activity",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneActivityProcessor creates a processor function for PruneActivityTask.
func PruneActivityProcessor(pruner ActivityPruner) backlite.QueueProcessor[PruneActivityTask] {
	return func(ctx context.Context, task PruneActivityTask) error {
		if pruner == nil {
			return fmt.Errorf("activity pruner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := pruner.DeleteOldEvents(ctx, retention)
		pruner.LogPrune("activity", deleted, err)
		if err != nil {
			return fmt.Errorf("prune activity: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"deleted":        deleted,
			"retention_days": retentionDays,
		}).Info("pruned activity log")
		return nil
	}
}

// NewPruneActivityQueue creates a backlite queue for activity pruning.
func NewPruneActivityQueue(pruner ActivityPruner) backlite.Queue {
	return backlite.NewQueue(PruneActivityProcessor(pruner))
}
