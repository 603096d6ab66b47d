package tasks

import "time"

// Config tunes the queue that runs backup exports and activity pruning.
type Config struct {
	// Workers bounds how many exports or prunes run at once.
	Workers int

	// MaxRetries caps attempts for a failed export or prune.
	MaxRetries int

	// RetryDelay is the backoff before a failed task is picked up again.
	RetryDelay time.Duration

	// TaskTimeout bounds a single export or prune run.
	TaskTimeout time.Duration

	// ReleaseAfter returns a claimed task to the queue when its worker went away.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are swept from the queue table.
	CleanupInterval time.Duration

	// RetentionDuration is how long a finished task can still be looked up by id.
	RetentionDuration time.Duration
}

// DefaultConfig returns the queue settings used when TASK_* is unset.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// Merge returns c with every positive field of override applied on top.
// Zero or negative values in override keep the setting from c.
func (c Config) Merge(override Config) Config {
	if override.Workers > 0 {
		c.Workers = override.Workers
	}
	if override.MaxRetries > 0 {
		c.MaxRetries = override.MaxRetries
	}
	if override.RetryDelay > 0 {
		c.RetryDelay = override.RetryDelay
	}
	if override.TaskTimeout > 0 {
		c.TaskTimeout = override.TaskTimeout
	}
	if override.ReleaseAfter > 0 {
		c.ReleaseAfter = override.ReleaseAfter
	}
	if override.CleanupInterval > 0 {
		c.CleanupInterval = override.CleanupInterval
	}
	if override.RetentionDuration > 0 {
		c.RetentionDuration = override.RetentionDuration
	}
	return c
}
