package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Preferences
		Backup
		Audit
		Tasks
		Log
	}

	HTTP struct {
		Port     int32
		Host     string
		ReadOnly bool // Reject writes under /api
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Preferences struct {
		Path string
	}
	Backup struct {
		Dir        string
		Enabled    bool   // Scheduled backups
		Schedule   string // Cron format: "0 3 * * *" = daily at 03:00
		Format     string // json or yaml
		Retention  int    // Number of backup files to keep, 0 keeps all
		Passphrase string // Seals backup files when set
	}
	Audit struct {
		Dir           string // Copies of imported payloads
		RetentionDays int    // Days to keep activity rows (default: 30)
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
		PruneSchedule     string // Cron format for activity pruning
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text or json
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("read_only", false)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("preferences_path", DefaultPreferencesPath)

	// Backup defaults
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("backup_format", "json")
	v.SetDefault("backup_retention", 14)
	v.SetDefault("backup_passphrase", "")

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")
	v.SetDefault("task_prune_schedule", "30 4 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port:     v.GetInt32("PORT"),
			Host:     v.GetString("HOST"),
			ReadOnly: v.GetBool("READ_ONLY"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Preferences: Preferences{
			Path: v.GetString("PREFERENCES_PATH"),
		},
		Backup: Backup{
			Dir:        v.GetString("BACKUP_DIR"),
			Enabled:    v.GetBool("BACKUP_ENABLED"),
			Schedule:   v.GetString("BACKUP_SCHEDULE"),
			Format:     v.GetString("BACKUP_FORMAT"),
			Retention:  v.GetInt("BACKUP_RETENTION"),
			Passphrase: v.GetString("BACKUP_PASSPHRASE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
			PruneSchedule:     v.GetString("TASK_PRUNE_SCHEDULE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
