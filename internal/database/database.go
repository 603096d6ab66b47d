package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/entities"
)

// Models is every table the application owns, parents before children.
var Models = []any{
	&entities.Move{},
	&entities.MoveTag{},
	&entities.MoveTagCrossRef{},
	&entities.SavedCombo{},
	&entities.BattleCombo{},
	&entities.BattleTag{},
	&entities.BattleComboTagCrossRef{},
	&entities.Goal{},
	&entities.GoalStage{},
	&entities.AuditEvent{},
}

// Database owns the process-wide connection and the change broker that
// repositories publish to. Construct it once and pass it down.
type Database struct {
	DB      *gorm.DB
	Changes *changes.Broker
}

type Options struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

func DefaultOptions() Options {
	return Options{
		LogLevel:      logger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithOptions(dbPath, DefaultOptions())
}

func NewDatabaseWithOptions(dbPath string, opts Options) (*Database, error) {
	gormLogger := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             opts.SlowThreshold,
		LogLevel:                  opts.LogLevel,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.WithField("path", dbPath).Info("database initialized")

	return &Database{DB: db, Changes: changes.NewBroker()}, nil
}

// dsn enables foreign keys on every pooled connection; cascades depend on it.
func dsn(dbPath string) string {
	params := "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + params
	}
	return dbPath + "?" + params
}

func (d *Database) Close() error {
	d.Changes.Close()
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Counts returns the row count of every backed-up table.
func (d *Database) Counts(ctx context.Context) (map[changes.Table]int64, error) {
	return CountTables(d.DB.WithContext(ctx))
}

// CountTables counts rows of every backed-up table using db, which may be a
// transaction.
func CountTables(db *gorm.DB) (map[changes.Table]int64, error) {
	counts := make(map[changes.Table]int64, len(changes.AllTables))
	for _, table := range changes.AllTables {
		var n int64
		if err := db.Table(string(table)).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
