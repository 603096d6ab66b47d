package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/cypher/internal/audit"
	"github.com/mrlokans/cypher/internal/backup"
	"github.com/mrlokans/cypher/internal/config"
	"github.com/mrlokans/cypher/internal/database"
	auditrepo "github.com/mrlokans/cypher/internal/database/audit"
	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/database/combos"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/database/moves"
	http_controllers "github.com/mrlokans/cypher/internal/http"
	"github.com/mrlokans/cypher/internal/preferences"
	"github.com/mrlokans/cypher/internal/scheduler"
	"github.com/mrlokans/cypher/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Infof("shutting down server, waiting %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight jobs can finish
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatal("server shutdown: ", err)
	}

	logrus.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	config.ConfigureLogging(cfg.Log)
	logrus.Infof("starting Cypher v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("error closing database")
		}
	}()

	movesRepo := moves.NewRepository(db.DB, db.Changes)
	combosRepo := combos.NewRepository(db.DB, db.Changes)
	battleRepo := battle.NewRepository(db.DB, db.Changes)
	goalsRepo := goals.NewRepository(db.DB, db.Changes)

	activity := audit.NewService(auditrepo.NewRepository(db.DB))
	defer activity.Wait()

	// Copies of every imported payload
	auditor := audit.NewAuditor(cfg.Audit.Dir)

	prefs, err := preferences.Open(cfg.Preferences.Path)
	if err != nil {
		logrus.Fatalf("failed to load preferences: %v", err)
	}

	format, err := backup.ParseFormat(cfg.Backup.Format)
	if err != nil {
		logrus.Fatalf("invalid backup format: %v", err)
	}
	exporter := backup.NewExporter(db.DB)
	importer := backup.NewImporter(db.DB, db.Changes)
	backups := backup.NewService(exporter, backup.NewWriter(cfg.Backup.Dir, format, cfg.Backup.Passphrase))

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.DefaultConfig().Merge(tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		})

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			logrus.Fatalf("failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logrus.WithError(err).Error("error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewExportBackupQueue(backups, activity),
			tasks.NewPruneActivityQueue(activity),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	} else {
		logrus.Info("task queue disabled, scheduled jobs will not run")
	}

	sched := scheduler.New()
	if taskClient != nil {
		if cfg.Backup.Enabled {
			if err := sched.Add(scheduler.BackupJob(taskClient, cfg.Backup)); err != nil {
				logrus.Fatalf("failed to schedule backups: %v", err)
			}
		}
		if cfg.Tasks.PruneSchedule != "" {
			if err := sched.Add(scheduler.PruneActivityJob(taskClient, cfg.Tasks.PruneSchedule, cfg.Audit.RetentionDays)); err != nil {
				logrus.Fatalf("failed to schedule activity pruning: %v", err)
			}
		}
		for _, job := range sched.Jobs() {
			logrus.WithFields(logrus.Fields{
				"job":      job.Name,
				"schedule": job.Description,
			}).Info("job scheduled")
		}
	}
	sched.Start(context.Background())

	routerCfg := http_controllers.RouterConfig{
		Database:              db,
		Moves:                 movesRepo,
		Combos:                combosRepo,
		Battle:                battleRepo,
		Goals:                 goalsRepo,
		Exporter:              exporter,
		Importer:              importer,
		BackupFiles:           backups,
		KeepBackups:           cfg.Backup.Retention,
		Auditor:               auditor,
		Activity:              activity,
		ActivityRetentionDays: cfg.Audit.RetentionDays,
		Preferences:           prefs,
		ReadOnly:              cfg.HTTP.ReadOnly,
		Version:               version,
	}
	// A nil *tasks.Client must not reach the router as a non-nil interface
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	if cfg.HTTP.ReadOnly {
		logrus.Warn("read-only mode: writes under /api are rejected")
	}
	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
