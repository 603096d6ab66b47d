package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	api.Use(ReadOnlyMiddleware(cfg.ReadOnly))

	if cfg.Moves != nil {
		moves := NewMovesController(cfg.Moves, cfg.Activity)
		api.GET("/moves", moves.ListMoves)
		api.GET("/moves/stream", moves.StreamMoves)
		api.POST("/moves", moves.CreateMove)
		api.GET("/moves/:id", moves.GetMove)
		api.PATCH("/moves/:id", moves.RenameMove)
		api.DELETE("/moves/:id", moves.DeleteMove)
		api.PUT("/moves/:id/tags", moves.SetMoveTags)
		api.POST("/moves/:id/tags", moves.AddTagToMove)
		api.DELETE("/moves/:id/tags/:tagId", moves.RemoveTagFromMove)

		api.GET("/move-tags", moves.ListTags)
		api.POST("/move-tags", moves.CreateTag)
		api.PATCH("/move-tags/:id", moves.RenameTag)
		api.DELETE("/move-tags/:id", moves.DeleteTag)
	}

	if cfg.Combos != nil {
		combos := NewCombosController(cfg.Combos, cfg.Activity)
		api.GET("/combos", combos.ListCombos)
		api.POST("/combos", combos.CreateCombo)
		api.GET("/combos/:id", combos.GetCombo)
		api.PUT("/combos/:id", combos.UpdateCombo)
		api.DELETE("/combos/:id", combos.DeleteCombo)
	}

	if cfg.Battle != nil {
		battle := NewBattleController(cfg.Battle, cfg.Activity)
		api.GET("/battle/combos", battle.ListCombos)
		api.POST("/battle/combos", battle.CreateCombo)
		api.POST("/battle/combos/reset-used", battle.ResetUsed)
		api.GET("/battle/combos/:id", battle.GetCombo)
		api.PATCH("/battle/combos/:id", battle.UpdateCombo)
		api.DELETE("/battle/combos/:id", battle.DeleteCombo)
		api.PUT("/battle/combos/:id/used", battle.SetUsed)
		api.PUT("/battle/combos/:id/tags", battle.ReplaceTags)

		api.GET("/battle/tags", battle.ListTags)
		api.POST("/battle/tags", battle.CreateTag)
		api.PATCH("/battle/tags/:id", battle.RenameTag)
		api.DELETE("/battle/tags/:id", battle.DeleteTag)
	}

	if cfg.Goals != nil {
		goals := NewGoalsController(cfg.Goals, cfg.Activity)
		api.GET("/goals", goals.ListGoals)
		api.POST("/goals", goals.CreateGoal)
		api.GET("/goals/:id", goals.GetGoal)
		api.PATCH("/goals/:id", goals.UpdateGoal)
		api.DELETE("/goals/:id", goals.DeleteGoal)
		api.PUT("/goals/:id/archived", goals.SetArchived)
		api.GET("/goals/:id/progress", goals.GetProgress)
		api.POST("/goals/:id/stages", goals.AddStage)
		api.PUT("/goals/:id/stages", goals.ReplaceStages)

		api.PATCH("/stages/:id", goals.UpdateStage)
		api.PUT("/stages/:id/count", goals.SetStageCount)
		api.POST("/stages/:id/increment", goals.IncrementStage)
		api.DELETE("/stages/:id", goals.DeleteStage)
	}

	if cfg.Exporter != nil && cfg.Importer != nil {
		backups := NewBackupController(cfg.Exporter, cfg.Importer, cfg.BackupFiles, cfg.TaskQueue, cfg.Auditor, cfg.Activity, cfg.KeepBackups)
		api.GET("/backup", backups.Export)
		api.POST("/backup", backups.Import)
		api.GET("/backup/files", backups.ListFiles)
		api.POST("/backup/jobs", backups.RunJob)
	}

	if cfg.Preferences != nil {
		prefs := NewPreferencesController(cfg.Preferences, cfg.ReadOnly)
		api.GET("/preferences/timer", prefs.GetTimer)
		api.PUT("/preferences/timer", prefs.SetTimer)
		api.GET("/timer/stream", prefs.StreamTimer)
	}

	if cfg.Activity != nil {
		activity := NewActivityController(cfg.Activity)
		api.GET("/activity", activity.GetEvents)
		api.DELETE("/activity", activity.Prune)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.KeepBackups, cfg.ActivityRetentionDays)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
