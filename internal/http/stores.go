package http

import (
	"context"
	"time"

	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/entities"
	"github.com/mrlokans/cypher/internal/preferences"
)

// Each controller depends on the narrowest store it needs. The database
// repositories satisfy these interfaces directly.

// MoveStore defines database operations for moves and move tags.
type MoveStore interface {
	CreateMove(ctx context.Context, name string) (*entities.Move, error)
	GetMove(ctx context.Context, id string) (*entities.Move, error)
	RenameMove(ctx context.Context, id, name string) error
	DeleteMove(ctx context.Context, id string) error
	ListMovesWithTags(ctx context.Context) ([]entities.MoveWithTags, error)
	ObserveMovesWithTags(ctx context.Context) <-chan []entities.MoveWithTags

	GetOrCreateTag(ctx context.Context, name string) (*entities.MoveTag, error)
	GetTag(ctx context.Context, id string) (*entities.MoveTag, error)
	ListTags(ctx context.Context) ([]entities.MoveTag, error)
	RenameTag(ctx context.Context, id, name string) error
	DeleteTag(ctx context.Context, id string) error

	AddTagToMove(ctx context.Context, moveID, tagID string) error
	RemoveTagFromMove(ctx context.Context, moveID, tagID string) error
	SetMoveTags(ctx context.Context, moveID string, tagIDs []string) error
	TagsForMove(ctx context.Context, moveID string) ([]entities.MoveTag, error)
}

// ComboStore defines database operations for saved combos.
type ComboStore interface {
	CreateCombo(ctx context.Context, name string, moves []string) (*entities.SavedCombo, error)
	GetCombo(ctx context.Context, id string) (*entities.SavedCombo, error)
	ListCombos(ctx context.Context) ([]entities.SavedCombo, error)
	UpdateCombo(ctx context.Context, id, name string, moves []string) error
	DeleteCombo(ctx context.Context, id string) error
}

// BattleStore defines database operations for battle combos and battle tags.
type BattleStore interface {
	CreateCombo(ctx context.Context, description string, energy entities.EnergyLevel, status entities.TrainingStatus) (*entities.BattleCombo, error)
	GetCombo(ctx context.Context, id string) (*entities.BattleComboWithTags, error)
	UpdateCombo(ctx context.Context, id string, update battle.ComboUpdate) error
	SetUsed(ctx context.Context, id string, used bool) error
	ResetUsed(ctx context.Context) (int64, error)
	DeleteCombo(ctx context.Context, id string) error
	ListCombosWithTags(ctx context.Context, filter battle.ComboFilter) ([]entities.BattleComboWithTags, error)

	GetOrCreateTag(ctx context.Context, name string) (*entities.BattleTag, error)
	ListTags(ctx context.Context) ([]entities.BattleTag, error)
	RenameTag(ctx context.Context, id, name string) error
	DeleteTag(ctx context.Context, id string) error
	ReplaceComboTags(ctx context.Context, comboID string, tagIDs []string) error
}

// GoalStore defines database operations for goals and stages.
type GoalStore interface {
	CreateGoal(ctx context.Context, title, description string) (*entities.Goal, error)
	GetGoal(ctx context.Context, id string) (*entities.GoalWithStages, error)
	UpdateGoal(ctx context.Context, id, title, description string) error
	SetArchived(ctx context.Context, id string, archived bool) error
	DeleteGoal(ctx context.Context, id string) error
	ListGoals(ctx context.Context, includeArchived bool) ([]entities.GoalWithStages, error)

	GetStage(ctx context.Context, id string) (*entities.GoalStage, error)
	AddStage(ctx context.Context, goalID string, in goals.StageInput) (*entities.GoalStage, error)
	UpdateStage(ctx context.Context, id string, in goals.StageInput) error
	SetStageCount(ctx context.Context, id string, count int) error
	IncrementStage(ctx context.Context, id string, delta int) (*entities.GoalStage, error)
	DeleteStage(ctx context.Context, id string) error
	ReplaceStages(ctx context.Context, goalID string, in []goals.StageInput) ([]entities.GoalStage, error)
}

// TimerPreferences reads and writes the practice timer duration.
type TimerPreferences interface {
	TimerInfo() preferences.TimerInfo
	TimerDuration() time.Duration
	SetTimerDuration(seconds int) error
}

// ActivityLog records deletions and lists activity events.
type ActivityLog interface {
	LogDelete(entityType, entityID, entityName string)
	LogImport(format, description string, counts map[string]int64, err error)
	LogExport(format, description string, counts map[string]int64, err error)
	GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}
