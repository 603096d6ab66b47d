// Package goals stores training goals and their ordered stages.
//
// # Usage
//
//	repo := goals.NewRepository(db.DB, db.Changes)
//	goal, err := repo.CreateGoal(ctx, "Airflare", "clean reps")
//	stage, err := repo.AddStage(ctx, goal.ID, goals.StageInput{Name: "drills", TargetCount: 50, Unit: "reps"})
//	stage, err = repo.IncrementStage(ctx, stage.ID, 5)
//
//	g, err := repo.GetGoal(ctx, goal.ID)
//	fmt.Println(g.Progress())
package goals

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/entities"
)

var ErrNegativeCount = errors.New("stage counts must not be negative")

// StageInput holds the editable fields of a stage.
type StageInput struct {
	Name         string
	CurrentCount int
	TargetCount  int
	Unit         string
}

func (in StageInput) validate() error {
	if in.CurrentCount < 0 || in.TargetCount < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Repository handles goal and stage database operations.
type Repository struct {
	db        *gorm.DB
	broker    *changes.Broker
	publisher changes.Publisher
}

func NewRepository(db *gorm.DB, broker *changes.Broker) *Repository {
	var publisher changes.Publisher = changes.NoopPublisher{}
	if broker != nil {
		publisher = broker
	}
	return &Repository{db: db, broker: broker, publisher: publisher}
}

// WithTx returns a non-publishing repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, broker: r.broker, publisher: changes.NoopPublisher{}}
}

// --- Goals ---

func (r *Repository) CreateGoal(ctx context.Context, title, description string) (*entities.Goal, error) {
	goal := &entities.Goal{Title: title, Description: description}
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.Goals)
	return goal, nil
}

// GetGoal returns the goal with its stages in order, or nil when it does not
// exist.
func (r *Repository) GetGoal(ctx context.Context, id string) (*entities.GoalWithStages, error) {
	var goal entities.Goal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error; err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	stages, err := r.StagesForGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entities.GoalWithStages{Goal: goal, Stages: stages}, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, id, title, description string) error {
	result := r.db.WithContext(ctx).Model(&entities.Goal{}).Where("id = ?", id).
		Updates(map[string]any{"title": title, "description": description})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.Goals)
	return nil
}

func (r *Repository) SetArchived(ctx context.Context, id string, archived bool) error {
	result := r.db.WithContext(ctx).Model(&entities.Goal{}).Where("id = ?", id).Update("is_archived", archived)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.Goals)
	return nil
}

// DeleteGoal removes a goal and all of its stages.
func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Goal{})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.Goals, changes.GoalStages)
	return nil
}

// ListGoals returns goals with their stages, newest first.
func (r *Repository) ListGoals(ctx context.Context, includeArchived bool) ([]entities.GoalWithStages, error) {
	query := r.db.WithContext(ctx).Model(&entities.Goal{})
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}
	goals := []entities.Goal{}
	if err := query.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		return []entities.GoalWithStages{}, nil
	}

	ids := make([]string, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
	}
	var stages []entities.GoalStage
	err := r.db.WithContext(ctx).Where("goal_id IN ?", ids).
		Order("order_index ASC, created_at ASC").Find(&stages).Error
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}

	byGoal := make(map[string][]entities.GoalStage, len(goals))
	for _, s := range stages {
		byGoal[s.GoalID] = append(byGoal[s.GoalID], s)
	}
	result := make([]entities.GoalWithStages, len(goals))
	for i, g := range goals {
		gs := byGoal[g.ID]
		if gs == nil {
			gs = []entities.GoalStage{}
		}
		result[i] = entities.GoalWithStages{Goal: g, Stages: gs}
	}
	return result, nil
}

// ObserveGoals streams ListGoals after any goal or stage write.
func (r *Repository) ObserveGoals(ctx context.Context, includeArchived bool) <-chan []entities.GoalWithStages {
	load := func(ctx context.Context) ([]entities.GoalWithStages, error) {
		return r.ListGoals(ctx, includeArchived)
	}
	return changes.Observe(ctx, r.broker, load, changes.Goals, changes.GoalStages)
}

// --- Stages ---

// StagesForGoal returns a goal's stages ordered by OrderIndex.
func (r *Repository) StagesForGoal(ctx context.Context, goalID string) ([]entities.GoalStage, error) {
	stages := []entities.GoalStage{}
	err := r.db.WithContext(ctx).Where("goal_id = ?", goalID).
		Order("order_index ASC, created_at ASC").Find(&stages).Error
	return stages, err
}

// GetStage returns the stage or nil when it does not exist.
func (r *Repository) GetStage(ctx context.Context, id string) (*entities.GoalStage, error) {
	var stage entities.GoalStage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&stage).Error; err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	return &stage, nil
}

// AddStage appends a stage after the goal's current last stage. A missing
// goal fails with database.ErrConstraintViolation.
func (r *Repository) AddStage(ctx context.Context, goalID string, in StageInput) (*entities.GoalStage, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	stage := &entities.GoalStage{
		GoalID:       goalID,
		Name:         in.Name,
		CurrentCount: in.CurrentCount,
		TargetCount:  in.TargetCount,
		Unit:         in.Unit,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		err := tx.Model(&entities.GoalStage{}).Where("goal_id = ?", goalID).
			Select("COALESCE(MAX(order_index) + 1, 0)").Scan(&next).Error
		if err != nil {
			return err
		}
		stage.OrderIndex = next
		return tx.Omit(clause.Associations).Create(stage).Error
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.GoalStages)
	return stage, nil
}

// UpdateStage rewrites a stage's editable fields. Its position is unchanged.
func (r *Repository) UpdateStage(ctx context.Context, id string, in StageInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&entities.GoalStage{}).Where("id = ?", id).
		Updates(map[string]any{
			"name":          in.Name,
			"current_count": in.CurrentCount,
			"target_count":  in.TargetCount,
			"unit":          in.Unit,
		})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.GoalStages)
	return nil
}

// SetStageCount sets a stage's current count.
func (r *Repository) SetStageCount(ctx context.Context, id string, count int) error {
	if count < 0 {
		return ErrNegativeCount
	}
	result := r.db.WithContext(ctx).Model(&entities.GoalStage{}).Where("id = ?", id).Update("current_count", count)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.GoalStages)
	return nil
}

// IncrementStage adds delta to the stage's current count, never going below
// zero, and returns the updated stage.
func (r *Repository) IncrementStage(ctx context.Context, id string, delta int) (*entities.GoalStage, error) {
	var stage entities.GoalStage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.GoalStage{}).Where("id = ?", id).
			Update("current_count", gorm.Expr("MAX(0, current_count + ?)", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&stage).Error
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.GoalStages)
	return &stage, nil
}

// DeleteStage removes a stage and closes the gap in the goal's ordering.
func (r *Repository) DeleteStage(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stage entities.GoalStage
		if err := tx.Where("id = ?", id).First(&stage).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entities.GoalStage{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&entities.GoalStage{}).
			Where("goal_id = ? AND order_index > ?", stage.GoalID, stage.OrderIndex).
			Update("order_index", gorm.Expr("order_index - 1")).Error
	})
	if err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.GoalStages)
	return nil
}

// ReplaceStages swaps the goal's stages for in, indexed in slice order.
// Either every stage is written or none is.
func (r *Repository) ReplaceStages(ctx context.Context, goalID string, in []StageInput) ([]entities.GoalStage, error) {
	for _, s := range in {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	stages := make([]entities.GoalStage, len(in))
	for i, s := range in {
		stages[i] = entities.GoalStage{
			GoalID:       goalID,
			Name:         s.Name,
			CurrentCount: s.CurrentCount,
			TargetCount:  s.TargetCount,
			Unit:         s.Unit,
			OrderIndex:   i,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Goal{}).Where("id = ?", goalID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&entities.GoalStage{}).Error; err != nil {
			return err
		}
		if len(stages) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&stages).Error
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.GoalStages)
	return stages, nil
}

// --- Batch inserts ---

func (r *Repository) InsertGoals(ctx context.Context, goals []entities.Goal) error {
	if len(goals) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&goals, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.Goals)
	return nil
}

func (r *Repository) InsertStages(ctx context.Context, stages []entities.GoalStage) error {
	if len(stages) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&stages, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.GoalStages)
	return nil
}
