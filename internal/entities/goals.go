package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Goal struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Title       string    `gorm:"size:200;not null" json:"title" yaml:"title" validate:"required,max=200"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	IsArchived  bool      `gorm:"index;not null;default:false" json:"isArchived" yaml:"isArchived"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	ModifiedAt  time.Time `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

// GoalStage is one ordered sub-target of a goal. Stages are removed with
// their goal.
type GoalStage struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	GoalID       string    `gorm:"index;size:36;not null" json:"goalId" yaml:"goalId" validate:"required"`
	Name         string    `gorm:"size:200;not null" json:"name" yaml:"name" validate:"required,max=200"`
	CurrentCount int       `gorm:"not null;default:0" json:"currentCount" yaml:"currentCount" validate:"gte=0"`
	TargetCount  int       `gorm:"not null;default:0" json:"targetCount" yaml:"targetCount" validate:"gte=0"`
	Unit         string    `gorm:"size:50" json:"unit" yaml:"unit"`
	OrderIndex   int       `gorm:"not null;default:0" json:"orderIndex" yaml:"orderIndex"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	ModifiedAt   time.Time `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`

	Goal *Goal `gorm:"foreignKey:GoalID;references:ID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
}

// Ratio returns currentCount/targetCount. A stage without a target counts as 0.
func (s GoalStage) Ratio() float64 {
	if s.TargetCount <= 0 {
		return 0
	}
	return float64(s.CurrentCount) / float64(s.TargetCount)
}

// GoalWithStages is a goal together with its stages ordered by OrderIndex.
type GoalWithStages struct {
	Goal
	Stages []GoalStage `json:"stages"`
}

// Progress is the arithmetic mean of the stage ratios, or 0 without stages.
// Ratios are not clamped; capping for display is left to the caller.
func (g GoalWithStages) Progress() float64 {
	if len(g.Stages) == 0 {
		return 0
	}
	var sum float64
	for _, s := range g.Stages {
		sum += s.Ratio()
	}
	return sum / float64(len(g.Stages))
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (s *GoalStage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (Goal) TableName() string {
	return "goals"
}

func (GoalStage) TableName() string {
	return "goal_stages"
}
