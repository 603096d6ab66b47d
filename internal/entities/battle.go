package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnergyLevel string

const (
	EnergyNone   EnergyLevel = "NONE"
	EnergyLow    EnergyLevel = "LOW"
	EnergyMedium EnergyLevel = "MEDIUM"
	EnergyHigh   EnergyLevel = "HIGH"
)

// Valid reports whether e is one of the known energy levels.
func (e EnergyLevel) Valid() bool {
	switch e {
	case EnergyNone, EnergyLow, EnergyMedium, EnergyHigh:
		return true
	}
	return false
}

type TrainingStatus string

const (
	StatusReady    TrainingStatus = "READY"
	StatusTraining TrainingStatus = "TRAINING"
)

// Valid reports whether s is one of the known training statuses.
func (s TrainingStatus) Valid() bool {
	return s == StatusReady || s == StatusTraining
}

// BattleCombo is a combo tracked for battle readiness. It carries a free-text
// description instead of a move sequence.
type BattleCombo struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Description string         `gorm:"type:text;not null" json:"description" yaml:"description" validate:"required"`
	Energy      EnergyLevel    `gorm:"size:10;not null;default:'NONE'" json:"energy" yaml:"energy" validate:"omitempty,oneof=NONE LOW MEDIUM HIGH"`
	Status      TrainingStatus `gorm:"size:10;not null;default:'TRAINING'" json:"status" yaml:"status" validate:"omitempty,oneof=READY TRAINING"`
	IsUsed      bool           `gorm:"not null;default:false" json:"isUsed" yaml:"isUsed"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"createdAt"`
	ModifiedAt  time.Time      `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

type BattleTag struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Name       string    `gorm:"index;size:100;not null" json:"name" yaml:"name" validate:"required,max=100"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

type BattleComboTagCrossRef struct {
	BattleComboID string `gorm:"primaryKey;size:36" json:"battleComboId" yaml:"battleComboId"`
	BattleTagID   string `gorm:"primaryKey;size:36;index" json:"battleTagId" yaml:"battleTagId"`

	BattleCombo *BattleCombo `gorm:"foreignKey:BattleComboID;references:ID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
	BattleTag   *BattleTag   `gorm:"foreignKey:BattleTagID;references:ID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
}

type BattleComboWithTags struct {
	BattleCombo
	Tags []BattleTag `json:"tags"`
}

func (c *BattleCombo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Energy == "" {
		c.Energy = EnergyNone
	}
	if c.Status == "" {
		c.Status = StatusTraining
	}
	return nil
}

func (t *BattleTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (BattleCombo) TableName() string {
	return "battle_combos"
}

func (BattleTag) TableName() string {
	return "battle_tags"
}

func (BattleComboTagCrossRef) TableName() string {
	return "battle_combo_tag_cross_refs"
}
