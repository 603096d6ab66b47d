package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Move struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Name       string    `gorm:"index;size:200;not null" json:"name" yaml:"name" validate:"required,max=200"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

type MoveTag struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Name       string    `gorm:"index;size:100;not null" json:"name" yaml:"name" validate:"required,max=100"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

// MoveTagCrossRef links a move to a tag. Both foreign keys cascade, so
// deleting either parent removes the link and nothing else.
type MoveTagCrossRef struct {
	MoveID string `gorm:"primaryKey;size:36" json:"moveId" yaml:"moveId"`
	TagID  string `gorm:"primaryKey;size:36;index" json:"tagId" yaml:"tagId"`

	Move *Move    `gorm:"foreignKey:MoveID;references:ID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
	Tag  *MoveTag `gorm:"foreignKey:TagID;references:ID;constraint:OnDelete:CASCADE" json:"-" yaml:"-"`
}

// MoveWithTags is a read model joining a move with its tags.
type MoveWithTags struct {
	Move
	Tags []MoveTag `json:"tags"`
}

// HasAnyTag reports whether the move carries at least one of the given tag names.
func (m MoveWithTags) HasAnyTag(names map[string]struct{}) bool {
	for _, tag := range m.Tags {
		if _, ok := names[tag.Name]; ok {
			return true
		}
	}
	return false
}

func (m *Move) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (t *MoveTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (Move) TableName() string {
	return "moves"
}

func (MoveTag) TableName() string {
	return "move_tags"
}

func (MoveTagCrossRef) TableName() string {
	return "move_tag_cross_refs"
}
