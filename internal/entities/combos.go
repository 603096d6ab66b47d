package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// MoveSequence is an ordered list of move names stored as a JSON array.
// Names are snapshots: they are not foreign keys and survive deletion or
// renaming of the moves they were taken from.
type MoveSequence []string

// Value encodes the sequence for storage. A nil sequence is stored as "[]".
func (s MoveSequence) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("encode move sequence: %w", err)
	}
	return string(b), nil
}

// Scan decodes a stored sequence. Anything that does not parse as a JSON
// array of strings yields an empty sequence rather than an error.
func (s *MoveSequence) Scan(value any) error {
	*s = ParseMoveSequence(value)
	return nil
}

// ParseMoveSequence leniently decodes a stored move list.
func ParseMoveSequence(value any) MoveSequence {
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return MoveSequence{}
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil || names == nil {
		return MoveSequence{}
	}
	return MoveSequence(names)
}

// UnmarshalJSON accepts a JSON array of strings. Any other shape in a
// snapshot decodes to an empty sequence, matching Scan.
func (s *MoveSequence) UnmarshalJSON(data []byte) error {
	*s = ParseMoveSequence(data)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (s *MoveSequence) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil || names == nil {
		*s = MoveSequence{}
		return nil
	}
	*s = MoveSequence(names)
	return nil
}

// GormDataType keeps the column as TEXT.
func (MoveSequence) GormDataType() string {
	return "text"
}

// SavedCombo is a practice combo: a named, ordered sequence of move names.
type SavedCombo struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Name       string       `gorm:"index;size:200;not null" json:"name" yaml:"name" validate:"required,max=200"`
	Moves      MoveSequence `gorm:"type:text;not null" json:"moves" yaml:"moves"`
	CreatedAt  time.Time    `json:"createdAt" yaml:"createdAt"`
	ModifiedAt time.Time    `gorm:"autoUpdateTime" json:"modifiedAt" yaml:"modifiedAt"`
}

func (c *SavedCombo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Moves == nil {
		c.Moves = MoveSequence{}
	}
	return nil
}

func (SavedCombo) TableName() string {
	return "saved_combos"
}
