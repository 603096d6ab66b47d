// Package backup moves the whole catalog in and out of a single document.
//
// # Usage
//
//	snap, err := backup.NewExporter(db.DB).Export(ctx)
//	data, err := backup.Encode(snap, backup.FormatJSON)
//
//	snap, err = backup.Decode(data, backup.FormatJSON)
//	counts, err := backup.NewImporter(db.DB, db.Changes).Import(ctx, snap)
//
// Import replaces every table in one transaction. A snapshot that violates a
// foreign key or unique constraint leaves the database exactly as it was.
package backup

import (
	"errors"
	"time"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/entities"
)

// CurrentVersion is written into every export. Snapshots with a higher
// version are rejected.
const CurrentVersion = 2

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Snapshot is the full contents of the catalog. Battle and goal collections
// were added in version 2 and are empty when decoding version 1 documents.
type Snapshot struct {
	Version    int       `json:"version" yaml:"version"`
	ExportedAt time.Time `json:"exportedAt" yaml:"exportedAt"`

	Moves            []entities.Move            `json:"moves" yaml:"moves"`
	MoveTags         []entities.MoveTag         `json:"moveTags" yaml:"moveTags"`
	MoveTagCrossRefs []entities.MoveTagCrossRef `json:"moveTagCrossRefs" yaml:"moveTagCrossRefs"`
	SavedCombos      []entities.SavedCombo      `json:"savedCombos" yaml:"savedCombos"`

	BattleCombos            []entities.BattleCombo            `json:"battleCombos" yaml:"battleCombos"`
	BattleTags              []entities.BattleTag              `json:"battleTags" yaml:"battleTags"`
	BattleComboTagCrossRefs []entities.BattleComboTagCrossRef `json:"battleComboTagCrossRefs" yaml:"battleComboTagCrossRefs"`

	Goals      []entities.Goal      `json:"goals" yaml:"goals"`
	GoalStages []entities.GoalStage `json:"goalStages" yaml:"goalStages"`
}

// Counts is the number of rows per table.
type Counts map[changes.Table]int64

// Total sums every table.
func (c Counts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// ByName keys counts by table name, for logging and JSON.
func (c Counts) ByName() map[string]int64 {
	out := make(map[string]int64, len(c))
	for k, v := range c {
		out[string(k)] = v
	}
	return out
}

// Counts reports how many rows of each table the snapshot carries.
func (s *Snapshot) Counts() Counts {
	return Counts{
		changes.Moves:               int64(len(s.Moves)),
		changes.MoveTags:            int64(len(s.MoveTags)),
		changes.MoveTagLinks:        int64(len(s.MoveTagCrossRefs)),
		changes.SavedCombos:         int64(len(s.SavedCombos)),
		changes.BattleCombos:        int64(len(s.BattleCombos)),
		changes.BattleTags:          int64(len(s.BattleTags)),
		changes.BattleComboTagLinks: int64(len(s.BattleComboTagCrossRefs)),
		changes.Goals:               int64(len(s.Goals)),
		changes.GoalStages:          int64(len(s.GoalStages)),
	}
}

// normalize replaces absent collections with empty ones and absent combo
// move lists with empty lists.
func (s *Snapshot) normalize() {
	if s.Moves == nil {
		s.Moves = []entities.Move{}
	}
	if s.MoveTags == nil {
		s.MoveTags = []entities.MoveTag{}
	}
	if s.MoveTagCrossRefs == nil {
		s.MoveTagCrossRefs = []entities.MoveTagCrossRef{}
	}
	if s.SavedCombos == nil {
		s.SavedCombos = []entities.SavedCombo{}
	}
	for i := range s.SavedCombos {
		if s.SavedCombos[i].Moves == nil {
			s.SavedCombos[i].Moves = entities.MoveSequence{}
		}
	}
	if s.BattleCombos == nil {
		s.BattleCombos = []entities.BattleCombo{}
	}
	if s.BattleTags == nil {
		s.BattleTags = []entities.BattleTag{}
	}
	if s.BattleComboTagCrossRefs == nil {
		s.BattleComboTagCrossRefs = []entities.BattleComboTagCrossRef{}
	}
	if s.Goals == nil {
		s.Goals = []entities.Goal{}
	}
	if s.GoalStages == nil {
		s.GoalStages = []entities.GoalStage{}
	}
}
