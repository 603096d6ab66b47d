package backup

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Exporter reads every table into a Snapshot.
type Exporter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewExporter(db *gorm.DB) *Exporter {
	return &Exporter{db: db, now: time.Now}
}

// Export reads all tables inside one transaction so the snapshot is
// consistent.
func (e *Exporter) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: CurrentVersion, ExportedAt: e.now().UTC()}

	reads := []struct {
		name  string
		order string
		dest  any
	}{
		{"moves", "created_at, id", &snap.Moves},
		{"move tags", "created_at, id", &snap.MoveTags},
		{"move tag links", "move_id, tag_id", &snap.MoveTagCrossRefs},
		{"saved combos", "created_at, id", &snap.SavedCombos},
		{"battle combos", "created_at, id", &snap.BattleCombos},
		{"battle tags", "created_at, id", &snap.BattleTags},
		{"battle tag links", "battle_combo_id, battle_tag_id", &snap.BattleComboTagCrossRefs},
		{"goals", "created_at, id", &snap.Goals},
		{"goal stages", "goal_id, order_index, id", &snap.GoalStages},
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range reads {
			if err := tx.Order(r.order).Find(r.dest).Error; err != nil {
				return fmt.Errorf("read %s: %w", r.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.normalize()
	return snap, nil
}
