package backup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/database/combos"
	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/database/moves"
	"github.com/mrlokans/cypher/internal/validation"
)

var errDryRun = errors.New("dry run")

// clearOrder lists tables children first.
var clearOrder = []changes.Table{
	changes.MoveTagLinks,
	changes.BattleComboTagLinks,
	changes.GoalStages,
	changes.Moves,
	changes.MoveTags,
	changes.SavedCombos,
	changes.BattleCombos,
	changes.BattleTags,
	changes.Goals,
}

// Importer replaces the catalog with a snapshot.
type Importer struct {
	db        *gorm.DB
	publisher changes.Publisher
	validator *validation.Validator

	moves  *moves.Repository
	combos *combos.Repository
	battle *battle.Repository
	goals  *goals.Repository
}

// NewImporter creates an importer that publishes every table to broker after
// a successful import. broker may be nil.
func NewImporter(db *gorm.DB, broker *changes.Broker) *Importer {
	var publisher changes.Publisher = changes.NoopPublisher{}
	if broker != nil {
		publisher = broker
	}
	return &Importer{
		db:        db,
		publisher: publisher,
		validator: validation.New(),
		moves:     moves.NewRepository(db, broker),
		combos:    combos.NewRepository(db, broker),
		battle:    battle.NewRepository(db, broker),
		goals:     goals.NewRepository(db, broker),
	}
}

// Import deletes every row and inserts the snapshot in one transaction.
// On any failure nothing changes. It returns the rows written per table.
func (i *Importer) Import(ctx context.Context, snap *Snapshot) (Counts, error) {
	if err := i.replace(ctx, snap); err != nil {
		return nil, err
	}
	i.publisher.Publish(changes.AllTables...)

	counts := snap.Counts()
	logrus.WithFields(logrus.Fields{
		"rows":    counts.Total(),
		"version": snap.Version,
	}).Info("snapshot imported")
	return counts, nil
}

// DryRun performs the import and rolls it back, reporting whether it would
// have succeeded.
func (i *Importer) DryRun(ctx context.Context, snap *Snapshot) (Counts, error) {
	if err := i.check(snap); err != nil {
		return nil, err
	}

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := i.write(ctx, tx, snap); err != nil {
			return err
		}
		return errDryRun
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, database.Classify(err)
	}
	return snap.Counts(), nil
}

func (i *Importer) replace(ctx context.Context, snap *Snapshot) error {
	if err := i.check(snap); err != nil {
		return err
	}

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return i.write(ctx, tx, snap)
	})
	if err != nil {
		return fmt.Errorf("import snapshot: %w", database.Classify(err))
	}
	return nil
}

// check rejects newer versions and rows that fail their validate tags.
func (i *Importer) check(snap *Snapshot) error {
	if snap.Version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	snap.normalize()

	v := i.validator
	return errors.Join(
		validation.ValidateEach(v, "moves", snap.Moves),
		validation.ValidateEach(v, "moveTags", snap.MoveTags),
		validation.ValidateEach(v, "savedCombos", snap.SavedCombos),
		validation.ValidateEach(v, "battleCombos", snap.BattleCombos),
		validation.ValidateEach(v, "battleTags", snap.BattleTags),
		validation.ValidateEach(v, "goals", snap.Goals),
		validation.ValidateEach(v, "goalStages", snap.GoalStages),
	)
}

func (i *Importer) write(ctx context.Context, tx *gorm.DB, snap *Snapshot) error {
	for _, table := range clearOrder {
		if err := tx.Exec("DELETE FROM " + string(table)).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	movesRepo := i.moves.WithTx(tx)
	combosRepo := i.combos.WithTx(tx)
	battleRepo := i.battle.WithTx(tx)
	goalsRepo := i.goals.WithTx(tx)

	steps := []struct {
		name string
		run  func() error
	}{
		{"moves", func() error { return movesRepo.InsertMoves(ctx, snap.Moves) }},
		{"move tags", func() error { return movesRepo.InsertTags(ctx, snap.MoveTags) }},
		{"battle combos", func() error { return battleRepo.InsertCombos(ctx, snap.BattleCombos) }},
		{"battle tags", func() error { return battleRepo.InsertTags(ctx, snap.BattleTags) }},
		{"goals", func() error { return goalsRepo.InsertGoals(ctx, snap.Goals) }},
		{"saved combos", func() error { return combosRepo.InsertCombos(ctx, snap.SavedCombos) }},
		{"move tag links", func() error { return movesRepo.InsertLinks(ctx, snap.MoveTagCrossRefs) }},
		{"battle tag links", func() error { return battleRepo.InsertLinks(ctx, snap.BattleComboTagCrossRefs) }},
		{"goal stages", func() error { return goalsRepo.InsertStages(ctx, snap.GoalStages) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("insert %s: %w", step.name, err)
		}
	}
	return nil
}
