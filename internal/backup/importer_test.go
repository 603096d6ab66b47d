package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/database/moves"
	"github.com/mrlokans/cypher/internal/entities"
	"github.com/mrlokans/cypher/internal/validation"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	opts := database.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "backup.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportExport_RoundTrip(t *testing.T) {
	src := setupTestDB(t)
	ctx := context.Background()

	counts, err := NewImporter(src.DB, src.Changes).Import(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(12), counts.Total())

	exported, err := NewExporter(src.DB).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, exported.Version)
	assert.Equal(t, sampleSnapshot().Counts(), exported.Counts())

	data, err := Encode(exported, FormatJSON)
	require.NoError(t, err)
	decoded, err := Decode(data, FormatJSON)
	require.NoError(t, err)

	dst := setupTestDB(t)
	_, err = NewImporter(dst.DB, dst.Changes).Import(ctx, decoded)
	require.NoError(t, err)

	again, err := NewExporter(dst.DB).Export(ctx)
	require.NoError(t, err)

	want := sampleSnapshot()
	require.Len(t, again.BattleCombos, 2)
	assert.Equal(t, entities.EnergyHigh, again.BattleCombos[0].Energy)
	assert.True(t, again.BattleCombos[0].IsUsed)
	assert.Equal(t, entities.StatusTraining, again.BattleCombos[1].Status)
	assert.Equal(t, want.SavedCombos[0].Moves, again.SavedCombos[0].Moves)
	assert.True(t, want.Moves[0].ModifiedAt.Equal(again.Moves[0].ModifiedAt))
	assert.True(t, again.Goals[0].IsArchived)
	assert.Equal(t, want.GoalStages[1].OrderIndex, again.GoalStages[1].OrderIndex)
	assert.Equal(t, want.MoveTagCrossRefs, again.MoveTagCrossRefs)
	assert.Equal(t, want.BattleComboTagCrossRefs, again.BattleComboTagCrossRefs)
}

func TestImport_ReplacesExistingData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo := moves.NewRepository(db.DB, db.Changes)
	_, err := repo.CreateMove(ctx, "Headspin")
	require.NoError(t, err)

	_, err = NewImporter(db.DB, db.Changes).Import(ctx, sampleSnapshot())
	require.NoError(t, err)

	list, err := repo.ListMoves(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Flare", list[0].Name)
	assert.Equal(t, "Windmill", list[1].Name)
}

func TestImport_AtomicOnViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := NewImporter(db.DB, db.Changes).Import(ctx, sampleSnapshot())
	require.NoError(t, err)
	before, err := db.Counts(ctx)
	require.NoError(t, err)

	bad := sampleSnapshot()
	bad.Moves = []entities.Move{{ID: "x1", Name: "Only"}}
	bad.MoveTagCrossRefs = []entities.MoveTagCrossRef{{MoveID: "missing", TagID: "t1"}}

	_, err = NewImporter(db.DB, db.Changes).Import(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	after, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	list, err := moves.NewRepository(db.DB, nil).ListMoves(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestImport_DuplicateIDsRollBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bad := sampleSnapshot()
	bad.Goals = append(bad.Goals, bad.Goals[0])

	_, err := NewImporter(db.DB, db.Changes).Import(ctx, bad)
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	counts, err := db.Counts(ctx)
	require.NoError(t, err)
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
}

func TestImport_DryRunLeavesDataUntouched(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	counts, err := NewImporter(db.DB, db.Changes).DryRun(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(12), counts.Total())

	after, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, after[changes.Moves])

	bad := sampleSnapshot()
	bad.GoalStages[0].GoalID = "missing"
	_, err = NewImporter(db.DB, db.Changes).DryRun(ctx, bad)
	assert.ErrorIs(t, err, database.ErrConstraintViolation)
}

func TestImport_PublishesAllTables(t *testing.T) {
	db := setupTestDB(t)
	sub := db.Changes.Subscribe(changes.GoalStages)
	defer sub.Close()

	_, err := NewImporter(db.DB, db.Changes).Import(context.Background(), sampleSnapshot())
	require.NoError(t, err)

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("import should publish goal stages")
	}
}

func TestWriter_WriteReadPrune(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, FormatYAML, "pw")

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := w.WriteFile(sampleSnapshot())
		require.NoError(t, err)
		paths = append(paths, p)
	}
	assert.Equal(t, "cypher-backup-20240101-000100.yaml.sealed", filepath.Base(paths[0]))

	snap, err := ReadFile(paths[2], "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(12), snap.Counts().Total())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	removed, err := w.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{paths[2], paths[1]}, left)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestService_BackupAndPrune(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, err := NewImporter(db.DB, db.Changes).Import(ctx, sampleSnapshot())
	require.NoError(t, err)

	w := NewWriter(t.TempDir(), FormatJSON, "")
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	svc := NewService(NewExporter(db.DB), w)
	assert.False(t, svc.Sealed())

	path, err := svc.Backup(ctx)
	require.NoError(t, err)
	_, err = svc.Backup(ctx)
	require.NoError(t, err)

	snap, err := ReadFile(path, "")
	require.NoError(t, err)
	assert.Len(t, snap.Goals, 1)

	removed, err := svc.Prune(1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestImport_RejectsInvalidRows(t *testing.T) {
	db := setupTestDB(t)

	bad := sampleSnapshot()
	bad.GoalStages[1].CurrentCount = -4

	_, err := NewImporter(db.DB, db.Changes).Import(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Contains(t, err.Error(), "goalStages[1]")
}
