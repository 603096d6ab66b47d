package moves

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := filepath.Join(t.TempDir(), "moves.db")

	opts := database.DefaultOptions()
	opts.LogLevel = logger.Silent
	db, err := database.NewDatabaseWithOptions(dbPath, opts)
	require.NoError(t, err)

	repo := NewRepository(db.DB, db.Changes)

	cleanup := func() {
		db.Close()
	}

	return repo, cleanup
}

func TestRepository_CreateMove(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, err := repo.CreateMove(ctx, "Windmill")

	require.NoError(t, err)
	assert.Len(t, move.ID, 36)
	assert.Equal(t, "Windmill", move.Name)
	assert.False(t, move.CreatedAt.IsZero())
}

func TestRepository_GetMove_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	move, err := repo.GetMove(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, move)
}

func TestRepository_RenameMove(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, err := repo.CreateMove(ctx, "Windmil")
	require.NoError(t, err)

	require.NoError(t, repo.RenameMove(ctx, move.ID, "Windmill"))

	loaded, err := repo.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, "Windmill", loaded.Name)

	assert.ErrorIs(t, repo.RenameMove(ctx, "missing", "x"), gorm.ErrRecordNotFound)
}

func TestRepository_GetOrCreateTag_CaseInsensitive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.GetOrCreateTag(ctx, "Power")
	require.NoError(t, err)
	second, err := repo.GetOrCreateTag(ctx, "power")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestRepository_DeleteMove_CascadesLinksOnly(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	m1, _ := repo.CreateMove(ctx, "M1")
	m2, _ := repo.CreateMove(ctx, "M2")
	t1, _ := repo.CreateTag(ctx, "T1")
	t2, _ := repo.CreateTag(ctx, "T2")
	require.NoError(t, repo.AddTagToMove(ctx, m1.ID, t1.ID))
	require.NoError(t, repo.AddTagToMove(ctx, m1.ID, t2.ID))
	require.NoError(t, repo.AddTagToMove(ctx, m2.ID, t1.ID))

	require.NoError(t, repo.DeleteMove(ctx, m1.ID))

	links, err := repo.ListLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.MoveTagCrossRef{{MoveID: m2.ID, TagID: t1.ID}}, links)

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestRepository_DeleteTag_CascadesLinks(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, _ := repo.CreateMove(ctx, "Flare")
	tag, _ := repo.CreateTag(ctx, "power")
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, tag.ID))

	require.NoError(t, repo.DeleteTag(ctx, tag.ID))

	tags, err := repo.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.ErrorIs(t, repo.DeleteTag(ctx, tag.ID), gorm.ErrRecordNotFound)
}

func TestRepository_AddTagToMove_RejectsMissingParent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tag, _ := repo.CreateTag(ctx, "power")

	err := repo.AddTagToMove(ctx, "missing", tag.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConstraintViolation)
}

func TestRepository_AddTagToMove_Idempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, _ := repo.CreateMove(ctx, "Flare")
	tag, _ := repo.CreateTag(ctx, "power")
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, tag.ID))
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, tag.ID))

	links, err := repo.ListLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestRepository_SetMoveTags(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, _ := repo.CreateMove(ctx, "Flare")
	a, _ := repo.CreateTag(ctx, "a")
	b, _ := repo.CreateTag(ctx, "b")
	c, _ := repo.CreateTag(ctx, "c")
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, a.ID))

	require.NoError(t, repo.SetMoveTags(ctx, move.ID, []string{b.ID, c.ID, b.ID}))

	tags, err := repo.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "b", tags[0].Name)
	assert.Equal(t, "c", tags[1].Name)
}

func TestRepository_SetMoveTags_RollsBackOnMissingTag(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	move, _ := repo.CreateMove(ctx, "Flare")
	a, _ := repo.CreateTag(ctx, "a")
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, a.ID))

	err := repo.SetMoveTags(ctx, move.ID, []string{"missing"})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	tags, err := repo.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, a.ID, tags[0].ID)
}

func TestRepository_ListMovesWithTags(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	flare, _ := repo.CreateMove(ctx, "Flare")
	_, _ = repo.CreateMove(ctx, "Airchair")
	power, _ := repo.CreateTag(ctx, "power")
	require.NoError(t, repo.AddTagToMove(ctx, flare.ID, power.ID))

	list, err := repo.ListMovesWithTags(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Airchair", list[0].Name)
	assert.NotNil(t, list[0].Tags)
	assert.Empty(t, list[0].Tags)
	assert.Equal(t, "Flare", list[1].Name)
	require.Len(t, list[1].Tags, 1)
	assert.Equal(t, "power", list[1].Tags[0].Name)
}

func TestRepository_ObserveMovesWithTags(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := repo.ObserveMovesWithTags(ctx)
	assert.Empty(t, next(t, ch))

	move, err := repo.CreateMove(ctx, "Flare")
	require.NoError(t, err)
	assert.Len(t, next(t, ch), 1)

	tag, err := repo.CreateTag(ctx, "power")
	require.NoError(t, err)
	next(t, ch)
	require.NoError(t, repo.AddTagToMove(ctx, move.ID, tag.ID))

	require.Eventually(t, func() bool {
		select {
		case list := <-ch:
			return len(list) == 1 && len(list[0].Tags) == 1
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRepository_ObserveWithoutBroker(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := repo.CreateMove(ctx, "Windmill")
	require.NoError(t, err)

	unpublished := NewRepository(repo.db, nil)
	var ch <-chan []entities.Move
	require.NotPanics(t, func() { ch = unpublished.ObserveMoves(ctx) })

	select {
	case list, ok := <-ch:
		require.True(t, ok)
		assert.Len(t, list, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}

	_, err = unpublished.GetOrCreateTag(ctx, "power")
	require.NoError(t, err)
}

func TestRepository_InsertBatchesKeepIdentity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	moves := []entities.Move{{ID: "m-1", Name: "Flare", CreatedAt: created, ModifiedAt: created}}
	tags := []entities.MoveTag{{ID: "t-1", Name: "power", CreatedAt: created, ModifiedAt: created}}

	require.NoError(t, repo.InsertMoves(ctx, moves))
	require.NoError(t, repo.InsertTags(ctx, tags))
	require.NoError(t, repo.InsertLinks(ctx, []entities.MoveTagCrossRef{{MoveID: "m-1", TagID: "t-1"}}))
	require.NoError(t, repo.InsertMoves(ctx, nil))

	loaded, err := repo.GetMove(ctx, "m-1")
	require.NoError(t, err)
	assert.True(t, created.Equal(loaded.ModifiedAt))

	err = repo.InsertLinks(ctx, []entities.MoveTagCrossRef{{MoveID: "m-1", TagID: "nope"}})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}
