package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cypher/internal/entities"
)

func moveNames(moves []entities.MoveWithTags) []string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Name
	}
	return names
}

func TestMovesController_CreateAndGet(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/moves", obj{"name": " Windmill ", "tags": []string{"power", "spin", ""}})
	requireStatus(t, w, http.StatusCreated)

	created := decode[entities.MoveWithTags](t, w)
	assert.Equal(t, "Windmill", created.Name)
	assert.NotEmpty(t, created.ID)
	require.Len(t, created.Tags, 2)
	assert.Equal(t, "power", created.Tags[0].Name)

	w = s.do(t, "GET", "/api/moves/"+created.ID, nil)
	requireStatus(t, w, http.StatusOK)
	got := decode[entities.MoveWithTags](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Tags, 2)
}

func TestMovesController_CreateRequiresName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/moves", obj{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/api/moves", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMovesController_GetMissing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "GET", "/api/moves/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "move not found")
}

func TestMovesController_ListFiltersByTag(t *testing.T) {
	s := newTestServer(t)

	s.do(t, "POST", "/api/moves", obj{"name": "Airflare", "tags": []string{"power"}})
	s.do(t, "POST", "/api/moves", obj{"name": "Baby freeze", "tags": []string{"freeze"}})
	s.do(t, "POST", "/api/moves", obj{"name": "Six step"})

	w := s.do(t, "GET", "/api/moves", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, []string{"Airflare", "Baby freeze", "Six step"}, moveNames(decode[[]entities.MoveWithTags](t, w)))

	w = s.do(t, "GET", "/api/moves?tags=power", nil)
	assert.Equal(t, []string{"Airflare"}, moveNames(decode[[]entities.MoveWithTags](t, w)))

	w = s.do(t, "GET", "/api/moves?tags=power,freeze", nil)
	assert.Equal(t, []string{"Airflare", "Baby freeze"}, moveNames(decode[[]entities.MoveWithTags](t, w)))

	w = s.do(t, "GET", "/api/moves?tags=power&tags=freeze", nil)
	assert.Len(t, decode[[]entities.MoveWithTags](t, w), 2)

	w = s.do(t, "GET", "/api/moves?tags=unknown", nil)
	assert.Empty(t, decode[[]entities.MoveWithTags](t, w))
}

func TestMovesController_StreamMoves(t *testing.T) {
	s := newTestServer(t)

	s.do(t, "POST", "/api/moves", obj{"name": "Airflare", "tags": []string{"power"}})
	s.do(t, "POST", "/api/moves", obj{"name": "Six step"})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("GET", "/api/moves/stream?tags=power", nil).WithContext(ctx)

	w := s.serve(req)
	body := w.Body.String()
	assert.Contains(t, body, "event:moves")
	assert.Contains(t, body, "Airflare")
	assert.NotContains(t, body, "Six step")
}

func TestMovesController_RenameKeepsCombos(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	move, err := s.moves.CreateMove(ctx, "Flare")
	require.NoError(t, err)
	combo, err := s.combos.CreateCombo(ctx, "opener", []string{"Flare"})
	require.NoError(t, err)

	w := s.do(t, "PATCH", "/api/moves/"+move.ID, obj{"name": "Airflare"})
	requireStatus(t, w, http.StatusOK)

	got, err := s.moves.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, "Airflare", got.Name)

	stored, err := s.combos.GetCombo(ctx, combo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.MoveSequence{"Flare"}, stored.Moves)

	w = s.do(t, "PATCH", "/api/moves/missing", obj{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMovesController_DeleteLogsActivity(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	move, err := s.moves.CreateMove(ctx, "Headspin")
	require.NoError(t, err)

	w := s.do(t, "DELETE", "/api/moves/"+move.ID, nil)
	requireStatus(t, w, http.StatusOK)

	w = s.do(t, "DELETE", "/api/moves/"+move.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.activity.Wait()
	events, total, err := s.activity.GetEvents(ctx, entities.AuditEventDelete, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, move.ID, events[0].EntityID)
	assert.Equal(t, "move_delete", events[0].Action)
}

func TestMovesController_TagLinks(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	move, err := s.moves.CreateMove(ctx, "Halo")
	require.NoError(t, err)

	w := s.do(t, "POST", "/api/moves/"+move.ID+"/tags", obj{"tag_name": "power"})
	requireStatus(t, w, http.StatusOK)
	resp := decode[struct {
		Tags []entities.MoveTag `json:"tags"`
	}](t, w)
	require.Len(t, resp.Tags, 1)
	tagID := resp.Tags[0].ID

	// Linking twice is a no-op.
	w = s.do(t, "POST", "/api/moves/"+move.ID+"/tags", obj{"tag_id": tagID})
	requireStatus(t, w, http.StatusOK)
	tags, err := s.moves.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	w = s.do(t, "POST", "/api/moves/"+move.ID+"/tags", obj{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/api/moves/missing/tags", obj{"tag_id": tagID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "DELETE", "/api/moves/"+move.ID+"/tags/"+tagID, nil)
	requireStatus(t, w, http.StatusOK)
	tags, err = s.moves.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestMovesController_SetMoveTags(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	move, err := s.moves.CreateMove(ctx, "Cricket")
	require.NoError(t, err)
	a, err := s.moves.CreateTag(ctx, "a")
	require.NoError(t, err)
	b, err := s.moves.CreateTag(ctx, "b")
	require.NoError(t, err)

	w := s.do(t, "PUT", "/api/moves/"+move.ID+"/tags", obj{"tagIds": []string{a.ID, b.ID}})
	requireStatus(t, w, http.StatusOK)

	w = s.do(t, "PUT", "/api/moves/"+move.ID+"/tags", obj{"tagIds": []string{b.ID}})
	requireStatus(t, w, http.StatusOK)

	tags, err := s.moves.TagsForMove(ctx, move.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "b", tags[0].Name)

	w = s.do(t, "PUT", "/api/moves/"+move.ID+"/tags", obj{"tagIds": []string{"nope"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMovesController_TagCRUD(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	w := s.do(t, "POST", "/api/move-tags", obj{"name": "footwork"})
	requireStatus(t, w, http.StatusCreated)
	tag := decode[entities.MoveTag](t, w)

	// Creating the same name again returns the existing tag.
	w = s.do(t, "POST", "/api/move-tags", obj{"name": "Footwork"})
	requireStatus(t, w, http.StatusCreated)
	assert.Equal(t, tag.ID, decode[entities.MoveTag](t, w).ID)

	w = s.do(t, "PATCH", "/api/move-tags/"+tag.ID, obj{"name": "floor"})
	requireStatus(t, w, http.StatusOK)

	w = s.do(t, "GET", "/api/move-tags", nil)
	tags := decode[[]entities.MoveTag](t, w)
	require.Len(t, tags, 1)
	assert.Equal(t, "floor", tags[0].Name)

	move, err := s.moves.CreateMove(ctx, "Six step")
	require.NoError(t, err)
	require.NoError(t, s.moves.AddTagToMove(ctx, move.ID, tag.ID))

	w = s.do(t, "DELETE", "/api/move-tags/"+tag.ID, nil)
	requireStatus(t, w, http.StatusOK)

	// The move survives its tag.
	got, err := s.moves.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	w = s.do(t, "DELETE", "/api/move-tags/"+tag.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
