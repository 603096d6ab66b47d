package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cypher/internal/entities"
)

func TestBattleController_CreateDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/battle/combos", obj{"description": "toprock > flare > freeze"})
	requireStatus(t, w, http.StatusCreated)

	combo := decode[entities.BattleComboWithTags](t, w)
	assert.Equal(t, entities.EnergyNone, combo.Energy)
	assert.Equal(t, entities.StatusTraining, combo.Status)
	assert.False(t, combo.IsUsed)
	assert.Empty(t, combo.Tags)
}

func TestBattleController_CreateWithTags(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/battle/combos", obj{
		"description": "set",
		"energy":      "high",
		"status":      "ready",
		"tags":        []string{"opener", "crowd"},
	})
	requireStatus(t, w, http.StatusCreated)

	combo := decode[entities.BattleComboWithTags](t, w)
	assert.Equal(t, entities.EnergyHigh, combo.Energy)
	assert.Equal(t, entities.StatusReady, combo.Status)
	require.Len(t, combo.Tags, 2)
	assert.Equal(t, "crowd", combo.Tags[0].Name)
}

func TestBattleController_RejectsInvalidLevels(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/battle/combos", obj{"description": "x", "energy": "EXTREME"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/api/battle/combos", obj{"description": "x", "status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", "/api/battle/combos?energy=EXTREME", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBattleController_FilterAndUsed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	high, err := s.battle.CreateCombo(ctx, "high", entities.EnergyHigh, entities.StatusReady)
	require.NoError(t, err)
	_, err = s.battle.CreateCombo(ctx, "low", entities.EnergyLow, entities.StatusTraining)
	require.NoError(t, err)

	w := s.do(t, "GET", "/api/battle/combos?energy=high", nil)
	requireStatus(t, w, http.StatusOK)
	list := decode[[]entities.BattleComboWithTags](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, high.ID, list[0].ID)

	w = s.do(t, "GET", "/api/battle/combos?status=TRAINING", nil)
	assert.Len(t, decode[[]entities.BattleComboWithTags](t, w), 1)

	w = s.do(t, "PUT", "/api/battle/combos/"+high.ID+"/used", obj{"used": true})
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[entities.BattleComboWithTags](t, w).IsUsed)

	w = s.do(t, "GET", "/api/battle/combos?unused=true", nil)
	list = decode[[]entities.BattleComboWithTags](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "low", list[0].Description)

	w = s.do(t, "PUT", "/api/battle/combos/"+high.ID+"/used", obj{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/api/battle/combos/reset-used", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["updated"])

	w = s.do(t, "GET", "/api/battle/combos?unused=true", nil)
	assert.Len(t, decode[[]entities.BattleComboWithTags](t, w), 2)

	w = s.do(t, "PUT", "/api/battle/combos/missing/used", obj{"used": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBattleController_UpdateKeepsUsed(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	combo, err := s.battle.CreateCombo(ctx, "old", "", "")
	require.NoError(t, err)
	require.NoError(t, s.battle.SetUsed(ctx, combo.ID, true))

	w := s.do(t, "PATCH", "/api/battle/combos/"+combo.ID, obj{"description": "new", "energy": "MEDIUM", "status": "READY"})
	requireStatus(t, w, http.StatusOK)

	got := decode[entities.BattleComboWithTags](t, w)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, entities.EnergyMedium, got.Energy)
	assert.True(t, got.IsUsed)

	w = s.do(t, "PATCH", "/api/battle/combos/missing", obj{"description": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBattleController_TagsAndCascade(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	combo, err := s.battle.CreateCombo(ctx, "set", "", "")
	require.NoError(t, err)

	w := s.do(t, "POST", "/api/battle/tags", obj{"name": "opener"})
	requireStatus(t, w, http.StatusCreated)
	opener := decode[entities.BattleTag](t, w)
	w = s.do(t, "POST", "/api/battle/tags", obj{"name": "closer"})
	closer := decode[entities.BattleTag](t, w)

	w = s.do(t, "PUT", "/api/battle/combos/"+combo.ID+"/tags", obj{"tagIds": []string{opener.ID, closer.ID}})
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decode[entities.BattleComboWithTags](t, w).Tags, 2)

	w = s.do(t, "PUT", "/api/battle/combos/"+combo.ID+"/tags", obj{"tagIds": []string{opener.ID, "missing"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The failed replace left the previous tags in place.
	got, err := s.battle.GetCombo(ctx, combo.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)

	w = s.do(t, "PATCH", "/api/battle/tags/"+closer.ID, obj{"name": "finisher"})
	requireStatus(t, w, http.StatusOK)

	w = s.do(t, "DELETE", "/api/battle/tags/"+opener.ID, nil)
	requireStatus(t, w, http.StatusOK)

	got, err = s.battle.GetCombo(ctx, combo.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "finisher", got.Tags[0].Name)

	w = s.do(t, "GET", "/api/battle/tags", nil)
	assert.Len(t, decode[[]entities.BattleTag](t, w), 1)

	w = s.do(t, "DELETE", "/api/battle/combos/"+combo.ID, nil)
	requireStatus(t, w, http.StatusOK)
	w = s.do(t, "GET", "/api/battle/combos/"+combo.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	links, err := s.battle.ListLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}
