package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/entities"
)

func TestGoalsController_CreateWithStagesReportsProgress(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/goals", obj{
		"title":       "Airflare",
		"description": "clean reps",
		"stages": []obj{
			{"name": "drills", "currentCount": 3, "targetCount": 10, "unit": "reps"},
			{"name": "sets", "currentCount": 5, "targetCount": 5},
		},
	})
	requireStatus(t, w, http.StatusCreated)

	goal := decode[GoalResponse](t, w)
	assert.Equal(t, "Airflare", goal.Title)
	require.Len(t, goal.Stages, 2)
	assert.Equal(t, 0, goal.Stages[0].OrderIndex)
	assert.Equal(t, 1, goal.Stages[1].OrderIndex)
	assert.InDelta(t, 0.65, goal.Progress, 1e-9)

	w = s.do(t, "GET", "/api/goals/"+goal.ID+"/progress", nil)
	requireStatus(t, w, http.StatusOK)
	progress := decode[map[string]any](t, w)
	assert.InDelta(t, 0.65, progress["progress"], 1e-9)
	assert.Len(t, progress["stages"], 2)
}

func TestGoalsController_NoStagesIsZero(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/goals", obj{"title": "Headspin"})
	requireStatus(t, w, http.StatusCreated)

	goal := decode[GoalResponse](t, w)
	assert.Empty(t, goal.Stages)
	assert.Zero(t, goal.Progress)
}

func TestGoalsController_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, "POST", "/api/goals", obj{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "POST", "/api/goals", obj{"title": "x", "stages": []obj{{"name": "a", "targetCount": -1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", "/api/goals/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalsController_ArchiveFiltersList(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	active, err := s.goals.CreateGoal(ctx, "active", "")
	require.NoError(t, err)
	archived, err := s.goals.CreateGoal(ctx, "archived", "")
	require.NoError(t, err)

	w := s.do(t, "PUT", "/api/goals/"+archived.ID+"/archived", obj{"archived": true})
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[GoalResponse](t, w).IsArchived)

	w = s.do(t, "GET", "/api/goals", nil)
	list := decode[[]GoalResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	w = s.do(t, "GET", "/api/goals?archived=true", nil)
	assert.Len(t, decode[[]GoalResponse](t, w), 2)

	w = s.do(t, "PUT", "/api/goals/missing/archived", obj{"archived": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalsController_UpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	goal, err := s.goals.CreateGoal(ctx, "old", "")
	require.NoError(t, err)
	_, err = s.goals.AddStage(ctx, goal.ID, goals.StageInput{Name: "a", TargetCount: 1})
	require.NoError(t, err)

	w := s.do(t, "PATCH", "/api/goals/"+goal.ID, obj{"title": "new", "description": "d"})
	requireStatus(t, w, http.StatusOK)
	updated := decode[GoalResponse](t, w)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, "d", updated.Description)

	w = s.do(t, "DELETE", "/api/goals/"+goal.ID, nil)
	requireStatus(t, w, http.StatusOK)

	stages, err := s.goals.StagesForGoal(ctx, goal.ID)
	require.NoError(t, err)
	assert.Empty(t, stages)

	w = s.do(t, "DELETE", "/api/goals/"+goal.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalsController_Stages(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	goal, err := s.goals.CreateGoal(ctx, "Flare", "")
	require.NoError(t, err)

	w := s.do(t, "POST", "/api/goals/"+goal.ID+"/stages", obj{"name": "a", "targetCount": 10})
	requireStatus(t, w, http.StatusCreated)
	a := decode[entities.GoalStage](t, w)
	w = s.do(t, "POST", "/api/goals/"+goal.ID+"/stages", obj{"name": "b", "targetCount": 4})
	b := decode[entities.GoalStage](t, w)
	w = s.do(t, "POST", "/api/goals/"+goal.ID+"/stages", obj{"name": "c", "targetCount": 2})
	c := decode[entities.GoalStage](t, w)
	assert.Equal(t, 2, c.OrderIndex)

	w = s.do(t, "POST", "/api/goals/missing/stages", obj{"name": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "POST", "/api/stages/"+a.ID+"/increment", obj{"delta": 3})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 3, decode[entities.GoalStage](t, w).CurrentCount)

	w = s.do(t, "POST", "/api/stages/"+a.ID+"/increment", nil)
	assert.Equal(t, 4, decode[entities.GoalStage](t, w).CurrentCount)

	w = s.do(t, "POST", "/api/stages/"+a.ID+"/increment", obj{"delta": -10})
	assert.Equal(t, 0, decode[entities.GoalStage](t, w).CurrentCount)

	w = s.do(t, "PUT", "/api/stages/"+b.ID+"/count", obj{"count": 2})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 2, decode[entities.GoalStage](t, w).CurrentCount)

	w = s.do(t, "PUT", "/api/stages/"+b.ID+"/count", obj{"count": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "PATCH", "/api/stages/"+b.ID, obj{"name": "b2", "currentCount": 1, "targetCount": 8, "unit": "sets"})
	requireStatus(t, w, http.StatusOK)
	stage := decode[entities.GoalStage](t, w)
	assert.Equal(t, "b2", stage.Name)
	assert.Equal(t, 1, stage.OrderIndex)

	w = s.do(t, "DELETE", "/api/stages/"+a.ID, nil)
	requireStatus(t, w, http.StatusOK)

	stages, err := s.goals.StagesForGoal(ctx, goal.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "b2", stages[0].Name)
	assert.Equal(t, 0, stages[0].OrderIndex)
	assert.Equal(t, 1, stages[1].OrderIndex)

	w = s.do(t, "DELETE", "/api/stages/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, "POST", "/api/stages/"+a.ID+"/increment", obj{"delta": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoalsController_ReplaceStages(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	goal, err := s.goals.CreateGoal(ctx, "Flare", "")
	require.NoError(t, err)
	_, err = s.goals.AddStage(ctx, goal.ID, goals.StageInput{Name: "old"})
	require.NoError(t, err)

	w := s.do(t, "PUT", "/api/goals/"+goal.ID+"/stages", obj{"stages": []obj{
		{"name": "one", "targetCount": 2},
		{"name": "two", "targetCount": 2, "currentCount": 2},
	}})
	requireStatus(t, w, http.StatusOK)

	got := decode[GoalResponse](t, w)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "one", got.Stages[0].Name)
	assert.Equal(t, "two", got.Stages[1].Name)
	assert.InDelta(t, 0.5, got.Progress, 1e-9)

	w = s.do(t, "PUT", "/api/goals/missing/stages", obj{"stages": []obj{}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "PUT", "/api/goals/"+goal.ID+"/stages", obj{"stages": []obj{{"name": ""}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
