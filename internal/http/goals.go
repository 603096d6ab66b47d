package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cypher/internal/database/goals"
	"github.com/mrlokans/cypher/internal/entities"
)

type GoalsController struct {
	store    GoalStore
	activity ActivityLog
}

func NewGoalsController(store GoalStore, activity ActivityLog) *GoalsController {
	return &GoalsController{store: store, activity: activity}
}

// GoalResponse is a goal with its stages and overall progress.
type GoalResponse struct {
	entities.GoalWithStages
	Progress float64 `json:"progress"`
}

func newGoalResponse(g entities.GoalWithStages) GoalResponse {
	return GoalResponse{GoalWithStages: g, Progress: g.Progress()}
}

type goalRequest struct {
	Title       string         `json:"title" binding:"required,max=200"`
	Description string         `json:"description"`
	Stages      []stageRequest `json:"stages" binding:"dive"`
}

type stageRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	CurrentCount int    `json:"currentCount" binding:"gte=0"`
	TargetCount  int    `json:"targetCount" binding:"gte=0"`
	Unit         string `json:"unit" binding:"max=50"`
}

func (r stageRequest) input() goals.StageInput {
	return goals.StageInput{
		Name:         strings.TrimSpace(r.Name),
		CurrentCount: r.CurrentCount,
		TargetCount:  r.TargetCount,
		Unit:         strings.TrimSpace(r.Unit),
	}
}

func stageInputs(reqs []stageRequest) []goals.StageInput {
	in := make([]goals.StageInput, len(reqs))
	for i, r := range reqs {
		in[i] = r.input()
	}
	return in
}

// ListGoals returns goals with stages and progress
// GET /api/goals?archived=true
func (gc *GoalsController) ListGoals(c *gin.Context) {
	list, err := gc.store.ListGoals(c.Request.Context(), parseBoolQuery(c, "archived", false))
	if err != nil {
		respondInternalError(c, err, "list goals")
		return
	}

	out := make([]GoalResponse, len(list))
	for i, g := range list {
		out[i] = newGoalResponse(g)
	}
	c.JSON(http.StatusOK, out)
}

// CreateGoal creates a goal, optionally with its initial stages
// POST /api/goals
func (gc *GoalsController) CreateGoal(c *gin.Context) {
	var req goalRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	goal, err := gc.store.CreateGoal(ctx, strings.TrimSpace(req.Title), req.Description)
	if err != nil {
		respondStoreError(c, err, "goal")
		return
	}

	if len(req.Stages) > 0 {
		if _, err := gc.store.ReplaceStages(ctx, goal.ID, stageInputs(req.Stages)); err != nil {
			respondStoreError(c, err, "goal")
			return
		}
	}

	gc.respondGoal(c, http.StatusCreated, goal.ID)
}

// GetGoal returns a goal with stages ordered by orderIndex and its progress
// GET /api/goals/:id
func (gc *GoalsController) GetGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	gc.respondGoal(c, http.StatusOK, id)
}

// UpdateGoal edits title and description
// PATCH /api/goals/:id
func (gc *GoalsController) UpdateGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req goalRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := gc.store.UpdateGoal(c.Request.Context(), id, strings.TrimSpace(req.Title), req.Description); err != nil {
		respondStoreError(c, err, "goal")
		return
	}
	gc.respondGoal(c, http.StatusOK, id)
}

// SetArchived archives or restores a goal
// PUT /api/goals/:id/archived
func (gc *GoalsController) SetArchived(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Archived *bool `json:"archived" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := gc.store.SetArchived(c.Request.Context(), id, *req.Archived); err != nil {
		respondStoreError(c, err, "goal")
		return
	}
	gc.respondGoal(c, http.StatusOK, id)
}

// DeleteGoal removes a goal and its stages
// DELETE /api/goals/:id
func (gc *GoalsController) DeleteGoal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	goal, err := gc.store.GetGoal(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get goal")
		return
	}
	if goal == nil {
		respondNotFound(c, "goal")
		return
	}

	if err := gc.store.DeleteGoal(ctx, id); err != nil {
		respondStoreError(c, err, "goal")
		return
	}
	if gc.activity != nil {
		gc.activity.LogDelete("goal", id, goal.Title)
	}
	respondSuccess(c, "goal deleted")
}

// GetProgress returns the goal's progress and per-stage ratios
// GET /api/goals/:id/progress
func (gc *GoalsController) GetProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	goal, err := gc.store.GetGoal(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get goal")
		return
	}
	if goal == nil {
		respondNotFound(c, "goal")
		return
	}

	stages := make([]gin.H, len(goal.Stages))
	for i, s := range goal.Stages {
		stages[i] = gin.H{"id": s.ID, "name": s.Name, "ratio": s.Ratio()}
	}
	c.JSON(http.StatusOK, gin.H{"goalId": goal.ID, "progress": goal.Progress(), "stages": stages})
}

func (gc *GoalsController) respondGoal(c *gin.Context, status int, id string) {
	goal, err := gc.store.GetGoal(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get goal")
		return
	}
	if goal == nil {
		respondNotFound(c, "goal")
		return
	}
	c.JSON(status, newGoalResponse(*goal))
}

// --- Stages ---

// AddStage appends a stage to the goal
// POST /api/goals/:id/stages
func (gc *GoalsController) AddStage(c *gin.Context) {
	goalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req stageRequest
	if !bindJSON(c, &req) {
		return
	}

	stage, err := gc.store.AddStage(c.Request.Context(), goalID, req.input())
	if err != nil {
		respondStoreError(c, err, "goal")
		return
	}
	respondCreated(c, stage)
}

// ReplaceStages swaps the goal's stages for the given list in order
// PUT /api/goals/:id/stages
func (gc *GoalsController) ReplaceStages(c *gin.Context) {
	goalID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Stages []stageRequest `json:"stages" binding:"dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if _, err := gc.store.ReplaceStages(c.Request.Context(), goalID, stageInputs(req.Stages)); err != nil {
		respondStoreError(c, err, "goal")
		return
	}
	gc.respondGoal(c, http.StatusOK, goalID)
}

// UpdateStage edits a stage
// PATCH /api/stages/:id
func (gc *GoalsController) UpdateStage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req stageRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := gc.store.UpdateStage(c.Request.Context(), id, req.input()); err != nil {
		respondStoreError(c, err, "stage")
		return
	}
	gc.respondStage(c, id)
}

// SetStageCount sets a stage's current count
// PUT /api/stages/:id/count
func (gc *GoalsController) SetStageCount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Count *int `json:"count" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := gc.store.SetStageCount(c.Request.Context(), id, *req.Count); err != nil {
		respondStoreError(c, err, "stage")
		return
	}
	gc.respondStage(c, id)
}

// IncrementStage adds delta to the current count, never going below zero
// POST /api/stages/:id/increment
func (gc *GoalsController) IncrementStage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	stage, err := gc.store.IncrementStage(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondStoreError(c, err, "stage")
		return
	}
	if stage == nil {
		respondNotFound(c, "stage")
		return
	}
	c.JSON(http.StatusOK, stage)
}

// DeleteStage removes a stage; later stages move up
// DELETE /api/stages/:id
func (gc *GoalsController) DeleteStage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := gc.store.DeleteStage(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "stage")
		return
	}
	respondSuccess(c, "stage deleted")
}

func (gc *GoalsController) respondStage(c *gin.Context, id string) {
	stage, err := gc.store.GetStage(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get stage")
		return
	}
	if stage == nil {
		respondNotFound(c, "stage")
		return
	}
	c.JSON(http.StatusOK, stage)
}
