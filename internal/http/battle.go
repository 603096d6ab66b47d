package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cypher/internal/database/battle"
	"github.com/mrlokans/cypher/internal/entities"
)

type BattleController struct {
	store    BattleStore
	activity ActivityLog
}

func NewBattleController(store BattleStore, activity ActivityLog) *BattleController {
	return &BattleController{store: store, activity: activity}
}

type battleComboRequest struct {
	Description string   `json:"description" binding:"required"`
	Energy      string   `json:"energy"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"` // tag names, created when missing
}

// ListCombos returns battle combos with tags.
// GET /api/battle/combos?energy=HIGH&status=READY&unused=true
func (bc *BattleController) ListCombos(c *gin.Context) {
	f := battle.ComboFilter{
		Energy:     entities.EnergyLevel(strings.ToUpper(c.Query("energy"))),
		Status:     entities.TrainingStatus(strings.ToUpper(c.Query("status"))),
		UnusedOnly: parseBoolQuery(c, "unused", false),
	}
	if f.Energy != "" && !f.Energy.Valid() {
		respondBadRequest(c, "invalid energy")
		return
	}
	if f.Status != "" && !f.Status.Valid() {
		respondBadRequest(c, "invalid status")
		return
	}

	combos, err := bc.store.ListCombosWithTags(c.Request.Context(), f)
	if err != nil {
		respondInternalError(c, err, "list battle combos")
		return
	}
	c.JSON(http.StatusOK, combos)
}

// CreateCombo creates a battle combo. Energy defaults to NONE and status
// to TRAINING.
// POST /api/battle/combos
func (bc *BattleController) CreateCombo(c *gin.Context) {
	var req battleComboRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	combo, err := bc.store.CreateCombo(ctx,
		strings.TrimSpace(req.Description),
		entities.EnergyLevel(strings.ToUpper(req.Energy)),
		entities.TrainingStatus(strings.ToUpper(req.Status)),
	)
	if err != nil {
		respondStoreError(c, err, "battle combo")
		return
	}

	if len(req.Tags) > 0 {
		ids, ok := bc.tagIDs(c, req.Tags)
		if !ok {
			return
		}
		if err := bc.store.ReplaceComboTags(ctx, combo.ID, ids); err != nil {
			respondStoreError(c, err, "battle combo")
			return
		}
	}

	bc.respondCombo(c, http.StatusCreated, combo.ID)
}

// GetCombo returns one battle combo with tags
// GET /api/battle/combos/:id
func (bc *BattleController) GetCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bc.respondCombo(c, http.StatusOK, id)
}

// UpdateCombo edits description, energy and status
// PATCH /api/battle/combos/:id
func (bc *BattleController) UpdateCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req battleComboRequest
	if !bindJSON(c, &req) {
		return
	}

	update := battle.ComboUpdate{
		Description: strings.TrimSpace(req.Description),
		Energy:      entities.EnergyLevel(strings.ToUpper(req.Energy)),
		Status:      entities.TrainingStatus(strings.ToUpper(req.Status)),
	}
	if err := bc.store.UpdateCombo(c.Request.Context(), id, update); err != nil {
		respondStoreError(c, err, "battle combo")
		return
	}
	bc.respondCombo(c, http.StatusOK, id)
}

// SetUsed marks a combo as used or unused in the current battle
// PUT /api/battle/combos/:id/used
func (bc *BattleController) SetUsed(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Used *bool `json:"used" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := bc.store.SetUsed(c.Request.Context(), id, *req.Used); err != nil {
		respondStoreError(c, err, "battle combo")
		return
	}
	bc.respondCombo(c, http.StatusOK, id)
}

// ResetUsed marks every combo unused
// POST /api/battle/combos/reset-used
func (bc *BattleController) ResetUsed(c *gin.Context) {
	n, err := bc.store.ResetUsed(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "reset used")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "combos reset", "updated": n})
}

// DeleteCombo removes a battle combo and its tag links
// DELETE /api/battle/combos/:id
func (bc *BattleController) DeleteCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	combo, err := bc.store.GetCombo(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get battle combo")
		return
	}
	if combo == nil {
		respondNotFound(c, "battle combo")
		return
	}

	if err := bc.store.DeleteCombo(ctx, id); err != nil {
		respondStoreError(c, err, "battle combo")
		return
	}
	if bc.activity != nil {
		bc.activity.LogDelete("battle_combo", id, combo.Description)
	}
	respondSuccess(c, "battle combo deleted")
}

// ReplaceTags sets the combo's tags to exactly the given IDs
// PUT /api/battle/combos/:id/tags
func (bc *BattleController) ReplaceTags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req tagIDsRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := bc.store.ReplaceComboTags(c.Request.Context(), id, req.TagIDs); err != nil {
		respondStoreError(c, err, "battle combo")
		return
	}
	bc.respondCombo(c, http.StatusOK, id)
}

func (bc *BattleController) tagIDs(c *gin.Context, names []string) ([]string, bool) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := bc.store.GetOrCreateTag(c.Request.Context(), name)
		if err != nil {
			respondStoreError(c, err, "battle tag")
			return nil, false
		}
		ids = append(ids, tag.ID)
	}
	return ids, true
}

func (bc *BattleController) respondCombo(c *gin.Context, status int, id string) {
	combo, err := bc.store.GetCombo(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get battle combo")
		return
	}
	if combo == nil {
		respondNotFound(c, "battle combo")
		return
	}
	c.JSON(status, combo)
}

// --- Battle tags ---

// ListTags returns all battle tags
// GET /api/battle/tags
func (bc *BattleController) ListTags(c *gin.Context) {
	tags, err := bc.store.ListTags(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list battle tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// CreateTag returns the battle tag with that name, creating it if needed
// POST /api/battle/tags
func (bc *BattleController) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := bc.store.GetOrCreateTag(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		respondStoreError(c, err, "battle tag")
		return
	}
	respondCreated(c, tag)
}

// RenameTag changes a battle tag's name
// PATCH /api/battle/tags/:id
func (bc *BattleController) RenameTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := bc.store.RenameTag(c.Request.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		respondStoreError(c, err, "battle tag")
		return
	}
	respondSuccess(c, "battle tag renamed")
}

// DeleteTag removes a battle tag and its links
// DELETE /api/battle/tags/:id
func (bc *BattleController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteTag(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "battle tag")
		return
	}
	if bc.activity != nil {
		bc.activity.LogDelete("battle_tag", id, "")
	}
	respondSuccess(c, "battle tag deleted")
}
