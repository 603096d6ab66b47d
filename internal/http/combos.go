package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type CombosController struct {
	store    ComboStore
	activity ActivityLog
}

func NewCombosController(store ComboStore, activity ActivityLog) *CombosController {
	return &CombosController{store: store, activity: activity}
}

// comboRequest carries move names, not move IDs; the names are copied into
// the combo as they are.
type comboRequest struct {
	Name  string   `json:"name" binding:"required,max=200"`
	Moves []string `json:"moves"`
}

// ListCombos returns saved combos, most recently modified first
// GET /api/combos
func (cc *CombosController) ListCombos(c *gin.Context) {
	combos, err := cc.store.ListCombos(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list combos")
		return
	}
	c.JSON(http.StatusOK, combos)
}

// CreateCombo saves a new combo
// POST /api/combos
func (cc *CombosController) CreateCombo(c *gin.Context) {
	var req comboRequest
	if !bindJSON(c, &req) {
		return
	}

	combo, err := cc.store.CreateCombo(c.Request.Context(), strings.TrimSpace(req.Name), req.Moves)
	if err != nil {
		respondStoreError(c, err, "combo")
		return
	}
	respondCreated(c, combo)
}

// GetCombo returns one combo
// GET /api/combos/:id
func (cc *CombosController) GetCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	combo, err := cc.store.GetCombo(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "get combo")
		return
	}
	if combo == nil {
		respondNotFound(c, "combo")
		return
	}
	c.JSON(http.StatusOK, combo)
}

// UpdateCombo replaces a combo's name and moves
// PUT /api/combos/:id
func (cc *CombosController) UpdateCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req comboRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if err := cc.store.UpdateCombo(ctx, id, strings.TrimSpace(req.Name), req.Moves); err != nil {
		respondStoreError(c, err, "combo")
		return
	}

	combo, err := cc.store.GetCombo(ctx, id)
	if err != nil || combo == nil {
		respondSuccess(c, "combo updated")
		return
	}
	c.JSON(http.StatusOK, combo)
}

// DeleteCombo removes a combo
// DELETE /api/combos/:id
func (cc *CombosController) DeleteCombo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	combo, err := cc.store.GetCombo(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get combo")
		return
	}
	if combo == nil {
		respondNotFound(c, "combo")
		return
	}

	if err := cc.store.DeleteCombo(ctx, id); err != nil {
		respondStoreError(c, err, "combo")
		return
	}
	if cc.activity != nil {
		cc.activity.LogDelete("saved_combo", id, combo.Name)
	}
	respondSuccess(c, "combo deleted")
}
