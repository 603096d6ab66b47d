package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cypher/internal/entities"
	"github.com/mrlokans/cypher/internal/filter"
)

type MovesController struct {
	store    MoveStore
	activity ActivityLog
}

func NewMovesController(store MoveStore, activity ActivityLog) *MovesController {
	return &MovesController{store: store, activity: activity}
}

type moveRequest struct {
	Name string   `json:"name" binding:"required,max=200"`
	Tags []string `json:"tags"` // tag names, created when missing
}

type tagRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type tagIDsRequest struct {
	TagIDs []string `json:"tagIds"`
}

// selectedNames reads ?tags=a,b or repeated ?tags=a&tags=b.
func selectedNames(c *gin.Context) []string {
	var names []string
	for _, v := range c.QueryArray("tags") {
		for _, name := range strings.Split(v, ",") {
			names = append(names, strings.TrimSpace(name))
		}
	}
	return names
}

func selectedTags(c *gin.Context) filter.Selection {
	return filter.NewSelection(selectedNames(c)...)
}

// ListMoves returns moves with their tags, optionally narrowed to moves
// carrying any of the selected tags.
// GET /api/moves?tags=power,freeze
func (mc *MovesController) ListMoves(c *gin.Context) {
	moves, err := mc.store.ListMovesWithTags(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list moves")
		return
	}
	c.JSON(http.StatusOK, filter.FilterMoves(moves, selectedTags(c)))
}

// StreamMoves pushes the filtered move list as server-sent events whenever
// the catalog changes.
// GET /api/moves/stream?tags=power
func (mc *MovesController) StreamMoves(c *gin.Context) {
	ctx := c.Request.Context()
	lists := filter.Moves(ctx, mc.store.ObserveMovesWithTags(ctx), nil, selectedNames(c)...)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case moves, ok := <-lists:
			if !ok {
				return false
			}
			c.SSEvent("moves", moves)
			return true
		}
	})
}

// CreateMove creates a move and links the named tags
// POST /api/moves
func (mc *MovesController) CreateMove(c *gin.Context) {
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	move, err := mc.store.CreateMove(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		respondStoreError(c, err, "move")
		return
	}

	tags := []entities.MoveTag{}
	if len(req.Tags) > 0 {
		ids := make([]string, 0, len(req.Tags))
		for _, name := range req.Tags {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			tag, err := mc.store.GetOrCreateTag(ctx, name)
			if err != nil {
				respondStoreError(c, err, "tag")
				return
			}
			ids = append(ids, tag.ID)
		}
		if err := mc.store.SetMoveTags(ctx, move.ID, ids); err != nil {
			respondStoreError(c, err, "move")
			return
		}
		if tags, err = mc.store.TagsForMove(ctx, move.ID); err != nil {
			respondInternalError(c, err, "tags for move")
			return
		}
	}

	respondCreated(c, entities.MoveWithTags{Move: *move, Tags: tags})
}

// GetMove returns one move with its tags
// GET /api/moves/:id
func (mc *MovesController) GetMove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	move, err := mc.store.GetMove(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get move")
		return
	}
	if move == nil {
		respondNotFound(c, "move")
		return
	}

	tags, err := mc.store.TagsForMove(ctx, id)
	if err != nil {
		respondInternalError(c, err, "tags for move")
		return
	}
	c.JSON(http.StatusOK, entities.MoveWithTags{Move: *move, Tags: tags})
}

// RenameMove changes a move's name. Saved combos keep the old name.
// PATCH /api/moves/:id
func (mc *MovesController) RenameMove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := mc.store.RenameMove(c.Request.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		respondStoreError(c, err, "move")
		return
	}
	respondSuccess(c, "move renamed")
}

// DeleteMove removes a move and its tag links
// DELETE /api/moves/:id
func (mc *MovesController) DeleteMove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	move, err := mc.store.GetMove(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get move")
		return
	}
	if move == nil {
		respondNotFound(c, "move")
		return
	}

	if err := mc.store.DeleteMove(ctx, id); err != nil {
		respondStoreError(c, err, "move")
		return
	}
	if mc.activity != nil {
		mc.activity.LogDelete("move", id, move.Name)
	}
	respondSuccess(c, "move deleted")
}

// SetMoveTags replaces the move's tags with the given tag IDs
// PUT /api/moves/:id/tags
func (mc *MovesController) SetMoveTags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req tagIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if err := mc.store.SetMoveTags(ctx, id, req.TagIDs); err != nil {
		respondStoreError(c, err, "move")
		return
	}
	mc.respondTags(c, id, "tags replaced")
}

// AddTagToMove links a tag by id or by name
// POST /api/moves/:id/tags
func (mc *MovesController) AddTagToMove(c *gin.Context) {
	moveID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		TagID   string `json:"tag_id"`
		TagName string `json:"tag_name"`
	}
	_ = c.ShouldBindJSON(&req)
	ctx := c.Request.Context()

	tagID := req.TagID
	if tagID == "" {
		name := strings.TrimSpace(req.TagName)
		if name == "" {
			respondBadRequest(c, "tag_id or tag_name required")
			return
		}
		tag, err := mc.store.GetOrCreateTag(ctx, name)
		if err != nil {
			respondStoreError(c, err, "tag")
			return
		}
		tagID = tag.ID
	}

	if err := mc.store.AddTagToMove(ctx, moveID, tagID); err != nil {
		respondStoreError(c, err, "move or tag")
		return
	}
	mc.respondTags(c, moveID, "tag added")
}

// RemoveTagFromMove unlinks a tag
// DELETE /api/moves/:id/tags/:tagId
func (mc *MovesController) RemoveTagFromMove(c *gin.Context) {
	moveID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tagId")
	if !ok {
		return
	}

	if err := mc.store.RemoveTagFromMove(c.Request.Context(), moveID, tagID); err != nil {
		respondStoreError(c, err, "tag link")
		return
	}
	mc.respondTags(c, moveID, "tag removed")
}

func (mc *MovesController) respondTags(c *gin.Context, moveID, message string) {
	tags, err := mc.store.TagsForMove(c.Request.Context(), moveID)
	if err != nil {
		respondSuccess(c, message)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "tags": tags})
}

// --- Move tags ---

// ListTags returns all move tags
// GET /api/move-tags
func (mc *MovesController) ListTags(c *gin.Context) {
	tags, err := mc.store.ListTags(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list move tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// CreateTag returns the tag with that name, creating it if needed
// POST /api/move-tags
func (mc *MovesController) CreateTag(c *gin.Context) {
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := mc.store.GetOrCreateTag(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		respondStoreError(c, err, "tag")
		return
	}
	respondCreated(c, tag)
}

// RenameTag changes a tag's name
// PATCH /api/move-tags/:id
func (mc *MovesController) RenameTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req tagRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := mc.store.RenameTag(c.Request.Context(), id, strings.TrimSpace(req.Name)); err != nil {
		respondStoreError(c, err, "tag")
		return
	}
	respondSuccess(c, "tag renamed")
}

// DeleteTag removes a tag and its links; moves stay
// DELETE /api/move-tags/:id
func (mc *MovesController) DeleteTag(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tag, err := mc.store.GetTag(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get tag")
		return
	}
	if tag == nil {
		respondNotFound(c, "tag")
		return
	}

	if err := mc.store.DeleteTag(ctx, id); err != nil {
		respondStoreError(c, err, "tag")
		return
	}
	if mc.activity != nil {
		mc.activity.LogDelete("move_tag", id, tag.Name)
	}
	respondSuccess(c, "tag deleted")
}
