package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cypher/internal/entities"
)

type ActivityController struct {
	activity ActivityLog
}

func NewActivityController(activity ActivityLog) *ActivityController {
	return &ActivityController{activity: activity}
}

var eventTypes = map[entities.AuditEventType]bool{
	entities.AuditEventImport: true,
	entities.AuditEventExport: true,
	entities.AuditEventBackup: true,
	entities.AuditEventDelete: true,
	entities.AuditEventPrune:  true,
}

// GetEvents returns paginated activity events, newest first
// GET /api/activity?type=import&limit=25&offset=0
func (ac *ActivityController) GetEvents(c *gin.Context) {
	eventType := entities.AuditEventType(c.Query("type"))
	if eventType != "" && !eventTypes[eventType] {
		respondBadRequest(c, "unknown event type: "+string(eventType))
		return
	}
	limit, offset := parsePagination(c, 25, 100)

	events, total, err := ac.activity.GetEvents(c.Request.Context(), eventType, limit, offset)
	if err != nil {
		respondInternalError(c, err, "get activity")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(events, total, limit, offset))
}

// Prune deletes events older than the given number of days
// DELETE /api/activity?older_than_days=30
func (ac *ActivityController) Prune(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("older_than_days", "30"))
	if err != nil || days < 1 {
		respondBadRequest(c, "older_than_days must be a positive integer")
		return
	}

	deleted, err := ac.activity.DeleteOldEvents(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondInternalError(c, err, "prune activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "activity pruned", "deleted": deleted})
}
