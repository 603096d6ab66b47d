package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cypher/internal/timer"
)

const minTimerTick = 10 * time.Millisecond

type PreferencesController struct {
	prefs    TimerPreferences
	readOnly bool
}

// NewPreferencesController serves the timer preference. With readOnly set
// the countdown stream never saves its duration.
func NewPreferencesController(prefs TimerPreferences, readOnly bool) *PreferencesController {
	return &PreferencesController{prefs: prefs, readOnly: readOnly}
}

// GetTimer returns the practice timer duration and whether it was saved or
// is the default.
// GET /api/preferences/timer
func (pc *PreferencesController) GetTimer(c *gin.Context) {
	c.JSON(http.StatusOK, pc.prefs.TimerInfo())
}

// SetTimer saves the practice timer duration in seconds
// PUT /api/preferences/timer
func (pc *PreferencesController) SetTimer(c *gin.Context) {
	var req struct {
		Seconds int `json:"seconds" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := pc.prefs.SetTimerDuration(req.Seconds); err != nil {
		respondStoreError(c, err, "preferences")
		return
	}
	c.JSON(http.StatusOK, pc.prefs.TimerInfo())
}

// StreamTimer runs a countdown as server-sent "remaining" events, ending with
// 0. Without ?seconds= the saved duration is used; an explicit value becomes
// the new saved duration unless the server is read-only. ?tick= sets the
// interval (default 1s).
// GET /api/timer/stream
func (pc *PreferencesController) StreamTimer(c *gin.Context) {
	d := pc.prefs.TimerDuration()
	if raw := c.Query("seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, "seconds must be an integer")
			return
		}
		if seconds <= 0 {
			respondBadRequest(c, "seconds must be positive")
			return
		}
		if !pc.readOnly {
			if err := pc.prefs.SetTimerDuration(seconds); err != nil {
				respondStoreError(c, err, "preferences")
				return
			}
		}
		d = time.Duration(seconds) * time.Second
	}

	tick := time.Second
	if raw := c.Query("tick"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < minTimerTick {
			respondBadRequest(c, "tick must be a duration of at least 10ms")
			return
		}
		tick = parsed
	}

	ctx := c.Request.Context()
	remaining := timer.Countdown(ctx, d, tick)

	c.Stream(func(w io.Writer) bool {
		left, ok := <-remaining
		if !ok {
			return false
		}
		c.SSEvent("remaining", gin.H{
			"remaining_ms": left.Milliseconds(),
			"seconds":      int(left.Round(time.Second) / time.Second),
		})
		return left > 0
	})
}
