package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/http/response"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type ProgressHandler struct {
	eventLog    services.EventLogService
	view        services.ProgressViewService
	goalService services.GoalService
}

func NewProgressHandler(
	eventLog services.EventLogService,
	view services.ProgressViewService,
	goalService services.GoalService,
) *ProgressHandler {
	return &ProgressHandler{
		eventLog:    eventLog,
		view:        view,
		goalService: goalService,
	}
}

// POST /progress/events
// body: { "habit_id": "...", "date": "YYYY-MM-DD", "event_type": "increment",
//         "progress_delta": 1, "operation_id": "...", "note": "...",
//         "metadata": { ... } }
func (ph *ProgressHandler) AppendEvent(c *gin.Context) {
	var req struct {
		HabitID       string                 `json:"habit_id"`
		Date          string                 `json:"date"`
		EventType     string                 `json:"event_type"`
		ProgressDelta int                    `json:"progress_delta"`
		OperationID   string                 `json:"operation_id"`
		Note          string                 `json:"note"`
		Metadata      map[string]interface{} `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	habitID, ok := parseBodyUUID(c, "habit_id", req.HabitID)
	if !ok {
		return
	}
	ev, err := ph.eventLog.Append(c.Request.Context(), services.AppendInput{
		UserID:        httpMW.UserID(c),
		HabitID:       habitID,
		DateKey:       req.Date,
		EventType:     req.EventType,
		ProgressDelta: req.ProgressDelta,
		OperationID:   req.OperationID,
		Note:          req.Note,
		Metadata:      req.Metadata,
	})
	if err != nil {
		response.RespondServiceError(c, "append_event_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"event": ev})
}

// GET /habits/:id/progress?date=YYYY-MM-DD
func (ph *ProgressHandler) GetHabitProgress(c *gin.Context) {
	habitID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")
	if !progress.ValidDateKey(date) {
		response.RespondError(c, http.StatusBadRequest, "invalid_date", apperr.ErrInvalidDateKey)
		return
	}
	goal, err := ph.goalService.GoalAmount(c.Request.Context(), habitID, date)
	if err != nil {
		response.RespondServiceError(c, "get_progress_failed", err)
		return
	}
	current, completed, err := ph.view.CurrentProgress(
		c.Request.Context(), httpMW.UserID(c), habitID, date, goal, nil)
	if err != nil {
		response.RespondServiceError(c, "get_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"habit_id":  habitID,
		"date":      date,
		"progress":  current,
		"goal":      goal,
		"completed": completed,
	})
}

// parseBodyUUID parses a UUID taken from a JSON body and writes the 400
// itself on failure.
func parseBodyUUID(c *gin.Context, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id",
			fmt.Errorf("malformed %s: %w", field, err))
		return uuid.Nil, false
	}
	return id, true
}
