package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/http/response"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type HabitHandler struct {
	habitService services.HabitService
	goalService  services.GoalService
}

func NewHabitHandler(habitService services.HabitService, goalService services.GoalService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
		goalService:  goalService,
	}
}

// POST /habits
// body: { "name": "...", "notes": "...", "goal_amount": 3, "weekday_mask": 127 }
func (hh *HabitHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Notes       string `json:"notes"`
		GoalAmount  int    `json:"goal_amount"`
		WeekdayMask *uint8 `json:"weekday_mask"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mask := uint8(0x7F)
	if req.WeekdayMask != nil {
		mask = *req.WeekdayMask
	}
	h, err := hh.habitService.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:      httpMW.UserID(c),
		Name:        req.Name,
		Notes:       req.Notes,
		GoalAmount:  req.GoalAmount,
		WeekdayMask: mask,
	})
	if err != nil {
		response.RespondServiceError(c, "create_habit_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"habit": h})
}

// GET /habits?include_archived=true
func (hh *HabitHandler) List(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	habits, err := hh.habitService.List(c.Request.Context(), httpMW.UserID(c), includeArchived)
	if err != nil {
		response.RespondServiceError(c, "list_habits_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"habits": habits})
}

// GET /habits/:id
func (hh *HabitHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	h, err := hh.habitService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_habit_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"habit": h})
}

// PATCH /habits/:id
// body: { "name": "...", "notes": "...", "weekday_mask": 62 } (all optional)
func (hh *HabitHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Notes       *string `json:"notes"`
		WeekdayMask *uint8  `json:"weekday_mask"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h, err := hh.habitService.Update(c.Request.Context(), id, services.UpdateHabitInput{
		Name:        req.Name,
		Notes:       req.Notes,
		WeekdayMask: req.WeekdayMask,
	})
	if err != nil {
		response.RespondServiceError(c, "update_habit_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"habit": h})
}

// DELETE /habits/:id (archive, not hard delete)
func (hh *HabitHandler) Archive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := hh.habitService.Archive(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "archive_habit_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /habits/:id/skip
// body: { "date": "YYYY-MM-DD", "undo": false }
func (hh *HabitHandler) Skip(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date"`
		Undo bool   `json:"undo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var err error
	if req.Undo {
		err = hh.habitService.Unskip(c.Request.Context(), id, req.Date)
	} else {
		err = hh.habitService.Skip(c.Request.Context(), httpMW.UserID(c), id, req.Date)
	}
	if err != nil {
		response.RespondServiceError(c, "skip_habit_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /habits/:id/goal
// body: { "amount": 5, "effective_from": "YYYY-MM-DD" }
func (hh *HabitHandler) SetGoal(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount        int    `json:"amount"`
		EffectiveFrom string `json:"effective_from"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	g, err := hh.goalService.SetGoal(c.Request.Context(), id, req.Amount, req.EffectiveFrom)
	if err != nil {
		response.RespondServiceError(c, "set_goal_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"goal": g})
}

// GET /habits/:id/goals
func (hh *HabitHandler) GoalHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	goals, err := hh.goalService.History(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "goal_history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"goals": goals})
}

// pathUUID parses a UUID path param and writes the 400 itself on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id",
			fmt.Errorf("malformed %s: %w", name, err))
		return uuid.Nil, false
	}
	return id, true
}
