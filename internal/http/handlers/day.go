package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/http/response"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type DayHandler struct {
	schedule services.ScheduleService
}

func NewDayHandler(schedule services.ScheduleService) *DayHandler {
	return &DayHandler{schedule: schedule}
}

// GET /days/:date/summary
func (dh *DayHandler) Summary(c *gin.Context) {
	date := c.Param("date")
	if !progress.ValidDateKey(date) {
		response.RespondError(c, http.StatusBadRequest, "invalid_date", apperr.ErrInvalidDateKey)
		return
	}
	summary, err := dh.schedule.Summary(c.Request.Context(), httpMW.UserID(c), date)
	if err != nil {
		response.RespondServiceError(c, "day_summary_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}
