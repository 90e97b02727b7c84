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

type XPHandler struct {
	xpService services.XPService
}

func NewXPHandler(xpService services.XPService) *XPHandler {
	return &XPHandler{xpService: xpService}
}

// POST /xp/grant
// body: { "date": "YYYY-MM-DD" }
func (xh *XPHandler) Grant(c *gin.Context) {
	date, ok := xh.bindDate(c)
	if !ok {
		return
	}
	granted, err := xh.xpService.GrantIfAllComplete(c.Request.Context(), httpMW.UserID(c), date)
	if err != nil {
		response.RespondServiceError(c, "grant_xp_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"granted": granted, "date": date})
}

// POST /xp/revoke
// body: { "date": "YYYY-MM-DD" }
func (xh *XPHandler) Revoke(c *gin.Context) {
	date, ok := xh.bindDate(c)
	if !ok {
		return
	}
	revoked, err := xh.xpService.RevokeIfAnyIncomplete(c.Request.Context(), httpMW.UserID(c), date)
	if err != nil {
		response.RespondServiceError(c, "revoke_xp_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"revoked": revoked, "date": date})
}

// GET /xp
func (xh *XPHandler) GetProgress(c *gin.Context) {
	prog, err := xh.xpService.GetProgress(c.Request.Context(), httpMW.UserID(c))
	if err != nil {
		response.RespondServiceError(c, "get_xp_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"progress": prog})
}

// GET /xp/awards
func (xh *XPHandler) ListAwards(c *gin.Context) {
	awards, err := xh.xpService.ListAwards(c.Request.Context(), httpMW.UserID(c))
	if err != nil {
		response.RespondServiceError(c, "list_awards_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"awards": awards})
}

func (xh *XPHandler) bindDate(c *gin.Context) (string, bool) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return "", false
	}
	if !progress.ValidDateKey(req.Date) {
		response.RespondError(c, http.StatusBadRequest, "invalid_date", apperr.ErrInvalidDateKey)
		return "", false
	}
	return req.Date, true
}
