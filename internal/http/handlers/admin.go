package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/http/response"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type AdminHandler struct {
	compaction services.CompactionService
	integrity  services.IntegrityService
}

func NewAdminHandler(compaction services.CompactionService, integrity services.IntegrityService) *AdminHandler {
	return &AdminHandler{
		compaction: compaction,
		integrity:  integrity,
	}
}

// POST /admin/compact
// body (optional): { "age_days": 3 }
func (ah *AdminHandler) Compact(c *gin.Context) {
	var req struct {
		AgeDays int `json:"age_days"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	var (
		result services.CompactionResult
		err    error
	)
	if req.AgeDays > 0 {
		result, err = ah.compaction.CompactWithThreshold(c.Request.Context(), req.AgeDays)
	} else {
		result, err = ah.compaction.Compact(c.Request.Context())
	}
	if err != nil {
		response.RespondServiceError(c, "compact_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"events_processed": result.EventsProcessed,
		"records_updated":  result.RecordsUpdated,
		"events_deleted":   result.EventsDeleted,
	})
}

// POST /admin/integrity/run
// body (optional): { "cleanup_awards": true,
//                    "reconcile": { "habit_id": "...", "date": "YYYY-MM-DD" } }
// Repairs the XP aggregate against the ledger; validation of individual
// awards is always reported, cleanup of invalid ones is opt-in. A
// reconcile target additionally rebuilds that habit-day completion
// record from its events.
func (ah *AdminHandler) RunIntegrity(c *gin.Context) {
	var req struct {
		CleanupAwards bool `json:"cleanup_awards"`
		Reconcile     *struct {
			HabitID string `json:"habit_id"`
			Date    string `json:"date"`
		} `json:"reconcile"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	userID := httpMW.UserID(c)
	ctx := c.Request.Context()

	consistentBefore, err := ah.integrity.Verify(ctx, userID)
	if err != nil {
		response.RespondServiceError(c, "integrity_verify_failed", err)
		return
	}
	if !consistentBefore {
		if err := ah.integrity.Repair(ctx, userID); err != nil {
			response.RespondServiceError(c, "integrity_repair_failed", err)
			return
		}
	}

	validations, err := ah.integrity.ValidateAwards(ctx, userID)
	if err != nil {
		response.RespondServiceError(c, "award_validation_failed", err)
		return
	}

	cleaned := 0
	if req.CleanupAwards {
		cleaned, err = ah.integrity.CleanupInvalidAwards(ctx, userID)
		if err != nil {
			response.RespondServiceError(c, "award_cleanup_failed", err)
			return
		}
	}

	out := gin.H{
		"consistent":     consistentBefore,
		"repaired":       !consistentBefore,
		"awards":         validations,
		"awards_cleaned": cleaned,
	}

	if req.Reconcile != nil {
		habitID, ok := parseBodyUUID(c, "reconcile.habit_id", req.Reconcile.HabitID)
		if !ok {
			return
		}
		changed, err := ah.integrity.ReconcileCompletionRecord(ctx, userID, habitID, req.Reconcile.Date)
		if err != nil {
			response.RespondServiceError(c, "reconcile_failed", err)
			return
		}
		out["reconciled"] = changed
	}

	response.RespondOK(c, out)
}
