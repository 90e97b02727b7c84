package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/http/response"
	"github.com/tbexley/habitledger-backend/internal/platform/ctxutil"
)

const headerUserID = "X-User-Id"

// ResolveUser pins every request to a user ID. The header wins when a
// well-formed UUID is present; otherwise the configured local user is
// used. A malformed header is rejected rather than silently remapped.
func ResolveUser(defaultUserID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := defaultUserID
		if raw := strings.TrimSpace(c.GetHeader(headerUserID)); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				response.RespondError(c, http.StatusBadRequest, "invalid_user_id",
					fmt.Errorf("malformed %s header: %w", headerUserID, err))
				c.Abort()
				return
			}
			userID = parsed
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID: userID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserID pulls the resolved user from the request context.
func UserID(c *gin.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}
