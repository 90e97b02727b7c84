package handlers

import (
	"github.com/gin-gonic/gin"

	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/http/response"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context(), httpMW.UserID(c))
	if err != nil {
		response.RespondServiceError(c, "get_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}
