package handler

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/taskchat-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/taskchat-service/internal/domain/errors"
	"github.com/gin-gonic/gin"
)

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.StatusResponse{Success: false, Message: msg})
}

// handleError maps service errors to responses. Internal details only go to
// the request log.
func handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		fail(c, http.StatusBadRequest, err.Error())
	case customErrors.IsInvalidCredentials(err):
		fail(c, http.StatusUnauthorized, "invalid credentials")
	case customErrors.IsInvalidToken(err):
		fail(c, http.StatusUnauthorized, "invalid token")
	case customErrors.IsAlreadyExists(err):
		fail(c, http.StatusConflict, "identifier already taken")
	case customErrors.IsNotFound(err):
		fail(c, http.StatusNotFound, "not found")
	case customErrors.IsTooManyAttempts(err):
		fail(c, http.StatusTooManyRequests, "too many failed attempts, try again later")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
