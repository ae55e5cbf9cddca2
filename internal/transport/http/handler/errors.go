package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"botgpt-backend/internal/app"
	"botgpt-backend/internal/transport/http/middleware"
	"botgpt-backend/internal/transport/http/response"
)

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Validation(c, nil)
	case errors.Is(err, app.ErrUsernameTaken):
		response.Error(c, http.StatusBadRequest, response.CodeUsernameExists, "Username taken")
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, "User not found")
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, "Conversation not found")
	case errors.Is(err, app.ErrLLMUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeLLMUnavailable, err.Error())
	default:
		log.Printf("request_id=%s %s %s failed: %v",
			c.GetString(middleware.ContextRequestIDKey), c.Request.Method, c.FullPath(), err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal server error")
	}
}

func parseUintParam(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || id == 0 {
		response.FieldInvalid(c, key, "uint")
		return 0, false
	}
	return uint(id), true
}
