package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"botgpt-backend/internal/app"
	"botgpt-backend/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	user, err := h.userService.Create(c.Request.Context(), req.Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
