package handlers

import (
	"net/http"

	"tutor-service/internal/models"
	"tutor-service/internal/server/middleware"
	"tutor-service/internal/service"
	"tutor-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// @Summary Update preferences
// @Description Partial update of the caller's UI/voice preferences
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdatePreferencesRequest true "Preferences"
// @Success 200 {object} models.UserPreference
// @Failure 400 {object} map[string]string
// @Router /users/me/preferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	pref, err := h.users.UpdatePreferences(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, pref)
}
