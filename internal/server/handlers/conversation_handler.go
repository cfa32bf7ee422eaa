package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tutor-service/internal/models"
	"tutor-service/internal/server/middleware"
	"tutor-service/internal/service"
	"tutor-service/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ConversationHandler struct {
	convs *service.ConversationService
}

func NewConversationHandler(convs *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convs: convs}
}

// @Summary Create a conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateConversationRequest true "Conversation"
// @Success 201 {object} models.ConversationResponse
// @Failure 400 {object} map[string]string
// @Router /conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.convs.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, conv.ToResponse(false))
}

// @Summary List conversations
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset"
// @Param limit query int false "Page size"
// @Success 200 {array} models.ConversationResponse
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	convs, err := h.convs.List(c.Request.Context(), middleware.UserID(c), skip, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	out := make([]models.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conv.ToResponse(false))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get a conversation with its messages
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	convID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid conversation id")
		return
	}

	conv, err := h.convs.Get(c.Request.Context(), middleware.UserID(c), convID)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv.ToResponse(true))
}

// @Summary Deactivate a conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /conversations/{id} [delete]
func (h *ConversationHandler) Deactivate(c *gin.Context) {
	convID, err := parseIDParam(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid conversation id")
		return
	}

	if err := h.convs.Deactivate(c.Request.Context(), middleware.UserID(c), convID); err != nil {
		respondConversationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func respondConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotConversationOwner):
		response.Error(c, http.StatusForbidden, "not your conversation")
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, "conversation not found")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
