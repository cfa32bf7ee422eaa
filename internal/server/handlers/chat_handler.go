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

// maxAudioUpload caps audio uploads at 10MB.
const maxAudioUpload = 10 << 20

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// @Summary Send a text message to the tutor
// @Description Persists the message, generates the tutor's reply and pushes a history_update to the user's sockets
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TextChatRequest true "Message"
// @Success 200 {object} models.ChatReplyResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chat/text [post]
func (h *ChatHandler) SendText(c *gin.Context) {
	var req models.TextChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.chat.SendText(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Upload an audio message
// @Description Stores the audio in object storage and records it in the conversation
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param conversation_id formData int true "Conversation ID"
// @Param audio formData file true "Audio file"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /chat/audio [post]
func (h *ChatHandler) SendAudio(c *gin.Context) {
	convID, err := strconv.ParseUint(c.PostForm("conversation_id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid conversation_id")
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "audio file is required")
		return
	}
	if file.Size > maxAudioUpload {
		response.Error(c, http.StatusBadRequest, "audio file too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer src.Close()

	resp, err := h.chat.SendAudio(c.Request.Context(), middleware.UserID(c), uint(convID),
		src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotConversationOwner):
		response.Error(c, http.StatusForbidden, "not your conversation")
	case errors.Is(err, service.ErrConversationClosed):
		response.Error(c, http.StatusBadRequest, "conversation is not active")
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, "conversation not found")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
