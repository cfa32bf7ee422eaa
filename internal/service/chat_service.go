package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"tutor-service/internal/models"
	"tutor-service/internal/repository"
	"tutor-service/internal/tutor"
	"tutor-service/internal/ws"
)

var ErrConversationClosed = errors.New("conversation is not active")

// Broadcaster is the slice of the connection router the chat path needs.
type Broadcaster interface {
	SendToUser(userID uint, payload []byte) int
}

// Analytics receives per-exchange metadata. Nil-able; Kafka in production.
type Analytics interface {
	ChatExchanged(userID, conversationID uint, chars int)
}

// AudioStore persists audio uploads and returns their URLs.
type AudioStore interface {
	UploadAudio(ctx context.Context, userID uint, r io.Reader, size int64, contentType string) (string, error)
}

// ChatService runs the text/audio exchange: persist the user's turn, obtain
// the tutor's turn, persist it, and fan a history_update out to every
// connection the user has open.
type ChatService struct {
	msgs      repository.MessageRepository
	convs     repository.ConversationRepository
	users     repository.UserRepository
	responder tutor.Responder
	router    Broadcaster
	audio     AudioStore
	analytics Analytics
}

func NewChatService(
	msgs repository.MessageRepository,
	convs repository.ConversationRepository,
	users repository.UserRepository,
	responder tutor.Responder,
	router Broadcaster,
	audio AudioStore,
	analytics Analytics,
) *ChatService {
	return &ChatService{
		msgs:      msgs,
		convs:     convs,
		users:     users,
		responder: responder,
		router:    router,
		audio:     audio,
		analytics: analytics,
	}
}

// SendText runs one text exchange with the tutor.
func (s *ChatService) SendText(ctx context.Context, userID uint, req models.TextChatRequest) (*models.ChatReplyResponse, error) {
	conv, err := s.convs.FindByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	if !conv.IsActive {
		return nil, ErrConversationClosed
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        req.Content,
	}
	if err := s.msgs.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	history, err := s.msgs.ListByConversationID(ctx, conv.ID, 50)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, tutor.Prompt{
		User:         user,
		Conversation: conv,
		History:      history,
		Content:      req.Content,
	})
	if err != nil {
		return nil, err
	}

	tutorMsg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        reply,
	}
	if err := s.msgs.Create(ctx, tutorMsg); err != nil {
		return nil, err
	}

	s.pushHistoryUpdate(userID, conv.ID)
	if s.analytics != nil {
		s.analytics.ChatExchanged(userID, conv.ID, len(req.Content)+len(reply))
	}

	return &models.ChatReplyResponse{
		UserMessage:  userMsg.ToResponse(),
		TutorMessage: tutorMsg.ToResponse(),
	}, nil
}

// SendAudio stores the upload and records it as a user turn. Transcription
// and the spoken reply are produced by external providers downstream.
func (s *ChatService) SendAudio(ctx context.Context, userID, conversationID uint, r io.Reader, size int64, contentType string) (*models.MessageResponse, error) {
	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	if !conv.IsActive {
		return nil, ErrConversationClosed
	}

	url, err := s.audio.UploadAudio(ctx, userID, r, size, contentType)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        "[audio message]",
		AudioURL:       &url,
	}
	if err := s.msgs.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.pushHistoryUpdate(userID, conv.ID)

	resp := msg.ToResponse()
	return &resp, nil
}

// pushHistoryUpdate tells every open connection of the user to refetch the
// conversation. Zero deliveries just means the user has no sockets open.
func (s *ChatService) pushHistoryUpdate(userID, conversationID uint) {
	payload, err := json.Marshal(ws.Frame{
		Type:           "history_update",
		UserID:         userID,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("history_update marshal failed", "error", err)
		return
	}
	delivered := s.router.SendToUser(userID, payload)
	slog.Debug("history_update pushed",
		"userID", userID, "conversationID", conversationID, "delivered", delivered)
}
