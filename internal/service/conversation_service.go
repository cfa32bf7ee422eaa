package service

import (
	"context"
	"errors"

	"tutor-service/internal/models"
	"tutor-service/internal/repository"
)

var ErrNotConversationOwner = errors.New("conversation does not belong to user")

type ConversationService struct {
	convs repository.ConversationRepository
	users repository.UserRepository
}

func NewConversationService(convs repository.ConversationRepository, users repository.UserRepository) *ConversationService {
	return &ConversationService{convs: convs, users: users}
}

// Create opens a new conversation for the user. The language defaults to the
// user's target language when the request leaves it empty.
func (s *ConversationService) Create(ctx context.Context, userID uint, req models.CreateConversationRequest) (*models.Conversation, error) {
	conv := &models.Conversation{
		UserID:   userID,
		Title:    req.Title,
		Language: req.Language,
		IsActive: true,
	}
	if conv.Title == "" {
		conv.Title = "New Conversation"
	}
	if conv.Language == "" {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		conv.Language = user.TargetLanguage
	}

	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns the user's active conversations, newest first.
func (s *ConversationService) List(ctx context.Context, userID uint, skip, limit int) ([]*models.Conversation, error) {
	return s.convs.ListByUserID(ctx, userID, skip, limit)
}

// Get fetches one conversation with its messages, enforcing ownership.
func (s *ConversationService) Get(ctx context.Context, userID, convID uint) (*models.Conversation, error) {
	conv, err := s.convs.FindByIDWithMessages(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	return conv, nil
}

// Deactivate soft-closes a conversation, enforcing ownership.
func (s *ConversationService) Deactivate(ctx context.Context, userID, convID uint) error {
	conv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		return err
	}
	if conv.UserID != userID {
		return ErrNotConversationOwner
	}
	return s.convs.Deactivate(ctx, convID)
}
