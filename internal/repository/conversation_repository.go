package repository

import (
	"context"

	"tutor-service/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id uint) (*models.Conversation, error)
	FindByIDWithMessages(ctx context.Context, id uint) (*models.Conversation, error)
	ListByUserID(ctx context.Context, userID uint, skip, limit int) ([]*models.Conversation, error)
	Update(ctx context.Context, conv *models.Conversation) error
	Deactivate(ctx context.Context, id uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepository) FindByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByIDWithMessages(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC")
		}).
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListByUserID(ctx context.Context, userID uint, skip, limit int) ([]*models.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var convs []*models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Offset(skip).Limit(limit).
		Find(&convs).Error
	return convs, err
}

func (r *conversationRepository) Update(ctx context.Context, conv *models.Conversation) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

func (r *conversationRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
