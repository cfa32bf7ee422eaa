package models

import (
	"time"

	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

/** --------------------ENTITIES-------------------- */
// Conversation groups a user's exchange with the tutor.
type Conversation struct {
	gorm.Model
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	Title    string `gorm:"default:New Conversation" json:"title"`
	Language string `gorm:"default:fr" json:"language"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message is one turn in a conversation, by the user or the tutor.
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"not null;index" json:"conversation_id"`
	Role           string `gorm:"not null" json:"role"` // user | assistant | system
	Content        string `gorm:"type:text" json:"content"`

	// AudioURL points at the MinIO object when the turn arrived as audio.
	AudioURL *string `json:"audio_url,omitempty"`

	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateConversationRequest struct {
	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
}

type TextChatRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required"`
	Content        string `json:"content" binding:"required,max=4000"`
}

// Response
type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	AudioURL       *string   `json:"audio_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationResponse struct {
	ID        uint              `json:"id"`
	Title     string            `json:"title"`
	Language  string            `json:"language"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

// ChatReplyResponse is what POST /api/chat/text returns.
type ChatReplyResponse struct {
	UserMessage  MessageResponse `json:"user_message"`
	TutorMessage MessageResponse `json:"tutor_message"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		AudioURL:       m.AudioURL,
		CreatedAt:      m.CreatedAt,
	}
}

func (c *Conversation) ToResponse(withMessages bool) ConversationResponse {
	resp := ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		Language:  c.Language,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if withMessages {
		resp.Messages = make([]MessageResponse, 0, len(c.Messages))
		for i := range c.Messages {
			resp.Messages = append(resp.Messages, c.Messages[i].ToResponse())
		}
	}
	return resp
}
