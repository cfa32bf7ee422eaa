package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// User represents a learner or an administrator.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // bcrypt hash, never serialized
	IsAdmin  bool   `gorm:"default:false" json:"is_admin"`

	// NativeLanguage/TargetLanguage drive the tutor's reply language.
	NativeLanguage string `gorm:"default:en" json:"native_language"`
	TargetLanguage string `gorm:"default:fr" json:"target_language"`
	Level          string `gorm:"default:beginner" json:"level"` // beginner | intermediate | advanced

	Preference    *UserPreference `gorm:"foreignKey:UserID" json:"preference,omitempty"`
	Conversations []Conversation  `gorm:"foreignKey:UserID" json:"-"`
}

// UserPreference holds client-facing settings, one row per user.
type UserPreference struct {
	gorm.Model
	UserID       uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Language     string `gorm:"default:en" json:"language"` // UI language
	Theme        string `gorm:"default:light" json:"theme"`
	VoiceEnabled bool   `gorm:"default:true" json:"voice_enabled"`
}

/** -------------------- DTOs -------------------- */
// Request
type RegisterRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=50"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	NativeLanguage string `json:"native_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// LoginRequest represents the request for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdatePreferencesRequest struct {
	Language     *string `json:"language,omitempty"`
	Theme        *string `json:"theme,omitempty" binding:"omitempty,oneof=light dark"`
	VoiceEnabled *bool   `json:"voice_enabled,omitempty"`
}

// Response
type UserResponse struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	IsAdmin        bool      `json:"is_admin"`
	NativeLanguage string    `json:"native_language"`
	TargetLanguage string    `json:"target_language"`
	Level          string    `json:"level"`
	CreatedAt      time.Time `json:"created_at"`
}

// LoginResponse represents the response for a successful login
// swagger:model
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ToResponse projects the entity onto its public shape.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		IsAdmin:        u.IsAdmin,
		NativeLanguage: u.NativeLanguage,
		TargetLanguage: u.TargetLanguage,
		Level:          u.Level,
		CreatedAt:      u.CreatedAt,
	}
}
