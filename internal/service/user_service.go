package service

import (
	"context"
	"errors"
	"time"

	"tutor-service/internal/models"
	"tutor-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	repo      repository.UserRepository
	jwtSecret string
	jwtExpire time.Duration
}

func NewUserService(repo repository.UserRepository, secret string, expire time.Duration) *UserService {
	return &UserService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpire: expire,
	}
}

// Register creates a new learner account.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hashedPassword),
		NativeLanguage: req.NativeLanguage,
		TargetLanguage: req.TargetLanguage,
		Level:          "beginner",
	}
	if user.NativeLanguage == "" {
		user.NativeLanguage = "en"
	}
	if user.TargetLanguage == "" {
		user.TargetLanguage = "fr"
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and mints a JWT carrying user_id and is_admin.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"exp":      time.Now().Add(s.jwtExpire).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: tokenString,
		User:  user.ToResponse(),
	}, nil
}

// Get returns the user with preferences preloaded.
func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdatePreferences applies a partial preference update.
func (s *UserService) UpdatePreferences(ctx context.Context, userID uint, req models.UpdatePreferencesRequest) (*models.UserPreference, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref := user.Preference
	if pref == nil {
		pref = &models.UserPreference{UserID: userID, Language: "en", Theme: "light", VoiceEnabled: true}
	}
	if req.Language != nil {
		pref.Language = *req.Language
	}
	if req.Theme != nil {
		pref.Theme = *req.Theme
	}
	if req.VoiceEnabled != nil {
		pref.VoiceEnabled = *req.VoiceEnabled
	}

	if err := s.repo.UpsertPreference(ctx, pref); err != nil {
		return nil, err
	}
	return pref, nil
}
