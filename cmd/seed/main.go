package main

import (
	"context"
	"log"
	"log/slog"

	"tutor-service/internal/config"
	"tutor-service/internal/database"
	"tutor-service/internal/models"
	"tutor-service/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	slog.Info("starting database seeding")

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	adminPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := &models.User{
		Username:       "admin",
		Email:          "admin@tutor.local",
		Password:       string(adminPassword),
		IsAdmin:        true,
		NativeLanguage: "en",
		TargetLanguage: "en",
		Level:          "advanced",
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		slog.Warn("admin user might already exist", "error", err)
	} else {
		slog.Info("created admin user", "id", admin.ID)
	}

	learners := []struct {
		username string
		email    string
		target   string
		level    string
	}{
		{"alice", "alice@tutor.local", "fr", "beginner"},
		{"bob", "bob@tutor.local", "es", "intermediate"},
		{"charlie", "charlie@tutor.local", "de", "advanced"},
	}

	for _, l := range learners {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
		user := &models.User{
			Username:       l.username,
			Email:          l.email,
			Password:       string(hashed),
			NativeLanguage: "en",
			TargetLanguage: l.target,
			Level:          l.level,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			slog.Warn("user might already exist", "username", l.username, "error", err)
			continue
		}
		slog.Info("created user", "username", l.username, "id", user.ID)

		if err := seedConversation(ctx, convRepo, msgRepo, user); err != nil {
			slog.Warn("failed to seed conversation", "username", l.username, "error", err)
		}
	}

	slog.Info("database seeding completed")
}

func seedConversation(
	ctx context.Context,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	user *models.User,
) error {
	conv := &models.Conversation{
		UserID:   user.ID,
		Title:    "Getting started",
		Language: user.TargetLanguage,
		IsActive: true,
	}
	if err := convRepo.Create(ctx, conv); err != nil {
		return err
	}

	turns := []models.Message{
		{ConversationID: conv.ID, Role: models.RoleSystem,
			Content: "New session in " + conv.Language + "."},
		{ConversationID: conv.ID, Role: models.RoleUser,
			Content: "Hello! I want to practice."},
		{ConversationID: conv.ID, Role: models.RoleAssistant,
			Content: "Welcome! Let's start with the basics. Introduce yourself."},
	}
	for i := range turns {
		if err := msgRepo.Create(ctx, &turns[i]); err != nil {
			return err
		}
	}

	slog.Info("seeded conversation", "userID", user.ID, "conversationID", conv.ID)
	return nil
}
