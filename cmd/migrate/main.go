package main

import (
	"log"
	"log/slog"

	"tutor-service/internal/config"
	"tutor-service/internal/database"
)

func main() {
	cfg := config.Load()

	slog.Info("starting database migration")

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database instance: ", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal("failed to ping database: ", err)
	}

	slog.Info("database migration completed")
}
