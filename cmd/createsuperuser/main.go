package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/database"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/server"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// createsuperuser creates or promotes the superuser named by
// SUPERUSER_USERNAME / SUPERUSER_EMAIL and mails them a confirmation code.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.IsDevelopment(), cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	username := os.Getenv("SUPERUSER_USERNAME")
	email := os.Getenv("SUPERUSER_EMAIL")
	if username == "" || email == "" {
		logger.Log.Fatal("Missing environment variables: SUPERUSER_USERNAME, SUPERUSER_EMAIL")
	}
	if err := validators.Collect(validators.Username(username), validators.Email(email)); err != nil {
		logger.Log.Fatal("Invalid superuser identity", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	keys, err := utils.NewKeys(cfg.JWTSecret)
	if err != nil {
		logger.Log.Fatal("Failed to derive signing keys", zap.Error(err))
	}

	res, err := server.OpenResources(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open backends", zap.Error(err))
	}
	defer res.Close()

	userRepo := repository.NewUserRepository(db)
	user, err := ensureSuperuser(ctx, userRepo, username, email)
	if err != nil {
		logger.Log.Fatal("Failed to create superuser", zap.Error(err))
	}

	auth := service.NewAuthService(userRepo, res.Mailer, keys, cfg.JWTExpiry, cfg.ConfirmationCodeTTL, cfg.MailFrom)
	if err := auth.SendConfirmationCode(ctx, user); err != nil {
		logger.Log.Fatal("Failed to send confirmation code", zap.Error(err))
	}

	logger.Log.Info("Superuser ready",
		zap.String("username", user.Username),
		zap.String("email", user.Email),
		zap.String("mail_backend", cfg.MailBackend),
	)
}

// ensureSuperuser looks the account up by username, then by email, and
// promotes it; otherwise a new superuser is created.
func ensureSuperuser(ctx context.Context, repo *repository.UserRepository, username, email string) (*models.User, error) {
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = repo.GetByEmail(ctx, email); err != nil {
			return nil, err
		}
	}

	if user == nil {
		user = &models.User{Username: username, Email: email, IsSuperuser: true}
		if err := repo.Create(ctx, user); err != nil {
			return nil, err
		}
		logger.Log.Info("Superuser created", zap.String("username", username))
		return user, nil
	}

	user.IsSuperuser = true
	if err := repo.Save(ctx, user); err != nil {
		return nil, err
	}
	logger.Log.Info("Existing user promoted to superuser", zap.String("username", user.Username))
	return user, nil
}
