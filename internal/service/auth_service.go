package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Baaaki/yamdb/internal/mail"
	"github.com/Baaaki/yamdb/internal/metrics"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	mailer    mail.Mailer
	keys      *utils.Keys
	tokenTTL  time.Duration
	codeTTL   time.Duration
	fromEmail string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	mailer mail.Mailer,
	keys *utils.Keys,
	tokenTTL, codeTTL time.Duration,
	fromEmail string,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		mailer:    mailer,
		keys:      keys,
		tokenTTL:  tokenTTL,
		codeTTL:   codeTTL,
		fromEmail: fromEmail,
	}
}

// Signup registers the (email, username) pair, or finds it when it is
// already registered, and mails a fresh confirmation code.
func (s *AuthService) Signup(ctx context.Context, email, username string) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	if err := validators.Collect(validators.Email(email), validators.Username(username)); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", username),
			zap.Error(err),
		)
		metrics.RecordAuthEvent("signup", "invalid")
		return nil, err
	}

	user, err := s.resolveSignupUser(ctx, email, username)
	if err != nil {
		metrics.RecordAuthEvent("signup", outcomeOf(err))
		return nil, err
	}

	if err := s.SendConfirmationCode(ctx, user); err != nil {
		metrics.RecordAuthEvent("signup", "error")
		return nil, err
	}

	logger.Log.Info("Signup completed",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)
	metrics.RecordAuthEvent("signup", "success")
	return user, nil
}

// resolveSignupUser applies the pairing rule: username and email must either
// both be new or both belong to the same account.
func (s *AuthService) resolveSignupUser(ctx context.Context, email, username string) (*models.User, error) {
	byUsername, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	byEmail, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	switch {
	case byUsername != nil && byEmail != nil && byUsername.ID == byEmail.ID:
		logger.Log.Debug("Signup for existing pair, resending code",
			zap.String("username", username),
		)
		return byUsername, nil

	case byUsername != nil && byEmail != nil:
		logger.Log.Warn("Signup pair belongs to different accounts",
			zap.String("username", username),
			zap.String("email", email),
		)
		return nil, (&validators.ValidationError{}).
			Add("username", "This username is registered with a different email.").
			Add("email", "This email is registered with a different username.")

	case byUsername != nil:
		logger.Log.Warn("Username already registered", zap.String("username", username))
		return nil, validators.NewError("username", "This username is registered with a different email.")

	case byEmail != nil:
		logger.Log.Warn("Email already registered", zap.String("email", email))
		return nil, validators.NewError("email", "This email is registered with a different username.")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			logger.Log.Warn("Signup lost a uniqueness race",
				zap.String("username", username),
				zap.String("email", email),
			)
			return nil, validators.NewError("non_field_errors", "A user with this username or email was just registered.")
		}
		logger.Log.Error("Failed to create user",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
	)
	return user, nil
}

// SendConfirmationCode issues a code bound to the user's current stamp and
// mails it.
func (s *AuthService) SendConfirmationCode(ctx context.Context, user *models.User) error {
	code, err := utils.GenerateConfirmationCode(user, s.keys.Confirmation, s.codeTTL)
	if err != nil {
		logger.Log.Error("Failed to generate confirmation code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("generate confirmation code: %w", err)
	}

	msg := mail.ConfirmationMessage(s.fromEmail, user.Email, user.Username, code)
	err = s.mailer.Send(ctx, msg)
	metrics.RecordMail(err)
	if err != nil {
		logger.Log.Error("Failed to send confirmation code",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// Token exchanges a confirmation code for an access token. A code works
// once: the exchange rotates the user's confirmation stamp.
func (s *AuthService) Token(ctx context.Context, username, code string) (string, error) {
	if err := validators.Collect(
		requireField("username", username),
		requireField("confirmation_code", code),
	); err != nil {
		metrics.RecordAuthEvent("token", "invalid")
		return "", err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthEvent("token", "error")
		return "", fmt.Errorf("get user by username: %w", err)
	}
	if user == nil {
		logger.Log.Warn("Token requested for unknown user", zap.String("username", username))
		metrics.RecordAuthEvent("token", "not_found")
		return "", notFound("user", username)
	}

	if err := utils.VerifyConfirmationCode(code, user, s.keys.Confirmation); err != nil {
		logger.Log.Warn("Invalid confirmation code",
			zap.String("user_id", user.ID.String()),
		)
		metrics.RecordAuthEvent("token", "invalid_code")
		return "", ErrInvalidConfirmationCode
	}

	rotated, err := s.userRepo.RotateConfirmationStamp(ctx, user.ID, user.ConfirmationStamp, uuid.NewString())
	if err != nil {
		logger.Log.Error("Failed to rotate confirmation stamp",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		metrics.RecordAuthEvent("token", "error")
		return "", fmt.Errorf("rotate confirmation stamp: %w", err)
	}
	if !rotated {
		logger.Log.Warn("Confirmation code already used",
			zap.String("user_id", user.ID.String()),
		)
		metrics.RecordAuthEvent("token", "invalid_code")
		return "", ErrInvalidConfirmationCode
	}

	token, err := utils.GenerateToken(user, s.keys.Access, s.tokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate access token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		metrics.RecordAuthEvent("token", "error")
		return "", fmt.Errorf("generate token: %w", err)
	}

	logger.Log.Info("Access token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	metrics.RecordAuthEvent("token", "success")
	return token, nil
}

// Authenticate resolves a bearer token to the stored user. The user is read
// fresh so role changes and deletions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := utils.ValidateToken(tokenString, s.keys.Access)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	if user == nil {
		return nil, utils.ErrInvalidToken
	}
	return user, nil
}

func requireField(field, value string) error {
	if value == "" {
		return validators.NewError(field, "This field is required.")
	}
	return nil
}

func outcomeOf(err error) string {
	if _, ok := err.(*validators.ValidationError); ok {
		return "invalid"
	}
	return "error"
}
