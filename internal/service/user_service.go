package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPersonNameLength = 150

// UserFields carries a user write. Nil fields are left unchanged.
type UserFields struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context, actor *models.User, search string, req PageRequest) (*Page[models.User], error) {
	if err := policy.Check(policy.AdminOnly, http.MethodGet, actor); err != nil {
		return nil, err
	}
	req = req.Normalize()

	users, total, err := s.userRepo.List(ctx, search, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return newPage(users, total, req), nil
}

func (s *UserService) Create(ctx context.Context, actor *models.User, fields UserFields) (*models.User, error) {
	if err := policy.Check(policy.AdminOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}

	ve := &validators.ValidationError{}
	if fields.Username == nil {
		ve.Add("username", "This field is required.")
	}
	if fields.Email == nil {
		ve.Add("email", "This field is required.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	user := &models.User{Role: models.RoleUser}
	if err := s.apply(ctx, user, fields, true); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("username or email already taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("admin", actor.Username),
	)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	if err := policy.Check(policy.AdminOnly, http.MethodGet, actor); err != nil {
		return nil, err
	}
	return s.find(ctx, username)
}

func (s *UserService) Update(ctx context.Context, actor *models.User, username string, fields UserFields) (*models.User, error) {
	if err := policy.Check(policy.AdminOnly, http.MethodPatch, actor); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user, fields, true)
}

func (s *UserService) Delete(ctx context.Context, actor *models.User, username string) error {
	if err := policy.Check(policy.AdminOnly, http.MethodDelete, actor); err != nil {
		return err
	}

	user, err := s.find(ctx, username)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user", username)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	logger.Log.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("admin", actor.Username),
	)
	return nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	if err := s.authorizeSelf(http.MethodGet, actor); err != nil {
		return nil, err
	}
	return s.findByID(ctx, actor)
}

// UpdateMe edits the caller's own profile. The role cannot be changed here.
func (s *UserService) UpdateMe(ctx context.Context, actor *models.User, fields UserFields) (*models.User, error) {
	if err := s.authorizeSelf(http.MethodPatch, actor); err != nil {
		return nil, err
	}

	user, err := s.findByID(ctx, actor)
	if err != nil {
		return nil, err
	}
	fields.Role = nil
	return s.save(ctx, user, fields, false)
}

func (s *UserService) authorizeSelf(method string, actor *models.User) error {
	var obj policy.Resource
	if actor != nil {
		obj.UserID = actor.ID
	}
	return policy.Authorize(policy.OwnerOnly, method, actor, obj)
}

func (s *UserService) find(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user", username)
	}
	return user, nil
}

func (s *UserService) findByID(ctx context.Context, actor *models.User) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user", actor.Username)
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *models.User, fields UserFields, allowRole bool) (*models.User, error) {
	if err := s.apply(ctx, user, fields, allowRole); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("username or email already taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	logger.Log.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// apply validates fields and copies them onto user. Username and email
// must not belong to another account.
func (s *UserService) apply(ctx context.Context, user *models.User, fields UserFields, allowRole bool) error {
	ve := &validators.ValidationError{}
	collect := func(err error) {
		if v, ok := err.(*validators.ValidationError); ok {
			ve.Merge(v)
		}
	}

	if fields.Username != nil {
		collect(validators.Username(*fields.Username))
	}
	if fields.Email != nil {
		collect(validators.Email(*fields.Email))
	}
	for field, value := range map[string]*string{"first_name": fields.FirstName, "last_name": fields.LastName} {
		if value != nil && utf8.RuneCountInString(*value) > maxPersonNameLength {
			ve.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxPersonNameLength))
		}
	}
	if allowRole && fields.Role != nil && !fields.Role.Valid() {
		ve.Add("role", fmt.Sprintf("%q is not a valid choice.", *fields.Role))
	}
	if !ve.Empty() {
		return ve
	}

	if fields.Username != nil && *fields.Username != user.Username {
		if err := s.ensureFree(ctx, user, "username", *fields.Username, s.userRepo.GetByUsername); err != nil {
			return err
		}
		user.Username = *fields.Username
	}
	if fields.Email != nil && *fields.Email != user.Email {
		if err := s.ensureFree(ctx, user, "email", *fields.Email, s.userRepo.GetByEmail); err != nil {
			return err
		}
		user.Email = *fields.Email
	}
	if fields.FirstName != nil {
		user.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		user.LastName = *fields.LastName
	}
	if fields.Bio != nil {
		user.Bio = *fields.Bio
	}
	if allowRole && fields.Role != nil {
		user.Role = *fields.Role
	}
	return nil
}

func (s *UserService) ensureFree(
	ctx context.Context,
	user *models.User,
	field, value string,
	lookup func(context.Context, string) (*models.User, error),
) error {
	existing, err := lookup(ctx, value)
	if err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if existing != nil && existing.ID != user.ID {
		return fmt.Errorf("%s %q already taken: %w", field, value, ErrConflict)
	}
	return nil
}
