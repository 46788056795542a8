package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrIncorrectPassword = errors.New("incorrect current password")
	ErrPasswordNotSet    = errors.New("account has no password to change")
)

// UserService manages team members and the signed-in user's profile.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UserInput holds the fields an administrator sets on a team member.
type UserInput struct {
	Username string
	Email    string
	Role     string
}

// ProfileInput holds the fields a user may change on their own profile.
type ProfileInput struct {
	Username string
	Email    string
	// Avatar is left unchanged when nil
	Avatar *string
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateUser adds a team member without a password. The member signs in
// after resetting their password or through Google.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*models.User, error) {
	input = normalizeUserInput(input)
	if err := ensureIdentityAvailable(ctx, s.userRepo, input.Username, input.Email, 0); err != nil {
		return nil, err
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Role:     input.Role,
		Avatar:   utils.DefaultAvatarURL(input.Username),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, input UserInput) (*models.User, error) {
	input = normalizeUserInput(input)
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if err := ensureIdentityAvailable(ctx, s.userRepo, input.Username, input.Email, id); err != nil {
		return nil, err
	}

	err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{
		"username": input.Username,
		"email":    input.Email,
		"role":     input.Role,
	})
	if err != nil {
		return nil, s.mapUpdateError(err)
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes a user and unassigns them from every task.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if err := ensureIdentityAvailable(ctx, s.userRepo, username, email, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"username": username,
		"email":    email,
	}
	if input.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if err := s.userRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, s.mapUpdateError(err)
	}
	return s.GetUser(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uint64, currentPassword, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{"password_hash": hashed}); err != nil {
		return s.mapUpdateError(err)
	}
	return nil
}

// UpdateAvatar points the user's avatar at an uploaded file.
func (s *UserService) UpdateAvatar(ctx context.Context, id uint64, avatarURL string) error {
	if err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{"avatar": avatarURL}); err != nil {
		return s.mapUpdateError(err)
	}
	return nil
}

func (s *UserService) mapUpdateError(err error) error {
	switch {
	case isNotFound(err):
		return ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUsernameTaken
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Role = strings.TrimSpace(input.Role)
	if input.Role == "" {
		input.Role = constants.DefaultUserRole
	}
	return input
}
