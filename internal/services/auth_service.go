package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/mail"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrGoogleAccountOnly    = errors.New("account uses google sign-in")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrInvalidResetToken    = errors.New("password reset token is invalid or has expired")
	ErrMailerNotConfigured  = errors.New("email service not ready")
	ErrOAuthNotConfigured   = errors.New("google sign-in is not configured")
	ErrGoogleAuthFailed     = errors.New("google authentication failed")
	ErrGoogleRegistration   = errors.New("google registration failed")
)

// TokenRevoker remembers tokens that were logged out before they expired.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo    repository.UserRepository
	jwt         JWTService
	oauth       OAuthProvider
	mailer      mail.Mailer
	revoker     TokenRevoker
	frontendURL string
	resetTTL    time.Duration
}

// AuthServiceConfig carries the optional collaborators of AuthService. Nil
// collaborators disable the matching feature.
type AuthServiceConfig struct {
	OAuth       OAuthProvider
	Mailer      mail.Mailer
	Revoker     TokenRevoker
	FrontendURL string
	ResetTTL    time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtService JWTService, cfg AuthServiceConfig) *AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		jwt:         jwtService,
		oauth:       cfg.OAuth,
		mailer:      cfg.Mailer,
		revoker:     cfg.Revoker,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		resetTTL:    cfg.ResetTTL,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a local account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := ensureIdentityAvailable(ctx, s.userRepo, username, email, 0); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: &hashed,
		Role:         constants.DefaultUserRole,
		Avatar:       utils.DefaultAvatarURL(username),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if isNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasPassword() {
		return "", nil, ErrGoogleAccountOnly
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

// Logout revokes the token for the rest of its lifetime. Without a revoker
// the call only succeeds; the client is expected to drop the token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingLifetime()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GoogleAuthURL returns the consent page URL for the given state.
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthNotConfigured
	}
	return s.oauth.AuthCodeURL(state), nil
}

// GoogleLoginResult is the outcome of a completed Google sign-in.
type GoogleLoginResult struct {
	User    *models.User
	Token   string
	Created bool
}

// CompleteGoogleLogin exchanges the code and signs in the matching account,
// linking it by email or creating it when no account matches. Newly created
// accounts get no token and sign in again.
func (s *AuthService) CompleteGoogleLogin(ctx context.Context, code string) (*GoogleLoginResult, error) {
	if s.oauth == nil {
		return nil, ErrOAuthNotConfigured
	}

	profile, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleAuthFailed, err)
	}

	user, err := s.userRepo.FindByGoogleID(ctx, profile.ID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		user, err = s.userRepo.FindByEmail(ctx, profile.Email)
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user != nil && user.GoogleID == nil {
			if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"google_id": profile.ID}); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
			user.GoogleID = &profile.ID
		}
	}

	if user != nil {
		token, err := s.jwt.GenerateToken(user.ID, user.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to issue token: %w", err)
		}
		return &GoogleLoginResult{User: user, Token: token}, nil
	}

	user, err = s.registerGoogleUser(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleRegistration, err)
	}
	return &GoogleLoginResult{User: user, Created: true}, nil
}

func (s *AuthService) registerGoogleUser(ctx context.Context, profile *GoogleProfile) (*models.User, error) {
	base := strings.TrimSpace(profile.Name)
	if base == "" {
		base = strings.Split(profile.Email, "@")[0]
	}

	username := base
	for i := 2; ; i++ {
		taken, err := s.userRepo.ExistsByUsername(ctx, username, 0)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		username = fmt.Sprintf("%s%d", base, i)
	}

	avatar := profile.Picture
	if avatar == "" {
		avatar = utils.DefaultAvatarURL(username)
	}

	googleID := profile.ID
	user := &models.User{
		Username: username,
		Email:    profile.Email,
		GoogleID: &googleID,
		Role:     constants.DefaultUserRole,
		Avatar:   avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ForgotPassword issues a reset token and mails the reset link. Unknown
// addresses and delivery failures are not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if s.mailer == nil {
		return ErrMailerNotConfigured
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateToken(constants.ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expires := time.Now().Add(s.resetTTL)

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	if err := s.mailer.Send(ctx, mail.PasswordResetMessage(user.Email, link)); err != nil {
		log.Printf("[auth] password reset mail to user %d failed: %v", user.ID, err)
	}
	return nil
}

// ResetPassword sets a new password using a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find reset token: %w", err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash":          hashed,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

// ensureIdentityAvailable checks that no other user holds username or email.
func ensureIdentityAvailable(ctx context.Context, repo repository.UserRepository, username, email string, excludeID uint64) error {
	taken, err := repo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}

	taken, err = repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}
