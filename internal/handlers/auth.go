package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/constants"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/middleware"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/utils"
)

const msgForgotPasswordSent = "If an account with that email exists, a password reset link has been sent."

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler. Google sign-in redirects back to
// frontendURL.
func NewAuthHandler(authService *services.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Register creates a local account.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username string `json:"username" binding:"required,notblank"`
		Email    string `json:"email" binding:"required,notblank"`
		Password string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Username, email, and password are required.", err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully!",
		"userId":  user.ID,
	})
}

// Login authenticates a user and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Username and password are required.", err)
		return
	}

	token, _, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful!",
		"token":   token,
	})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully.",
	})
}

// Protected greets the authenticated user.
func (h *AuthHandler) Protected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome, %s! This is protected data.", middleware.GetUsername(c)),
	})
}

// GoogleLogin returns the Google consent URL and remembers its state in the
// session.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := utils.GenerateToken(constants.OAuthStateBytes)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	authURL, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authUrl": authURL,
	})
}

// GoogleCallback completes Google sign-in and sends the browser back to the
// frontend login page with a token, a message or an error code.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Authorization code missing.")
		return
	}

	session := sessions.Default(c)
	expected, _ := session.Get(constants.SessionKeyOAuthState).(string)
	state := c.Query("state")
	if expected != "" || state != "" {
		session.Delete(constants.SessionKeyOAuthState)
		if err := session.Save(); err != nil {
			log.Printf("[auth] failed to clear oauth state: %v", err)
		}
		if expected != state {
			log.Printf("[auth] google callback with mismatched state")
			h.redirectToLogin(c, "error", "google_auth_failed")
			return
		}
	}

	result, err := h.authService.CompleteGoogleLogin(c.Request.Context(), code)
	if err != nil {
		log.Printf("[auth] google sign-in failed: %v", err)
		switch {
		case errors.Is(err, services.ErrGoogleAuthFailed), errors.Is(err, services.ErrOAuthNotConfigured):
			h.redirectToLogin(c, "error", "google_auth_failed")
		case errors.Is(err, services.ErrGoogleRegistration):
			h.redirectToLogin(c, "error", "registration_failed")
		default:
			h.redirectToLogin(c, "error", "server_error")
		}
		return
	}

	if result.Created {
		log.Printf("[auth] registered google user %d", result.User.ID)
		h.redirectToLogin(c, "message", "google_registration_success")
		return
	}
	h.redirectToLogin(c, "token", result.Token)
}

func (h *AuthHandler) redirectToLogin(c *gin.Context, key, value string) {
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/login?%s=%s", h.frontendURL, key, url.QueryEscape(value)))
}

// ForgotPassword mails a reset link. The response does not reveal whether
// the address belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	type ForgotPasswordRequest struct {
		Email string `json:"email" binding:"required,notblank"`
	}

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Email is required.", err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": msgForgotPasswordSent,
	})
}

// ResetPassword sets a new password using a mailed token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	type ResetPasswordRequest struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Token and new password are required.", err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password has been successfully reset.",
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters.", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "Username already exists.")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already exists.")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrGoogleAccountOnly):
		apierrors.Unauthorized(c, `This account was registered via Google. Please use "Continue with Google" to log in.`)
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found.")
	case errors.Is(err, services.ErrInvalidResetToken):
		apierrors.BadRequest(c, "Password reset token is invalid or has expired.")
	case errors.Is(err, services.ErrMailerNotConfigured):
		apierrors.InternalError(c, "Email service not ready. Please try again later.")
	case errors.Is(err, services.ErrOAuthNotConfigured):
		apierrors.ServiceUnavailable(c, "Google sign-in is not configured.")
	default:
		log.Printf("[auth] request failed: %v", err)
		apierrors.InternalError(c, "")
	}
}
