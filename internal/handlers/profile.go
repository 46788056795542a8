package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/dto"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/middleware"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/utils"
)

var allowedAvatarExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	userService    *services.UserService
	uploadDir      string
	maxAvatarBytes int64
}

func NewProfileHandler(userService *services.UserService, uploadDir string, maxAvatarBytes int64) *ProfileHandler {
	return &ProfileHandler{
		userService:    userService,
		uploadDir:      uploadDir,
		maxAvatarBytes: maxAvatarBytes,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Unauthorized. Please log in.")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Unauthorized. Please log in.")
		return
	}

	type UpdateProfileRequest struct {
		Username string  `json:"username" binding:"required,notblank"`
		Email    string  `json:"email" binding:"required,email"`
		Avatar   *string `json:"avatar"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Username and email are required.", err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, services.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Unauthorized. Please log in.")
		return
	}

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Current password and new password are required.", err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully.",
	})
}

// UploadAvatar stores an image from the multipart "avatar" field and points
// the profile at it. The file is removed again if the profile update fails.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Unauthorized. Please log in.")
		return
	}

	// leave room for the multipart framing around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAvatarBytes+1<<20)

	file, err := c.FormFile("avatar")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.BadRequest(c, "File too large")
			return
		}
		apierrors.BadRequest(c, "No file was uploaded.")
		return
	}
	if file.Size > h.maxAvatarBytes {
		apierrors.BadRequest(c, "File too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedAvatarExts[ext]; !ok {
		apierrors.BadRequest(c, "Only image files are allowed!")
		return
	}

	suffix, err := utils.GenerateToken(4)
	if err != nil {
		respondUserError(c, err)
		return
	}
	filename := fmt.Sprintf("avatar-%d-%s%s", time.Now().UnixMilli(), suffix, ext)

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondUserError(c, fmt.Errorf("failed to create upload dir: %w", err))
		return
	}
	path := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		respondUserError(c, fmt.Errorf("failed to save avatar: %w", err))
		return
	}

	avatarURL := "/uploads/" + filename
	if err := h.userService.UpdateAvatar(c.Request.Context(), userID, avatarURL); err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			log.Printf("[users] failed to remove avatar %s: %v", path, removeErr)
		}
		log.Printf("[users] avatar update failed: %v", err)
		apierrors.InternalError(c, "Failed to update avatar in the database.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Avatar updated successfully",
		"avatar":  avatarURL,
	})
}
