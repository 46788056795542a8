package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/dto"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/services"
)

const msgUserFieldsRequired = "Username, email, and role are required."

// UserHandler manages team members.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type userRequest struct {
	Username string `json:"username" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,notblank"`
}

func (r userRequest) toInput() services.UserInput {
	return services.UserInput{
		Username: r.Username,
		Email:    r.Email,
		Role:     r.Role,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserSummaryDTO(*user))
}

// CreateUser adds a team member without a password
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, msgUserFieldsRequired, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, msgUserFieldsRequired, err)
		return
	}

	if _, err := h.userService.UpdateUser(c.Request.Context(), id, req.toInput()); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully!",
	})
}

// DeleteUser removes a member and their task assignments
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully!",
	})
}

// parseUserID reads the :id parameter. Non-numeric IDs cannot name a user,
// so they are reported as not found.
func parseUserID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.NotFound(c, "User not found.")
		return 0, false
	}
	return id, true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found.")
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "Username already exists.")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already exists.")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, "New password is too short.")
	case errors.Is(err, services.ErrIncorrectPassword):
		apierrors.Unauthorized(c, "Incorrect current password.")
	case errors.Is(err, services.ErrPasswordNotSet):
		apierrors.BadRequest(c, "This account signs in with Google and has no password to change.")
	default:
		log.Printf("[users] request failed: %v", err)
		apierrors.InternalError(c, "")
	}
}
