package dto

import (
	"time"

	"github.com/yukikurage/team-board-api/internal/models"
)

// UserDTO represents a team member in list responses
type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummaryDTO represents a single user lookup
type UserSummaryDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// LinkedAccountsDTO lists external accounts connected to a profile. Only
// Google can be linked; the other providers are always null.
type LinkedAccountsDTO struct {
	Google *string `json:"google"`
	Slack  *string `json:"slack"`
	Jira   *string `json:"jira"`
}

// ProfileDTO represents the signed-in user's profile
type ProfileDTO struct {
	ID             uint64            `json:"id"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	Role           string            `json:"role"`
	Avatar         string            `json:"avatar"`
	LinkedAccounts LinkedAccountsDTO `json:"linkedAccounts"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	profile := ProfileDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Avatar:   user.Avatar,
	}
	if user.GoogleID != nil {
		email := user.Email
		profile.LinkedAccounts.Google = &email
	}
	return profile
}
