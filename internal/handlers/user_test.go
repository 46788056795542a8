package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-board-api/internal/dto"
)

func TestUserHandler_CRUD(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/users", map[string]string{
		"username": "dana",
		"email":    "dana@example.com",
		"role":     "designer",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Message string      `json:"message"`
		User    dto.UserDTO `json:"user"`
	}
	decode(t, w, &created)
	assert.Equal(t, "User created successfully", created.Message)
	assert.Equal(t, "designer", created.User.Role)
	assert.Contains(t, created.User.Avatar, "ui-avatars.com")
	path := fmt.Sprintf("/api/users/%d", created.User.ID)

	w = env.request(t, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []dto.UserDTO
	decode(t, w, &users)
	assert.Len(t, users, 1)

	w = env.request(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "role")

	w = env.request(t, http.MethodPut, path, map[string]string{
		"username": "dana",
		"email":    "dana@team.example.com",
		"role":     "lead",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User updated successfully!")

	w = env.request(t, http.MethodDelete, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.request(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_Validation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/users", map[string]string{"username": "dana"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), msgUserFieldsRequired)

	w = env.request(t, http.MethodPut, "/api/users/1", map[string]string{"username": "dana", "email": "d@example.com", "role": "x"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/users/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := map[string]string{"username": "dana", "email": "dana@example.com", "role": "member"}
	require.Equal(t, http.StatusCreated, env.request(t, http.MethodPost, "/api/users", body, "").Code)
	w = env.request(t, http.MethodPost, "/api/users", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
