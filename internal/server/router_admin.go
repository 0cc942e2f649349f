package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/globalreino/attendance/backend/internal/users"
	"go.uber.org/zap"
)

type createUserRequestPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	BranchID string `json:"branch_id"`
}

type resetPasswordRequestPayload struct {
	Password string `json:"password"`
}

type profileImageRequestPayload struct {
	Image string `json:"image"`
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	caller, scope, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	visible, err := h.users.ListVisible(caller, scope)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_list_failed"})
		return
	}
	payload := make([]userPayload, 0, len(visible))
	for _, u := range visible {
		payload = append(payload, presentUser(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": payload})
}

// handleCreateUser provisions a pending account. The one-time verification
// code appears only in this response; it is never stored in a retrievable
// place for the caller afterward and never delivered to the new user.
func (h *httpHandler) handleCreateUser(c *gin.Context) {
	caller, _, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request createUserRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	role, ok := users.ParseRole(request.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
		return
	}

	created, code, err := h.users.Create(caller, users.CreateInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Role:     role,
		BranchID: request.BranchID,
	})
	if errors.Is(err, users.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if errors.Is(err, users.ErrUnknownBranch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_branch"})
		return
	}
	if errors.Is(err, users.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		return
	}
	if err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_create_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":              presentUser(created),
		"verification_code": code,
	})
}

// handleRemoveUser deletes an account. Self-removal is refused outright, the
// caller must pass confirm=true, mirroring the confirmation dialog, and a
// target outside the caller's visibility reads as missing.
func (h *httpHandler) handleRemoveUser(c *gin.Context) {
	caller, _, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	confirmed := c.Query("confirm") == "true"
	err = h.users.Remove(caller, c.Param("id"), confirmed)
	if errors.Is(err, users.ErrSelfRemoval) {
		c.JSON(http.StatusConflict, gin.H{"error": "self_removal_forbidden"})
		return
	}
	if errors.Is(err, users.ErrNotConfirmed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation_required"})
		return
	}
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to remove user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_remove_failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleResetPassword(c *gin.Context) {
	caller, _, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request resetPasswordRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err = h.users.ResetPassword(caller, c.Param("id"), request.Password)
	if errors.Is(err, users.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to reset password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password_reset_failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleProfileImage stores the caller's own encoded profile picture. The
// client is responsible for file-to-image encoding.
func (h *httpHandler) handleProfileImage(c *gin.Context) {
	caller, _, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request profileImageRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.users.UpdateProfileImage(caller.ID, request.Image); err != nil {
		h.logger.Error("failed to update profile image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_image_failed"})
		return
	}

	c.Status(http.StatusNoContent)
}
