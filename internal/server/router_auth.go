package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/globalreino/attendance/backend/internal/auth"
	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/users"
	"go.uber.org/zap"
)

type bootstrapRequestPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	BranchID string `json:"branch_id"`
}

type verifyRequestPayload struct {
	Code string `json:"code"`
}

type branchSwitchPayload struct {
	BranchID string `json:"branch_id"`
}

type sessionResponsePayload struct {
	AccessToken  string      `json:"access_token"`
	ExpiresIn    int64       `json:"expires_in"`
	TokenType    string      `json:"token_type"`
	ActiveBranch string      `json:"active_branch"`
	User         userPayload `json:"user"`
}

type pendingResponsePayload struct {
	Pending     bool   `json:"pending"`
	VerifyToken string `json:"verify_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type userPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	BranchID     string `json:"branch_id"`
	Status       string `json:"status"`
	IsMaster     bool   `json:"is_master"`
	ProfileImage string `json:"profile_image,omitempty"`
}

func presentUser(u users.User) userPayload {
	return userPayload{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		BranchID:     u.BranchID,
		Status:       string(u.Status),
		IsMaster:     u.IsMaster,
		ProfileImage: u.ProfileImage,
	}
}

// handleBootstrapStatus lets a client decide whether to show the one-time
// master setup screen instead of the login form.
func (h *httpHandler) handleBootstrapStatus(c *gin.Context) {
	required, err := h.users.BootstrapRequired()
	if err != nil {
		h.logger.Error("bootstrap status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bootstrap_status_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"required": required})
}

// handleBootstrap runs the one-time master setup. The created master is
// immediately logged in with the global all-branches view.
func (h *httpHandler) handleBootstrap(c *gin.Context) {
	var request bootstrapRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	master, err := h.users.BootstrapMaster(request.Name, request.Email, request.Password)
	if errors.Is(err, users.ErrAlreadyBootstrapped) {
		c.JSON(http.StatusConflict, gin.H{"error": "already_bootstrapped"})
		return
	}
	if errors.Is(err, users.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err != nil {
		h.logger.Error("bootstrap failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bootstrap_failed"})
		return
	}

	h.respondWithSession(c, http.StatusCreated, master, branches.GlobalScope())
}

// handleLogin authenticates credentials and the selected branch. A pending
// account is routed to verification with a purpose-bound token instead of a
// session; the error ordering (credentials before authorization) is enforced
// by the user service.
func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	outcome, err := h.users.Authenticate(request.Email, request.Password, branches.ParseSelector(request.BranchID))
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid credentials. Check email, password, and unit.",
		})
		return
	}
	if errors.Is(err, users.ErrBranchForbidden) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "branch_forbidden",
			"message": "You do not have access to this unit.",
		})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	if outcome.Pending {
		token, expiresIn, err := h.tokens.IssueVerifyToken(outcome.User.ID)
		if err != nil {
			h.logger.Error("failed to issue verify token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
			return
		}
		c.JSON(http.StatusOK, pendingResponsePayload{Pending: true, VerifyToken: token, ExpiresIn: expiresIn})
		return
	}

	h.respondWithSession(c, http.StatusOK, outcome.User, outcome.ActiveScope)
}

// handleVerify redeems a one-time code carried by a verify-purpose token.
// Activation logs the user straight into their own branch; a provisioned
// account is never master, so the global view is unreachable here.
func (h *httpHandler) handleVerify(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if !strings.HasPrefix(header, "Bearer ") || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	session, err := h.tokens.ValidateToken(token, auth.PurposeVerify)
	if err != nil {
		h.logger.Warn("verify token validation failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request verifyRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	activated, err := h.users.Verify(session.UserID, request.Code)
	if errors.Is(err, users.ErrCodeMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "code_mismatch",
			"message": "Incorrect code.",
		})
		return
	}
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err != nil {
		h.logger.Error("verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification_failed"})
		return
	}

	h.respondWithSession(c, http.StatusOK, activated, branches.BranchScope(activated.BranchID))
}

// handleBranchSwitch changes the active branch of a master session by
// issuing a fresh token. Non-master attempts are silently ignored: the
// current scope comes back unchanged, with no error surfaced.
func (h *httpHandler) handleBranchSwitch(c *gin.Context) {
	user, scope, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request branchSwitchPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !user.IsMaster {
		h.respondWithSession(c, http.StatusOK, user, scope)
		return
	}

	target := branches.ParseSelector(request.BranchID)
	if !target.IsGlobal() {
		exists, err := h.directory.Exists(target.BranchID())
		if err != nil {
			h.logger.Error("branch lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "branch_switch_failed"})
			return
		}
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_branch"})
			return
		}
	}
	h.respondWithSession(c, http.StatusOK, user, target)
}

// handleLogout exists for symmetry with the client flow. Sessions live only
// in the bearer token, so there is no server state to clear.
func (h *httpHandler) handleLogout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) respondWithSession(c *gin.Context, status int, user users.User, scope branches.Scope) {
	token, expiresIn, err := h.tokens.IssueSessionToken(user.ID, scope)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(status, sessionResponsePayload{
		AccessToken:  token,
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
		ActiveBranch: scope.Selector(),
		User:         presentUser(user),
	})
}
