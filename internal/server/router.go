package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/globalreino/attendance/backend/internal/auth"
	"github.com/globalreino/attendance/backend/internal/branches"
	"github.com/globalreino/attendance/backend/internal/records"
	"github.com/globalreino/attendance/backend/internal/users"
	"go.uber.org/zap"
)

const (
	sessionUserContextKey  = "attendance_session_user"
	sessionScopeContextKey = "attendance_session_scope"
)

var (
	errMissingTokenIssuer    = errors.New("token issuer dependency required")
	errMissingUserService    = errors.New("user service dependency required")
	errMissingRecordService  = errors.New("record service dependency required")
	errMissingDirectory      = errors.New("branch directory dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
	errMissingSessionContext = errors.New("session context missing")
)

// Dependencies wires the services the HTTP layer mediates between.
type Dependencies struct {
	TokenIssuer   *auth.TokenIssuer
	UserService   *users.Service
	RecordService *records.Service
	Directory     *branches.Directory
	Logger        *zap.Logger
}

// NewHTTPHandler builds the gin router serving the attendance API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenIssuer == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.UserService == nil {
		return nil, errMissingUserService
	}
	if deps.RecordService == nil {
		return nil, errMissingRecordService
	}
	if deps.Directory == nil {
		return nil, errMissingDirectory
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:    deps.TokenIssuer,
		users:     deps.UserService,
		records:   deps.RecordService,
		directory: deps.Directory,
		logger:    logger,
	}

	router.GET("/branches", handler.handleListBranches)
	router.GET("/auth/bootstrap", handler.handleBootstrapStatus)
	router.POST("/auth/bootstrap", handler.handleBootstrap)
	router.POST("/auth/login", handler.handleLogin)
	router.POST("/auth/verify", handler.handleVerify)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/auth/branch", handler.handleBranchSwitch)
	protected.POST("/auth/logout", handler.handleLogout)
	protected.PUT("/me/profile-image", handler.handleProfileImage)

	protected.GET("/records", handler.handleListRecords)
	protected.GET("/reports/summary", handler.handleSummary)
	protected.GET("/reports/trend", handler.handleTrend)
	protected.GET("/reports/history", handler.handleHistory)
	protected.GET("/reports/history.xlsx", handler.handleHistoryExport)

	recorder := protected.Group("/")
	recorder.Use(handler.requireRecorder)
	recorder.POST("/records", handler.handleSaveRecord)

	admin := protected.Group("/")
	admin.Use(handler.requireRecorder)
	admin.GET("/users", handler.handleListUsers)
	admin.POST("/users", handler.handleCreateUser)
	admin.DELETE("/users/:id", handler.handleRemoveUser)
	admin.POST("/users/:id/password", handler.handleResetPassword)

	return router, nil
}

type httpHandler struct {
	tokens    *auth.TokenIssuer
	users     *users.Service
	records   *records.Service
	directory *branches.Directory
	logger    *zap.Logger
}

// authorizeRequest resolves the bearer session token into the requesting
// user and active scope. The scope is re-read from storage-backed state on
// every request, so visibility is recomputed after every save or switch.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}

	session, err := h.tokens.ValidateToken(token, auth.PurposeSession)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.Get(session.UserID)
	if err != nil {
		// The account may have been removed while its token was still live.
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set(sessionUserContextKey, user)
	c.Set(sessionScopeContextKey, session.ActiveScope)
	c.Next()
}

// requireRecorder gates record capture and user administration the same way
// the product hides those tabs: viewers without master standing are refused.
func (h *httpHandler) requireRecorder(c *gin.Context) {
	user, _, err := h.sessionFrom(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if user.Role != users.RoleAdmin && !user.IsMaster {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func (h *httpHandler) sessionFrom(c *gin.Context) (users.User, branches.Scope, error) {
	rawUser, ok := c.Get(sessionUserContextKey)
	if !ok {
		return users.User{}, branches.Scope{}, errMissingSessionContext
	}
	user, ok := rawUser.(users.User)
	if !ok {
		return users.User{}, branches.Scope{}, errMissingSessionContext
	}
	rawScope, ok := c.Get(sessionScopeContextKey)
	if !ok {
		return users.User{}, branches.Scope{}, errMissingSessionContext
	}
	scope, ok := rawScope.(branches.Scope)
	if !ok {
		return users.User{}, branches.Scope{}, errMissingSessionContext
	}
	return user, scope, nil
}

func (h *httpHandler) handleListBranches(c *gin.Context) {
	all, err := h.directory.List()
	if err != nil {
		h.logger.Error("failed to list branches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "branch_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": all})
}
