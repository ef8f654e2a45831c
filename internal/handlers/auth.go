package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/eduleads/authcore/internal/auth"
	"github.com/eduleads/authcore/internal/authz"
	"github.com/eduleads/authcore/internal/middleware"
	"github.com/eduleads/authcore/internal/services"
	"github.com/eduleads/authcore/pkg/errors"
	"github.com/eduleads/authcore/pkg/metrics"
	"github.com/eduleads/authcore/pkg/response"
)

// AuthHandler manages authentication flows (login/me).
type AuthHandler struct {
	users  *services.UserService
	jwt    *iauth.JWTService
	engine *authz.Engine
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, engine *authz.Engine) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, engine: engine}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Normalise auth errors to 401
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer)
		return
	}

	// Fail closed: a storage error here must not masquerade as a valid
	// login with zero capabilities.
	perms, err := h.engine.PermissionNames(c.Request.Context(), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"tokens":      tokenResponse{AccessToken: token, ExpiresIn: int64(h.jwt.AccessTokenTTL().Seconds())},
		"user":        toUserView(user),
		"permissions": perms,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	roles, err := h.engine.ActiveRoles(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	roleViews := make([]roleView, 0, len(roles))
	for i := range roles {
		roleViews = append(roleViews, toRoleView(&roles[i]))
	}

	perms, err := h.engine.PermissionNames(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        toUserView(user),
		"roles":       roleViews,
		"permissions": perms,
	})
}
