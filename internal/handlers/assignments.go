package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduleads/authcore/internal/middleware"
	"github.com/eduleads/authcore/internal/services"
	"github.com/eduleads/authcore/pkg/metrics"
	"github.com/eduleads/authcore/pkg/response"
)

// AssignmentHandler exposes grant/revoke operations and active-role queries.
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

type grantRequest struct {
	UserID    string     `json:"user_id" validate:"required,uuid4"`
	RoleID    string     `json:"role_id" validate:"required,uuid4"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type revokeRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	RoleID string `json:"role_id" validate:"required,uuid4"`
}

// POST /api/assignments
func (h *AssignmentHandler) Grant(c *gin.Context) {
	var req grantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	grantedBy, _ := middleware.UserID(c)

	assignment, err := h.assignments.Grant(c.Request.Context(), services.GrantInput{
		UserID:    req.UserID,
		RoleID:    req.RoleID,
		GrantedBy: grantedBy,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.RoleGrants.WithLabelValues("grant").Inc()
	response.Success(c, http.StatusCreated, toAssignmentView(assignment))
}

// DELETE /api/assignments
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	var req revokeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.assignments.Revoke(c.Request.Context(), req.UserID, req.RoleID); err != nil {
		response.Error(c, err)
		return
	}

	metrics.RoleGrants.WithLabelValues("revoke").Inc()
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/users/:id/roles
func (h *AssignmentHandler) ListUserRoles(c *gin.Context) {
	assignments, err := h.assignments.ListActive(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]assignmentView, 0, len(assignments))
	for i := range assignments {
		views = append(views, toAssignmentView(&assignments[i]))
	}
	response.Success(c, http.StatusOK, views)
}
