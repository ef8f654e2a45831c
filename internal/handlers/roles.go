package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduleads/authcore/internal/services"
	"github.com/eduleads/authcore/pkg/response"
)

// RoleHandler exposes the role registry.
type RoleHandler struct {
	roles *services.RoleService
}

func NewRoleHandler(roles *services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type createRoleRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=64"`
	Description   string   `json:"description" validate:"max=255"`
	PermissionIDs []string `json:"permission_ids" validate:"omitempty,dive,uuid4"`
}

type updateRoleRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
}

type rolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" validate:"required,min=1,dive,uuid4"`
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req createRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.roles.Create(c.Request.Context(), services.CreateRoleInput{
		Name:          req.Name,
		Description:   req.Description,
		PermissionIDs: req.PermissionIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, toRoleView(role))
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]roleView, 0, len(roles))
	for i := range roles {
		views = append(views, toRoleView(&roles[i]))
	}
	response.Success(c, http.StatusOK, views)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.roles.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toRoleView(role))
}

// PUT /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var req updateRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.roles.Update(c.Request.Context(), c.Param("id"), services.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toRoleView(role))
}

// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/roles/:id/permissions
func (h *RoleHandler) AssignPermissions(c *gin.Context) {
	var req rolePermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.roles.AssignPermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toRoleView(role))
}

// DELETE /api/roles/:id/permissions
func (h *RoleHandler) RemovePermissions(c *gin.Context) {
	var req rolePermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.roles.RemovePermissions(c.Request.Context(), c.Param("id"), req.PermissionIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toRoleView(role))
}
