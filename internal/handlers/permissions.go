package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduleads/authcore/internal/services"
	"github.com/eduleads/authcore/pkg/response"
)

// PermissionHandler exposes the permission registry.
type PermissionHandler struct {
	permissions *services.PermissionService
}

func NewPermissionHandler(permissions *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissions: permissions}
}

type createPermissionRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
}

type updatePermissionRequest struct {
	Description string `json:"description" validate:"max=255"`
}

// POST /api/permissions
func (h *PermissionHandler) Create(c *gin.Context) {
	var req createPermissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	perm, err := h.permissions.Create(c.Request.Context(), services.CreatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, toPermissionView(perm))
}

// GET /api/permissions
func (h *PermissionHandler) List(c *gin.Context) {
	perms, err := h.permissions.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]permissionView, 0, len(perms))
	for i := range perms {
		views = append(views, toPermissionView(&perms[i]))
	}
	response.Success(c, http.StatusOK, views)
}

// GET /api/permissions/:id
func (h *PermissionHandler) Get(c *gin.Context) {
	perm, err := h.permissions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPermissionView(perm))
}

// PUT /api/permissions/:id
func (h *PermissionHandler) Update(c *gin.Context) {
	var req updatePermissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	perm, err := h.permissions.UpdateDescription(c.Request.Context(), c.Param("id"), req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPermissionView(perm))
}

// DELETE /api/permissions/:id
func (h *PermissionHandler) Delete(c *gin.Context) {
	if err := h.permissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
