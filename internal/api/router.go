package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/eduleads/authcore/internal/auth"
	"github.com/eduleads/authcore/internal/authz"
	"github.com/eduleads/authcore/internal/handlers"
	"github.com/eduleads/authcore/internal/middleware"
	"github.com/eduleads/authcore/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
// Route guards declare their requirements as permission names, matching
// the seed registry, so registry edits never invalidate route wiring.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	engine, err := authz.NewEngine(db)
	if err != nil {
		return nil, err
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	permSvc, err := services.NewPermissionService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	roleSvc, err := services.NewRoleService(db, auditSvc)
	if err != nil {
		return nil, err
	}
	assignmentSvc, err := services.NewAssignmentService(db, auditSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	// Public endpoints
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(userSvc, jwt, engine)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	// Users
	userHandler := handlers.NewUserHandler(userSvc)
	users := api.Group("/users")
	{
		users.GET("", middleware.RequirePermission(engine, "read_users"), userHandler.List)
		users.GET("/:id", middleware.RequirePermission(engine, "read_users"), userHandler.Get)
		users.POST("", middleware.RequirePermission(engine, "write_users"), userHandler.Create)
		users.PUT("/:id", middleware.RequirePermission(engine, "write_users"), userHandler.Update)
		users.PUT("/:id/active", middleware.RequirePermission(engine, "write_users"), userHandler.SetActive)
		users.PUT("/:id/password", middleware.RequirePermission(engine, "write_users"), userHandler.ChangePassword)
		users.DELETE("/:id", middleware.RequirePermission(engine, "delete_users"), userHandler.Delete)
	}

	// Permissions
	permHandler := handlers.NewPermissionHandler(permSvc)
	perms := api.Group("/permissions")
	perms.Use(middleware.RequirePermission(engine, "manage_roles"))
	{
		perms.GET("", permHandler.List)
		perms.GET("/:id", permHandler.Get)
		perms.POST("", permHandler.Create)
		perms.PUT("/:id", permHandler.Update)
		perms.DELETE("/:id", permHandler.Delete)
	}

	// Roles
	roleHandler := handlers.NewRoleHandler(roleSvc)
	roles := api.Group("/roles")
	roles.Use(middleware.RequirePermission(engine, "manage_roles"))
	{
		roles.GET("", roleHandler.List)
		roles.GET("/:id", roleHandler.Get)
		roles.POST("", roleHandler.Create)
		roles.PUT("/:id", roleHandler.Update)
		roles.DELETE("/:id", roleHandler.Delete)
		roles.POST("/:id/permissions", roleHandler.AssignPermissions)
		roles.DELETE("/:id/permissions", roleHandler.RemovePermissions)
	}

	// Assignments
	assignmentHandler := handlers.NewAssignmentHandler(assignmentSvc)
	assignments := api.Group("/assignments")
	assignments.Use(middleware.RequirePermission(engine, "manage_roles"))
	{
		assignments.POST("", assignmentHandler.Grant)
		assignments.DELETE("", assignmentHandler.Revoke)
	}
	api.GET("/users/:id/roles", middleware.RequirePermission(engine, "read_users"), assignmentHandler.ListUserRoles)

	// Audit trail
	auditHandler := handlers.NewAuditHandler(auditSvc)
	api.GET("/audit", middleware.RequirePermission(engine, "read_admin"), auditHandler.List)

	return r, nil
}
