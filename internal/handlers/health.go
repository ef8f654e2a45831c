package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eduleads/authcore/pkg/errors"
	"github.com/eduleads/authcore/pkg/response"
)

// Health returns a simple status payload useful for readiness checks. The
// database is pinged so a broken store surfaces as unhealthy.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				response.Error(c, errors.ErrUnavailable)
				return
			}
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
