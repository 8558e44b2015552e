package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/souqline/souqline-api/auth"
	"gorm.io/gorm"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", auth.LoginHandler(db))
		authGroup.POST("/guest", auth.CreateGuestUser(db))
	}
}
