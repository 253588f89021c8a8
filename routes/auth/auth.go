package auth

import (
	"SupportChat/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterPublic registers public auth routes: company sign-up and login
func RegisterPublic(g *gin.RouterGroup, db *gorm.DB, secret string) {
	g.POST("/companies/register", controllers.RegisterCompany(db))
	g.POST("/auth/login", controllers.Login(db, secret))
}
