package analytics

import (
	"SupportChat/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/analytics", controllers.GetAnalytics(db))
}
