package employee

import (
	"SupportChat/controllers"
	"SupportChat/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/employees", controllers.ListEmployees(db))
	g.POST("/employees", middleware.RequireAdmin(), controllers.CreateEmployee(db))
	g.DELETE("/employees/:id", middleware.RequireAdmin(), controllers.DeleteEmployee(db))
}
