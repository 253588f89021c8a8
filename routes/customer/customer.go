package customer

import (
	"SupportChat/controllers"
	"SupportChat/middleware"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, s *store.Store) {
	g.GET("/customers", controllers.ListCustomers(s.DB()))
	// blocking and history deletion are admin only
	g.PATCH("/customers/:id/block", middleware.RequireAdmin(), controllers.SetCustomerBlocked(s.DB()))
	g.DELETE("/customers/:id/conversations", middleware.RequireAdmin(), controllers.DeleteCustomerHistory(s))
}
