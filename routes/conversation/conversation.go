package conversation

import (
	"SupportChat/controllers"
	"SupportChat/pkg/events"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, s *store.Store, pub events.Publisher) {
	g.GET("/conversations", controllers.ListConversations(s))
	g.GET("/conversations/:id", controllers.GetConversation(s))
	g.PATCH("/conversations/:id", controllers.AssignConversation(s.DB(), pub))
	g.POST("/conversations/:id/close", controllers.CloseConversation(s.DB(), pub))
}
