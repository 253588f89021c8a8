package widget

import (
	"SupportChat/controllers"
	"SupportChat/middleware"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
)

// Register registers the public chat widget routes (no auth).
func Register(g *gin.RouterGroup, s *store.Store, limiter *middleware.RateLimiter) {
	g.GET("/chat/:slug", controllers.WidgetCompany(s))
	g.POST("/chat/:slug", limiter.Middleware(), controllers.WidgetStartConversation(s.DB()))
	g.GET("/chat/:slug/:conversationId", controllers.WidgetConversation(s))
}
