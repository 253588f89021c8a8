package message

import (
	"SupportChat/controllers"
	"SupportChat/middleware"
	"SupportChat/pkg/relay"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, rl *relay.Relay, limiter *middleware.RateLimiter) {
	g.POST("/messages", limiter.Middleware(), controllers.SendMessage(rl))
}
