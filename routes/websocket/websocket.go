package websocket

import (
	"SupportChat/controllers"
	"SupportChat/middleware"

	"github.com/gin-gonic/gin"
)

type Handler = controllers.SocketHandler

func Register(g *gin.RouterGroup, limiter *middleware.RateLimiter, h *Handler) {
	g.GET("/socket", limiter.Middleware(), h.Handle)
}
