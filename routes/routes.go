package routes

import (
	"log/slog"
	"net/http"

	"SupportChat/middleware"
	"SupportChat/pkg/events"
	"SupportChat/pkg/realtime"
	"SupportChat/pkg/relay"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"

	analyticsRoutes "SupportChat/routes/analytics"
	authRoutes "SupportChat/routes/auth"
	convRoutes "SupportChat/routes/conversation"
	customerRoutes "SupportChat/routes/customer"
	employeeRoutes "SupportChat/routes/employee"
	messageRoutes "SupportChat/routes/message"
	profileRoutes "SupportChat/routes/profile"
	widgetRoutes "SupportChat/routes/widget"
	websocketRoutes "SupportChat/routes/websocket"
)

// Deps is everything the handlers need, built once in main.
type Deps struct {
	Store       *store.Store
	Relay       *relay.Relay
	Registry    *realtime.Registry
	Publisher   events.Publisher
	RateLimiter *middleware.RateLimiter
	JWTSecret   string
	SendBuffer  int
	Logger      *slog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.RateLimiter == nil {
		d.RateLimiter = middleware.NewRateLimiter(0, 0)
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	db := d.Store.DB()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "support chat backend running"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authRoutes.RegisterPublic(api, db, d.JWTSecret)
	widgetRoutes.Register(api, d.Store, d.RateLimiter)
	websocketRoutes.Register(api, d.RateLimiter, &websocketRoutes.Handler{
		Relay:      d.Relay,
		Registry:   d.Registry,
		DB:         db,
		Secret:     d.JWTSecret,
		SendBuffer: d.SendBuffer,
		Logger:     d.Logger,
	})

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	profileRoutes.Register(protected, db)
	messageRoutes.Register(protected, d.Relay, d.RateLimiter)
	convRoutes.Register(protected, d.Store, d.Publisher)
	customerRoutes.Register(protected, d.Store)
	employeeRoutes.Register(protected, db)
	analyticsRoutes.Register(protected, db)
}
