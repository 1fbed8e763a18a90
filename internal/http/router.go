package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/guildgate/guildgate-auth/internal/config"
	"github.com/guildgate/guildgate-auth/internal/http/handler"
	httpmiddleware "github.com/guildgate/guildgate-auth/internal/http/middleware"
	"github.com/guildgate/guildgate-auth/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/start", authHandler.Start)
		authGroup.GET("/callback", authHandler.Callback)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/token", authHandler.Token)
	}

	r.GET("/healthz", authHandler.Health)

	return r
}
