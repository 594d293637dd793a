package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pastpapers/api/handler"
	"github.com/use-agent/pastpapers/cache"
	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
func NewRouter(lister handler.Lister, runner handler.Runner, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(runner, startTime))

	// Listing scrape
	v1.POST("/listing", handler.Listing(lister, cc))

	// Download run
	v1.POST("/download", handler.Download(runner, webhook.New(cfg.Webhook.Secret)))

	return r
}
