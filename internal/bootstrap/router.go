package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http/middleware"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/api/http/routes"
	mcphttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/mcp/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/metrics"
	pncphttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/pncp/http"
)

type RouterDeps struct {
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Health         *httpapi.HealthHandler
	Proxy          *pncphttp.Proxy
	MCP            *mcphttp.Handler
	V1             routes.V1Deps
}

// BuildRouter wires every HTTP surface:
//   - /health, /healthz and /metrics without rate limiting
//   - /api/pncp/* proxy, which answers CORS for any origin on its own
//   - /mcp and /webhook/mcp JSON-RPC
//   - /api/v1/* application routes
//
// The CORS allow-list applies to every group except the proxy.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	withCORS := cors.New(corsConfig(dep.AllowedOrigins))

	ops := r.Group("", withCORS)
	dep.Health.RegisterRoutes(ops)
	ops.GET("/metrics", gin.WrapH(metrics.Handler()))

	limited := r.Group("")
	if dep.RateLimiter != nil {
		limited.Use(dep.RateLimiter.Middleware())
	}

	dep.Proxy.Register(limited.Group("/api"))

	app := limited.Group("", withCORS)
	dep.MCP.Register(app)
	routes.RegisterV1(app.Group("/api/v1"), dep.V1)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id", "apikey", "x-client-info"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
