package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dealrisk-backend/internal/assessment"
	"dealrisk-backend/internal/documents"
	"dealrisk-backend/internal/shared/config"
	"dealrisk-backend/internal/shared/metrics"
	"dealrisk-backend/internal/shared/server/middleware"
	"dealrisk-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config            config.Config
	AssessmentHandler *assessment.Handler
	DocumentsHandler  *documents.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(pollLimitConfig()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterRoutes(api)
	}

	return r
}

// pollLimitConfig throttles status polling harder than the rest of the API:
// clients poll GET /submissions/:id while analysis steps run in the
// background.
func pollLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 10, Burst: 20},
			"POLL":    {Rate: 2, Burst: 5},
		},
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && strings.Contains(c.FullPath(), "/submissions/:id") {
				return "POLL"
			}
			return "DEFAULT"
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
