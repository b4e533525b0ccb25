package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter 配置HTTP路由
func NewRouter(h *Handler, apiKeys []string, limiter *CooldownLimiter, logger Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		allowed[k] = struct{}{}
	}

	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.POST("/public-analyze", APIKeyAuth(allowed), RateLimitMiddleware(limiter), h.Analyze)
		api.POST("/analyze-contract", h.Analyze)
		api.GET("/token-display-name/:address", h.TokenDisplayName)
		api.GET("/analyses/:address", h.RecentAnalyses)
	}

	return router
}
