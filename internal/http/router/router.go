package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vdt.ai/dashboard/internal/http/handler"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/service"
)

type RouterConfig struct {
	DashboardURL string
	IsProduction bool
}

type Deps struct {
	App        *rpc.App
	NewContext rpc.ContextFactory
	// Auth is nil when WorkOS is not configured; the /auth routes are then omitted.
	Auth    service.AuthService
	Metrics http.Handler
}

func SetupRoutes(router *gin.Engine, deps Deps, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	rpcHandler := handler.NewRPCHandler(deps.App, deps.NewContext, !cfg.IsProduction)
	RPCRouter(router.Group("/trpc"), rpcHandler)

	if deps.Auth != nil {
		authHandler := handler.NewAuthHandler(deps.Auth, cfg.DashboardURL, cfg.IsProduction)
		AuthRouter(router.Group("/auth"), authHandler)
	}
}
