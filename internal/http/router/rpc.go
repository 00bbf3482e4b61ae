package router

import (
	"github.com/gin-gonic/gin"

	"vdt.ai/dashboard/internal/http/handler"
)

func RPCRouter(rg *gin.RouterGroup, h *handler.RPCHandler) {
	rg.GET("", h.Catalog)
	rg.GET("/:path", h.Query)
	rg.POST("/:path", h.Mutation)
}
