package videos

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api/types"
)

// RegisterRoutes registers video routes. process is applied to the POST
// route only.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, process ...gin.HandlerFunc) {
	// GET /api/v1/videos - List recorded videos, newest first
	router.GET("", GetAll(deps))

	// GET /api/v1/videos/:id - Get one recorded video
	router.GET("/:id", GetByID(deps))

	// POST /api/v1/videos - Run the pipeline for a URL
	router.POST("", append(process, PostProcess(deps))...)
}
