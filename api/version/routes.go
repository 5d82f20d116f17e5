package version

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api/types"
)

// RegisterRoutes registers version routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	version := ""
	if deps != nil {
		version = deps.Version
	}
	engine.GET("/", Get(version))
}
