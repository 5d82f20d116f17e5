package videos

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api/types"
	"github.com/rs/zerolog/log"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// GetAll lists recorded videos, newest first
// @Summary      List recorded videos
// @Tags         videos
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of videos (default 50, max 500)"
// @Success      200    {object}  types.VideosResponse
// @Failure      400    {object}  types.ErrorResponse
// @Failure      500    {object}  types.ErrorResponse
// @Router       /api/v1/videos [get]
func GetAll(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, types.NewErrorResponse("limit must be a positive integer", "VALIDATION"))
				return
			}
			limit = min(parsed, maxLimit)
		}

		records, err := deps.VideoService.ListVideos(c.Request.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to list videos")
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse("Failed to list videos", "DATABASE_QUERY"))
			return
		}

		videos := make([]types.Video, 0, len(records))
		for i := range records {
			videos = append(videos, types.NewVideo(&records[i]))
		}

		c.JSON(http.StatusOK, types.VideosResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Videos retrieved"},
			Videos:       videos,
			Count:        len(videos),
		})
	}
}
