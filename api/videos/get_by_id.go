package videos

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api/types"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GetByID returns one recorded video
// @Summary      Get a recorded video
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Platform video id"
// @Success      200  {object}  types.SingleVideoResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/videos/{id} [get]
func GetByID(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		videoID := c.Param("id")

		record, err := deps.VideoService.GetVideo(c.Request.Context(), videoID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, types.NewErrorResponse("Video not found", string(apperrors.ErrCodeNotFound)))
				return
			}
			log.Error().Err(err).Str("video_id", videoID).Msg("failed to fetch video")
			c.JSON(apperrors.GetHTTPCode(err), types.NewErrorResponse("Failed to fetch video", string(apperrors.GetCode(err))))
			return
		}

		video := types.NewVideo(record)
		c.JSON(http.StatusOK, types.SingleVideoResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Video retrieved"},
			Video:        &video,
		})
	}
}
