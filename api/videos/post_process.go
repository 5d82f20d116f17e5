package videos

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api/types"
	"github.com/killallgit/vidsum/internal/services/processor"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
)

// PostProcess runs the pipeline for a URL. Runs are serialized; the request
// returns when the video is processed, skipped or failed.
// @Summary      Process a video
// @Description  Extracts, summarizes and records one YouTube or Bilibili video
// @Tags         videos
// @Accept       json
// @Produce      json
// @Param        request  body      types.ProcessRequest  true  "Video to process"
// @Success      200      {object}  types.ProcessResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ProcessResponse
// @Router       /api/v1/videos [post]
func PostProcess(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("A video url is required", "VALIDATION"))
			return
		}

		deps.ProcessLock.Lock()
		defer deps.ProcessLock.Unlock()

		ctx := c.Request.Context()
		outcome, err := deps.Processor.Process(ctx, processor.Request{
			URL:      req.URL,
			Title:    req.Title,
			Uploader: req.Uploader,
		})

		if errors.Is(err, processor.ErrUnsupportedURL) {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse("Unsupported video URL", "VALIDATION"))
			return
		}

		if outcome == nil {
			c.JSON(apperrors.GetHTTPCode(err), types.NewErrorResponse("Failed to process video", string(apperrors.GetCode(err))))
			return
		}

		switch outcome.Status {
		case processor.StatusProcessed:
			c.JSON(http.StatusOK, types.ProcessResponse{
				BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Video processed"},
				Outcome:      outcome,
			})
		case processor.StatusSkipped:
			c.JSON(http.StatusOK, types.ProcessResponse{
				BaseResponse: types.BaseResponse{Status: types.StatusSkipped, Message: "Video already recorded"},
				Outcome:      outcome,
			})
		default:
			code := http.StatusBadGateway
			if err != nil {
				code = apperrors.GetHTTPCode(err)
				if code == http.StatusInternalServerError {
					code = http.StatusBadGateway
				}
			}
			c.JSON(code, types.ProcessResponse{
				BaseResponse: types.BaseResponse{Status: types.StatusFailed, Message: "Video processing failed"},
				Outcome:      outcome,
			})
		}
	}
}
