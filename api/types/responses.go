package types

import (
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/processor"
)

// Status constants for API responses
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`  // One of the Status constants above
	Message string `json:"message"` // Human-readable message
}

// Video is the API view of a recorded video
type Video struct {
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	Uploader        string    `json:"uploader"`
	Platform        string    `json:"platform"`
	URL             string    `json:"url,omitempty"`
	PublishedAt     time.Time `json:"publishedAt"`
	ProcessedAt     time.Time `json:"processedAt"`
	SummaryPath     string    `json:"summaryPath"`
	AudioDownloaded bool      `json:"audioDownloaded"`
	RemoteSynced    bool      `json:"remoteSynced"`
}

// VideosResponse for video lists
type VideosResponse struct {
	BaseResponse
	Videos []Video `json:"videos"`
	Count  int     `json:"count"`
}

// SingleVideoResponse for getting a single video
type SingleVideoResponse struct {
	BaseResponse
	Video *Video `json:"video"`
}

// ProcessRequest is the body of POST /api/v1/videos
type ProcessRequest struct {
	URL      string `json:"url" binding:"required"`
	Title    string `json:"title,omitempty"`
	Uploader string `json:"uploader,omitempty"`
}

// ProcessResponse reports the outcome of a pipeline run
type ProcessResponse struct {
	BaseResponse
	Outcome *processor.Outcome `json:"outcome,omitempty"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code/type
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Database  map[string]string `json:"database"`
}

// NewVideo converts a stored record to its API view
func NewVideo(r *models.VideoRecord) Video {
	return Video{
		VideoID:         r.VideoID,
		Title:           r.Title,
		Uploader:        r.UploaderID,
		Platform:        string(r.Platform),
		URL:             r.URL,
		PublishedAt:     time.Unix(r.PublishDate, 0).UTC(),
		ProcessedAt:     r.ProcessedAt().UTC(),
		SummaryPath:     r.SummaryPath,
		AudioDownloaded: r.AudioDownloaded,
		RemoteSynced:    r.RemoteSynced,
	}
}

// NewErrorResponse builds an error body
func NewErrorResponse(message, code string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message, Error: code}
}
