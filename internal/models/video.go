package models

import "time"

// Platform identifies the streaming site a video belongs to
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
)

// VideoRecord is the local record of a processed video.
// At most one row exists per VideoID; writes are upserts.
type VideoRecord struct {
	VideoID         string   `gorm:"column:video_id;primaryKey" json:"video_id"`
	Title           string   `json:"title"`
	UploaderID      string   `gorm:"column:uploader_id" json:"uploader_id"`
	Platform        Platform `gorm:"index" json:"platform"`
	URL             string   `gorm:"column:url;index" json:"url"`
	PublishDate     int64    `gorm:"column:publish_date" json:"publish_date"`     // unix seconds
	ProcessedDate   int64    `gorm:"column:processed_date" json:"processed_date"` // unix seconds
	SummaryPath     string   `gorm:"column:summary_path" json:"summary_path"`
	AudioDownloaded bool     `gorm:"column:audio_downloaded" json:"audio_downloaded"`
	RemoteSynced    bool     `gorm:"column:remote_synced;index" json:"remote_synced"`
}

// TableName specifies the table name for VideoRecord
func (VideoRecord) TableName() string {
	return "videos"
}

// ProcessedAt returns ProcessedDate as a time
func (v VideoRecord) ProcessedAt() time.Time {
	return time.Unix(v.ProcessedDate, 0)
}
