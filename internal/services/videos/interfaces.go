package videos

import (
	"context"

	"github.com/killallgit/vidsum/internal/models"
)

// Service defines the operations on the local video record store
type Service interface {
	// IsProcessed reports whether a record exists for videoID
	IsProcessed(ctx context.Context, videoID string) (bool, error)

	// Record upserts the record, overwriting any previous row for the same id
	Record(ctx context.Context, record *models.VideoRecord) error

	// GetVideo returns the record for videoID or a NOT_FOUND error
	GetVideo(ctx context.Context, videoID string) (*models.VideoRecord, error)

	// ListVideos returns the most recently processed records first
	ListVideos(ctx context.Context, limit int) ([]models.VideoRecord, error)

	// ListUnsynced returns records whose remote page was never created
	ListUnsynced(ctx context.Context) ([]models.VideoRecord, error)

	// MarkSynced flags a record as present in the remote store
	MarkSynced(ctx context.Context, videoID string) error
}

// Repository defines the persistence operations for video records
type Repository interface {
	Upsert(ctx context.Context, record *models.VideoRecord) error
	GetByID(ctx context.Context, videoID string) (*models.VideoRecord, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	List(ctx context.Context, limit int) ([]models.VideoRecord, error)
	ListByRemoteSynced(ctx context.Context, synced bool) ([]models.VideoRecord, error)
	SetRemoteSynced(ctx context.Context, videoID string, synced bool) error
}
