package videos

import (
	"context"
	"errors"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"gorm.io/gorm"
)

// service implements the Service interface
type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new video record service
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) IsProcessed(ctx context.Context, videoID string) (bool, error) {
	if videoID == "" {
		return false, nil
	}

	exists, err := s.repo.Exists(ctx, videoID)
	if err != nil {
		return false, apperrors.DatabaseError("exists", err).WithDetail("video_id", videoID)
	}
	return exists, nil
}

func (s *service) Record(ctx context.Context, record *models.VideoRecord) error {
	if record == nil || record.VideoID == "" {
		return apperrors.ValidationError("video_id", "required")
	}
	if record.ProcessedDate == 0 {
		record.ProcessedDate = s.now().Unix()
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return apperrors.DatabaseError("upsert", err).WithDetail("video_id", record.VideoID)
	}
	return nil
}

func (s *service) GetVideo(ctx context.Context, videoID string) (*models.VideoRecord, error) {
	record, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return nil, apperrors.DatabaseError("get", err).WithDetail("video_id", videoID)
	}
	if record == nil {
		return nil, apperrors.NotFound("video", videoID)
	}
	return record, nil
}

func (s *service) ListVideos(ctx context.Context, limit int) ([]models.VideoRecord, error) {
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("list", err)
	}
	return records, nil
}

func (s *service) ListUnsynced(ctx context.Context) ([]models.VideoRecord, error) {
	records, err := s.repo.ListByRemoteSynced(ctx, false)
	if err != nil {
		return nil, apperrors.DatabaseError("list unsynced", err)
	}
	return records, nil
}

func (s *service) MarkSynced(ctx context.Context, videoID string) error {
	if err := s.repo.SetRemoteSynced(ctx, videoID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("video", videoID)
		}
		return apperrors.DatabaseError("mark synced", err).WithDetail("video_id", videoID)
	}
	return nil
}
