package videos

import (
	"context"
	"errors"

	"github.com/killallgit/vidsum/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// repository implements the Repository interface using GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new video record repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts the record or replaces every column of the existing row
func (r *repository) Upsert(ctx context.Context, record *models.VideoRecord) error {
	if record == nil {
		return errors.New("video record cannot be nil")
	}
	if record.VideoID == "" {
		return errors.New("video record requires a video id")
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

// GetByID retrieves a record by video id, returning nil when absent
func (r *repository) GetByID(ctx context.Context, videoID string) (*models.VideoRecord, error) {
	var record models.VideoRecord

	result := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &record, nil
}

// Exists checks if a record exists for a video id
func (r *repository) Exists(ctx context.Context, videoID string) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).Model(&models.VideoRecord{}).Where("video_id = ?", videoID).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// List returns records ordered by processed date, newest first
func (r *repository) List(ctx context.Context, limit int) ([]models.VideoRecord, error) {
	var records []models.VideoRecord

	query := r.db.WithContext(ctx).Order("processed_date DESC").Order("video_id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// ListByRemoteSynced returns records with the given remote sync flag, oldest first
func (r *repository) ListByRemoteSynced(ctx context.Context, synced bool) ([]models.VideoRecord, error) {
	var records []models.VideoRecord

	err := r.db.WithContext(ctx).
		Where("remote_synced = ?", synced).
		Order("processed_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// SetRemoteSynced updates the remote sync flag
func (r *repository) SetRemoteSynced(ctx context.Context, videoID string, synced bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.VideoRecord{}).
		Where("video_id = ?", videoID).
		Update("remote_synced", synced)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
