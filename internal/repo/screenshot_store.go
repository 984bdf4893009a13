package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rentwatch/internal/models"
)

type ScreenshotStore struct{ db *gorm.DB }

func NewScreenshotStore(db *gorm.DB) *ScreenshotStore { return &ScreenshotStore{db: db} }

func (s *ScreenshotStore) Create(ctx context.Context, shot *models.Screenshot) error {
	return s.db.WithContext(ctx).Create(shot).Error
}

// ListByDevice — метаданные без самих картинок (Data слишком тяжёлая).
func (s *ScreenshotStore) ListByDevice(ctx context.Context, deviceID uint, limit int) ([]models.Screenshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var rows []models.Screenshot
	err := s.db.WithContext(ctx).
		Select("id, created_at, device_id, file_size_kb, width, height, active_window, triggered_by, meta").
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *ScreenshotStore) Get(ctx context.Context, id uint) (*models.Screenshot, error) {
	var shot models.Screenshot
	err := s.db.WithContext(ctx).First(&shot, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &shot, err
}
