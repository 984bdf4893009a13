package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rentwatch/internal/models"
)

type StatsStore struct{ db *gorm.DB }

func NewStatsStore(db *gorm.DB) *StatsStore { return &StatsStore{db: db} }

// Append пишет новый отчёт как есть. Никаких апдейтов задним числом.
func (s *StatsStore) Append(ctx context.Context, sample *models.StatsSample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(sample).Error
}

// Latest — самый свежий отчёт устройства; nil без ошибки, если
// устройство ещё ни разу не отчитывалось.
func (s *StatsStore) Latest(ctx context.Context, deviceID uint) (*models.StatsSample, error) {
	var sample models.StatsSample
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp desc").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// History — последние отчёты устройства для админки.
func (s *StatsStore) History(ctx context.Context, deviceID uint, limit int) ([]models.StatsSample, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows []models.StatsSample
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("timestamp desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
