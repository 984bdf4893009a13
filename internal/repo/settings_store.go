package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"rentwatch/internal/models"
)

// Ключи настроек, которые сервер читает сам.
const (
	KeyHeuristicEnabled       = "heuristic_enabled"
	KeyRestartTrigger         = "heuristic_restart_count_trigger"
	KeyAbruptShutdownTrigger  = "heuristic_abrupt_shutdown_trigger"
	KeyNightStartHour         = "heuristic_night_start_hour"
	KeyNightEndHour           = "heuristic_night_end_hour"
	KeyNormalReportInterval   = "normal_report_interval_seconds"
	KeySuperwatchReportIntvl  = "superwatch_report_interval_seconds"
	KeySuperwatchScreenshotIv = "superwatch_screenshot_interval_minutes"
	KeyOfflineAfterMinutes    = "monitor_offline_after_minutes"
)

// SettingsStore — типизированный key/value с кэшем чтений.
// Кэш инвалидируется при Update; устаревание ограничено следующей записью.
type SettingsStore struct {
	db *gorm.DB

	mu    sync.RWMutex
	cache map[string]models.Setting
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db, cache: make(map[string]models.Setting)}
}

func (s *SettingsStore) lookup(ctx context.Context, key string) (*models.Setting, error) {
	s.mu.RLock()
	if st, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return &st, nil
	}
	s.mu.RUnlock()

	var st models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.mu.Lock()
	s.cache[key] = st
	s.mu.Unlock()
	return &st, nil
}

// GetInt возвращает значение или fallback — никогда не ошибку.
func (s *SettingsStore) GetInt(ctx context.Context, key string, fallback int) int {
	st, err := s.lookup(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(st.Value)
	if err != nil {
		return fallback
	}
	return n
}

func (s *SettingsStore) GetBool(ctx context.Context, key string, fallback bool) bool {
	st, err := s.lookup(ctx, key)
	if err != nil {
		return fallback
	}
	return st.Value == "true"
}

func (s *SettingsStore) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	st, err := s.lookup(ctx, key)
	if err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(st.Value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *SettingsStore) GetString(ctx context.Context, key, fallback string) string {
	st, err := s.lookup(ctx, key)
	if err != nil || st.Value == "" {
		return fallback
	}
	return st.Value
}

// Update валидирует значение по типу и границам, пишет его вместе
// с записью аудита в одной транзакции и сбрасывает кэш ключа.
func (s *SettingsStore) Update(ctx context.Context, key, value string, updatedBy uint) error {
	var st models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch st.Type {
	case models.SettingInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return Invalid("value must be a number")
		}
		if st.MinValue != nil && n < *st.MinValue {
			return Invalid(fmt.Sprintf("minimum value is %d", *st.MinValue))
		}
		if st.MaxValue != nil && n > *st.MaxValue {
			return Invalid(fmt.Sprintf("maximum value is %d", *st.MaxValue))
		}
	case models.SettingBoolean:
		if value != "true" && value != "false" {
			return Invalid("value must be true or false")
		}
	case models.SettingDecimal:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return Invalid("value must be a decimal number")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Setting{}).
			Where("key = ?", key).
			Updates(map[string]any{"value": value, "updated_by": updatedBy}).Error; err != nil {
			return err
		}
		return tx.Create(&models.SettingAudit{
			SettingKey: key,
			OldValue:   st.Value,
			NewValue:   value,
			ChangedBy:  updatedBy,
		}).Error
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// ListGrouped — все настройки, сгруппированные по категории.
func (s *SettingsStore) ListGrouped(ctx context.Context, category string) (map[string][]models.Setting, error) {
	q := s.db.WithContext(ctx).Order("category, key")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var rows []models.Setting
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.Setting, 4)
	for _, st := range rows {
		grouped[st.Category] = append(grouped[st.Category], st)
	}
	return grouped, nil
}

func intPtr(n int) *int { return &n }

// SeedDefaults регистрирует известные ключи, если их ещё нет.
func (s *SettingsStore) SeedDefaults(ctx context.Context) error {
	defaults := []models.Setting{
		{Key: KeyHeuristicEnabled, Value: "true", Type: models.SettingBoolean,
			Category: "heuristics", Label: "Heuristic checks enabled"},
		{Key: KeyRestartTrigger, Value: "5", Type: models.SettingInteger,
			Category: "heuristics", Label: "Restarts per 24h before alert",
			MinValue: intPtr(1), MaxValue: intPtr(100)},
		{Key: KeyAbruptShutdownTrigger, Value: "3", Type: models.SettingInteger,
			Category: "heuristics", Label: "Abrupt shutdowns per 24h before alert",
			MinValue: intPtr(1), MaxValue: intPtr(100)},
		{Key: KeyNightStartHour, Value: "23", Type: models.SettingInteger,
			Category: "heuristics", Label: "Night window start hour",
			MinValue: intPtr(0), MaxValue: intPtr(23)},
		{Key: KeyNightEndHour, Value: "6", Type: models.SettingInteger,
			Category: "heuristics", Label: "Night window end hour",
			MinValue: intPtr(0), MaxValue: intPtr(23)},
		{Key: KeyNormalReportInterval, Value: "300", Type: models.SettingInteger,
			Category: "cadence", Label: "Report interval, NORMAL (seconds)",
			MinValue: intPtr(10), MaxValue: intPtr(86400)},
		{Key: KeySuperwatchReportIntvl, Value: "30", Type: models.SettingInteger,
			Category: "cadence", Label: "Report interval, SUPERWATCH (seconds)",
			MinValue: intPtr(5), MaxValue: intPtr(3600)},
		{Key: KeySuperwatchScreenshotIv, Value: "5", Type: models.SettingInteger,
			Category: "cadence", Label: "Screenshot interval, SUPERWATCH (minutes)",
			MinValue: intPtr(1), MaxValue: intPtr(1440)},
		{Key: KeyOfflineAfterMinutes, Value: "15", Type: models.SettingInteger,
			Category: "monitoring", Label: "Minutes without report before OFFLINE",
			MinValue: intPtr(1), MaxValue: intPtr(1440)},
	}
	for i := range defaults {
		err := s.db.WithContext(ctx).
			Where(models.Setting{Key: defaults[i].Key}).
			FirstOrCreate(&defaults[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
