package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rentwatch/internal/models"
)

type EventStore struct{ db *gorm.DB }

func NewEventStore(db *gorm.DB) *EventStore { return &EventStore{db: db} }

// CreateBatch пишет все события одного приёма одной вставкой.
func (s *EventStore) CreateBatch(ctx context.Context, events []models.DeviceEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&events).Error
}

func (s *EventStore) Create(ctx context.Context, ev *models.DeviceEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

// AlertRow — нерешённое событие с минимальной идентификацией
// устройства для вывода (read-only проекция).
type AlertRow struct {
	models.DeviceEvent
	SerialNumber string `json:"serial_number"`
	TrackingMode string `json:"tracking_mode"`
}

type AlertFilter struct {
	Severity string
	DeviceID uint
}

// ListUnresolved — нерешённые события, свежие первыми.
func (s *EventStore) ListUnresolved(ctx context.Context, f AlertFilter) ([]AlertRow, error) {
	q := s.db.WithContext(ctx).
		Table("device_events").
		Select("device_events.*, devices.serial_number, devices.tracking_mode").
		Joins("JOIN devices ON devices.id = device_events.device_id").
		Where("device_events.is_resolved = ?", false).
		Order("device_events.created_at desc").
		Limit(100)
	if f.Severity != "" {
		q = q.Where("device_events.severity = ?", f.Severity)
	}
	if f.DeviceID != 0 {
		q = q.Where("device_events.device_id = ?", f.DeviceID)
	}
	var rows []AlertRow
	err := q.Scan(&rows).Error
	return rows, err
}

// Resolve закрывает алерт: кто, когда и (опционально) почему.
func (s *EventStore) Resolve(ctx context.Context, alertID, resolverID uint, note string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.DeviceEvent{}).
		Where("id = ? AND is_resolved = ?", alertID, false).
		Updates(map[string]any{
			"is_resolved":  true,
			"resolved_by":  resolverID,
			"resolved_at":  now,
			"resolve_note": note,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// либо нет такого id, либо уже закрыт — различаем
		var ev models.DeviceEvent
		err := s.db.WithContext(ctx).First(&ev, alertID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// HistoryByDevice — события устройства, свежие первыми.
func (s *EventStore) HistoryByDevice(ctx context.Context, deviceID uint, limit int, onlyUnresolved bool) ([]models.DeviceEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Limit(limit)
	if onlyUnresolved {
		q = q.Where("is_resolved = ?", false)
	}
	var rows []models.DeviceEvent
	err := q.Find(&rows).Error
	return rows, err
}
