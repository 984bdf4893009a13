package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentwatch/internal/models"
)

type DeviceStore struct{ db *gorm.DB }

func NewDeviceStore(db *gorm.DB) *DeviceStore { return &DeviceStore{db: db} }

// FindByIdent ищет устройство по внешнему идентификатору:
// серийный номер либо внутренний числовой id.
func (s *DeviceStore) FindByIdent(ctx context.Context, ident string) (*models.Device, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil, Invalid("device identifier required")
	}
	q := s.db.WithContext(ctx)
	var d models.Device
	if id, err := strconv.ParseUint(ident, 10, 64); err == nil {
		q = q.Where("serial_number = ? OR id = ?", ident, uint(id))
	} else {
		q = q.Where("serial_number = ?", ident)
	}
	if err := q.First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *DeviceStore) GetByID(ctx context.Context, id uint) (*models.Device, error) {
	var d models.Device
	err := s.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &d, err
}

type LivenessInput struct {
	LanMACAddress    string
	ActiveMACAddress string
	ConnectionType   string
}

// UpdateLiveness обновляет last_seen и подливает MAC/тип подключения,
// только если агент прислал непустые значения — пустым ничего не затираем.
func (s *DeviceStore) UpdateLiveness(ctx context.Context, id uint, in LivenessInput) error {
	now := time.Now().UTC()
	upd := map[string]any{"last_seen": now, "updated_at": now}
	if in.LanMACAddress != "" {
		upd["lan_mac_address"] = in.LanMACAddress
	}
	if in.ActiveMACAddress != "" {
		upd["active_mac_address"] = in.ActiveMACAddress
	}
	if in.ConnectionType != "" {
		upd["connection_type"] = in.ConnectionType
	}
	return s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).Updates(upd).Error
}

// IncrementAlertCount — атомарный инкремент счётчика против строки в БД.
func (s *DeviceStore) IncrementAlertCount(ctx context.Context, id uint, by int) error {
	if by <= 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Update("alert_count", gorm.Expr("alert_count + ?", by)).Error
}

// EscalateToSuperwatch — условный переход NORMAL→SUPERWATCH: строка
// меняется только если режим сейчас NORMAL. Возврат false означает,
// что устройство уже было в SUPERWATCH (гонка или повторный сигнал).
func (s *DeviceStore) EscalateToSuperwatch(ctx context.Context, id uint, reason string) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ? AND tracking_mode = ?", id, models.TrackingNormal).
		Updates(map[string]any{
			"tracking_mode":           models.TrackingSuperwatch,
			"superwatch_reason":       reason,
			"superwatch_activated_at": now,
			"updated_at":              now,
		})
	return res.RowsAffected > 0, res.Error
}

// SetSuperwatch — явное включение администратором (без условия на
// текущий режим: повтор обновляет причину и время).
func (s *DeviceStore) SetSuperwatch(ctx context.Context, id uint, reason string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tracking_mode":           models.TrackingSuperwatch,
			"superwatch_reason":       reason,
			"superwatch_activated_at": now,
			"updated_at":              now,
		}).Error
}

// SetNormal снимает усиленный режим и чистит его атрибуты.
func (s *DeviceStore) SetNormal(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tracking_mode":           models.TrackingNormal,
			"superwatch_reason":       "",
			"superwatch_activated_at": nil,
			"updated_at":              now,
		}).Error
}

type RegisterInput struct {
	DeviceType string
	Brand      string
	Model      string
}

// Register создаёт новое устройство со сгенерированным серийником.
func (s *DeviceStore) Register(ctx context.Context, in RegisterInput) (*models.Device, error) {
	serial := fmt.Sprintf("DEV%s", strings.ToUpper(strings.ReplaceAll(uuid.NewString()[:13], "-", "")))
	d := models.Device{
		SerialNumber: serial,
		DeviceType:   in.DeviceType,
		Brand:        in.Brand,
		Model:        in.Model,
		Status:       models.DeviceStatusAvailable,
		TrackingMode: models.TrackingNormal,
	}
	if d.DeviceType == "" {
		d.DeviceType = "DESKTOP"
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// MonitorSummary — сводка для дашборда: живость считается по last_seen
// относительно порога в минутах.
type MonitorSummary struct {
	Total      int64 `json:"total"`
	Online     int64 `json:"online"`
	Offline    int64 `json:"offline"`
	NeverSeen  int64 `json:"never_seen"`
	Superwatch int64 `json:"superwatch"`
	Alerts     int64 `json:"alerts"`
}

func (s *DeviceStore) Monitor(ctx context.Context, offlineAfter time.Duration) (*MonitorSummary, []models.Device, error) {
	var rows []models.Device
	// без NULLS LAST — mysql такого не знает
	if err := s.db.WithContext(ctx).Order("last_seen desc").Limit(200).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	cutoff := time.Now().UTC().Add(-offlineAfter)
	sum := &MonitorSummary{Total: int64(len(rows))}
	for _, d := range rows {
		switch {
		case d.LastSeen == nil:
			sum.NeverSeen++
		case d.LastSeen.After(cutoff):
			sum.Online++
		default:
			sum.Offline++
		}
		if d.TrackingMode == models.TrackingSuperwatch {
			sum.Superwatch++
		}
	}
	if err := s.db.WithContext(ctx).Model(&models.DeviceEvent{}).
		Where("is_resolved = ?", false).Count(&sum.Alerts).Error; err != nil {
		return nil, nil, err
	}
	return sum, rows, nil
}
