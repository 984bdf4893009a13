package tracking

import (
	"context"
	"fmt"

	"rentwatch/internal/logs"
	"rentwatch/internal/metrics"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

const manualReason = "Manual activation by admin"

// Settings — чтение интервалов для CadenceFor.
type Settings interface {
	GetInt(ctx context.Context, key string, fallback int) int
}

// Directory — нужные контроллеру операции над устройством.
type Directory interface {
	FindByIdent(ctx context.Context, ident string) (*models.Device, error)
	SetSuperwatch(ctx context.Context, id uint, reason string) error
	SetNormal(ctx context.Context, id uint) error
	EscalateToSuperwatch(ctx context.Context, id uint, reason string) (bool, error)
}

// Events — запись событий смены режима.
type Events interface {
	Create(ctx context.Context, ev *models.DeviceEvent) error
}

// Controller — двухсостоянийный автомат NORMAL/SUPERWATCH на устройство.
// Эскалация автоматическая, обратно — только руками администратора.
type Controller struct {
	dir    Directory
	events Events
}

func NewController(dir Directory, events Events) *Controller {
	return &Controller{dir: dir, events: events}
}

// Switch — явное переключение администратором. Любое значение вне
// {NORMAL, SUPERWATCH} отклоняется.
func (c *Controller) Switch(ctx context.Context, ident, mode, reason string, actorID uint) (*models.Device, error) {
	if mode != models.TrackingNormal && mode != models.TrackingSuperwatch {
		return nil, repo.Invalid("mode must be NORMAL or SUPERWATCH")
	}
	dev, err := c.dir.FindByIdent(ctx, ident)
	if err != nil {
		return nil, err
	}

	eventType := models.EventSuperwatchOff
	if mode == models.TrackingSuperwatch {
		eventType = models.EventSuperwatchOn
		if reason == "" {
			reason = manualReason
		}
		if err := c.dir.SetSuperwatch(ctx, dev.ID, reason); err != nil {
			return nil, err
		}
		dev.TrackingMode = models.TrackingSuperwatch
		dev.SuperwatchReason = reason
	} else {
		if err := c.dir.SetNormal(ctx, dev.ID); err != nil {
			return nil, err
		}
		dev.TrackingMode = models.TrackingNormal
		dev.SuperwatchReason = ""
	}

	ev := &models.DeviceEvent{
		DeviceID:  dev.ID,
		EventType: eventType,
		Severity:  models.SeverityInfo,
		EventData: models.MarshalEventData(models.ModeSwitchData{
			Mode:        mode,
			Reason:      reason,
			ActivatedBy: fmt.Sprintf("user:%d", actorID),
		}),
	}
	if err := c.events.Create(ctx, ev); err != nil {
		// режим уже переключён — фиксируем расхождение в логе, но
		// не откатываем и не валим запрос
		logs.Logger.Errorf("mode switch audit event write failed: device=%d mode=%s err=%v", dev.ID, mode, err)
	}
	return dev, nil
}

// AutoEscalate — переход NORMAL→SUPERWATCH по критическому сигналу.
// Условный апдейт гарантирует не больше одной эскалации на переход;
// false означает, что устройство уже было в SUPERWATCH.
func (c *Controller) AutoEscalate(ctx context.Context, deviceID uint, eventType string) (bool, error) {
	reason := "Auto: " + eventType
	escalated, err := c.dir.EscalateToSuperwatch(ctx, deviceID, reason)
	if err != nil {
		// событие-триггер уже записано, а режим не переключился —
		// это именно та рассинхронизация, которую надо видеть в логах
		logs.Logger.Errorf("superwatch escalation failed after event write: device=%d trigger=%s err=%v", deviceID, eventType, err)
		return false, err
	}
	if !escalated {
		return false, nil
	}
	metrics.Escalations.Inc()

	ev := &models.DeviceEvent{
		DeviceID:  deviceID,
		EventType: models.EventSuperwatchOn,
		Severity:  models.SeverityInfo,
		EventData: models.MarshalEventData(models.ModeSwitchData{
			Mode:        models.TrackingSuperwatch,
			Reason:      reason,
			ActivatedBy: "auto",
		}),
	}
	if err := c.events.Create(ctx, ev); err != nil {
		logs.Logger.Errorf("escalation audit event write failed: device=%d err=%v", deviceID, err)
	}
	return true, nil
}
