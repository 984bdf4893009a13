package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Серьёзность события.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Типы событий — закрытый список, всё остальное отклоняется.
const (
	EventRestart        = "RESTART"
	EventAbruptShutdown = "ABRUPT_SHUTDOWN"
	EventUserChange     = "USER_CHANGE"
	EventMACChange      = "MAC_CHANGE"
	EventIPChange       = "IP_CHANGE"
	EventLocationChange = "LOCATION_CHANGE"
	EventOfflineSpike   = "OFFLINE_SPIKE"
	EventNightActivity  = "NIGHT_ACTIVITY"
	EventUSBConnect     = "USB_CONNECT"
	EventSuperwatchOn   = "SUPERWATCH_ON"
	EventSuperwatchOff  = "SUPERWATCH_OFF"
	EventPaymentOverdue = "PAYMENT_OVERDUE"
)

var validEventTypes = map[string]struct{}{
	EventRestart: {}, EventAbruptShutdown: {}, EventUserChange: {},
	EventMACChange: {}, EventIPChange: {}, EventLocationChange: {},
	EventOfflineSpike: {}, EventNightActivity: {}, EventUSBConnect: {},
	EventSuperwatchOn: {}, EventSuperwatchOff: {}, EventPaymentOverdue: {},
}

func IsValidEventType(t string) bool {
	_, ok := validEventTypes[t]
	return ok
}

// ClassifySeverity — статическая таблица для внешних событий,
// когда агент не прислал severity сам.
func ClassifySeverity(eventType string) string {
	switch eventType {
	case EventMACChange, EventLocationChange, EventUserChange, EventAbruptShutdown:
		return SeverityCritical
	case EventRestart, EventOfflineSpike, EventNightActivity, EventPaymentOverdue:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// DeviceEvent — сигнал тревоги по устройству. Создаётся эвристиками
// или внешним отчётом агента; меняется только при резолюции.
type DeviceEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	DeviceID  uint           `gorm:"index;not null" json:"device_id"`
	EventType string         `gorm:"size:32;index;not null" json:"event_type"`
	Severity  string         `gorm:"size:16;index;not null" json:"severity"`
	EventData datatypes.JSON `gorm:"type:jsonb" json:"event_data,omitempty"`

	IsResolved  bool       `gorm:"index;default:false" json:"is_resolved"`
	ResolvedBy  *uint      `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolveNote string     `gorm:"size:512" json:"resolve_note,omitempty"`
}

// Типизированные payload'ы для event_data (вместо произвольной map).

type MACChangeData struct {
	OldMAC string `json:"old_mac"`
	NewMAC string `json:"new_mac"`
}

type IPChangeData struct {
	OldIP string `json:"old_ip"`
	NewIP string `json:"new_ip"`
}

type UserChangeData struct {
	OldUser string `json:"old_user"`
	NewUser string `json:"new_user"`
}

type RestartData struct {
	RestartCount24h int `json:"restart_count_24h"`
	Trigger         int `json:"trigger"`
}

type AbruptShutdownData struct {
	AbruptShutdownCount24h int `json:"abrupt_shutdown_count_24h"`
	Trigger                int `json:"trigger"`
}

type NightActivityData struct {
	Hour       int `json:"hour"`
	NightStart int `json:"night_start"`
	NightEnd   int `json:"night_end"`
}

type ModeSwitchData struct {
	Mode        string `json:"mode"`
	Reason      string `json:"reason"`
	ActivatedBy string `json:"activated_by"`
}

// MarshalEventData сериализует payload в JSON-колонку.
// Ошибка маршалинга структурных типов здесь невозможна.
func MarshalEventData(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
