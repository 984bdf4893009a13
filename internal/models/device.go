package models

import (
	"time"

	"gorm.io/gorm"
)

// Режимы наблюдения за устройством.
const (
	TrackingNormal     = "NORMAL"
	TrackingSuperwatch = "SUPERWATCH"
)

// Статусы устройства в парке.
const (
	DeviceStatusAvailable = "AVAILABLE"
	DeviceStatusDeployed  = "DEPLOYED"
	DeviceStatusLocked    = "LOCKED"
	DeviceStatusStolen    = "STOLEN"
	DeviceStatusPending   = "PENDING"
)

type Device struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SerialNumber string `gorm:"uniqueIndex;size:64;not null" json:"serial_number"`
	DeviceType   string `gorm:"size:32" json:"device_type"`
	Brand        string `gorm:"size:64" json:"brand"`
	Model        string `gorm:"size:255" json:"model"`
	ClientID     *uint  `gorm:"index" json:"client_id,omitempty"`

	// LAN MAC считаем постоянным "паспортом" железа,
	// ActiveMAC — интерфейс текущего подключения.
	LanMACAddress    string `gorm:"size:64" json:"lan_mac_address"`
	ActiveMACAddress string `gorm:"size:64" json:"active_mac_address"`
	ConnectionType   string `gorm:"size:16" json:"connection_type"` // LAN|WIFI|DONGLE|OTHER

	Status                string     `gorm:"size:32;index;default:AVAILABLE" json:"status"`
	TrackingMode          string     `gorm:"size:16;index;default:NORMAL" json:"tracking_mode"`
	SuperwatchReason      string     `gorm:"size:255" json:"superwatch_reason,omitempty"`
	SuperwatchActivatedAt *time.Time `json:"superwatch_activated_at,omitempty"`
	LastSeen              *time.Time `gorm:"index" json:"last_seen,omitempty"`
	AlertCount            int        `gorm:"default:0" json:"alert_count"`
}

// IsLockTarget — агенту велено блокироваться, если устройство
// помечено как заблокированное или украденное.
func (d *Device) IsLockTarget() bool {
	return d.Status == DeviceStatusLocked || d.Status == DeviceStatusStolen
}
