package models

import (
	"time"

	"gorm.io/datatypes"
)

// Screenshot — снимок экрана от агента. Принимается только
// в режиме SUPERWATCH.
type Screenshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	DeviceID     uint   `gorm:"index;not null" json:"device_id"`
	Data         []byte `gorm:"type:bytea" json:"-"`
	FileSizeKB   int    `json:"file_size_kb"`
	Width        int    `gorm:"default:1024" json:"width"`
	Height       int    `gorm:"default:768" json:"height"`
	ActiveWindow string `gorm:"size:512" json:"active_window,omitempty"`
	TriggeredBy  string `gorm:"size:32;default:AUTO_SUPERWATCH" json:"triggered_by"`

	// Произвольные атрибуты агента (версия, монитор и т.п.).
	Meta datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
}
