package models

import "time"

// Типы значений настроек.
const (
	SettingString  = "STRING"
	SettingInteger = "INTEGER"
	SettingBoolean = "BOOLEAN"
	SettingDecimal = "DECIMAL"
)

// Setting — типизированная настройка. Значение хранится текстом,
// интерпретируется по Type; границы min/max — только для INTEGER.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`

	Key         string `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Value       string `gorm:"size:255;not null" json:"value"`
	Type        string `gorm:"size:16;not null" json:"type"`
	Category    string `gorm:"size:32;index" json:"category"`
	Label       string `gorm:"size:128" json:"label"`
	Description string `gorm:"size:512" json:"description,omitempty"`
	MinValue    *int   `json:"min_value,omitempty"`
	MaxValue    *int   `json:"max_value,omitempty"`
	UpdatedBy   *uint  `json:"updated_by,omitempty"`
}

// SettingAudit — журнал изменений настроек. Пишется приложением
// в одной транзакции с самим изменением.
type SettingAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SettingKey string `gorm:"size:64;index;not null" json:"setting_key"`
	OldValue   string `gorm:"size:255" json:"old_value"`
	NewValue   string `gorm:"size:255" json:"new_value"`
	ChangedBy  uint   `json:"changed_by"`
}
