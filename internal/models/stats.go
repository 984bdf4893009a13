package models

import "time"

// StatsSample — один отчёт телеметрии от агента. Append-only:
// создаётся при приёме и больше никогда не изменяется.
type StatsSample struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DeviceID  uint      `gorm:"index;not null" json:"device_id"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	CPUUsage  float64 `json:"cpu_usage"`
	RAMUsage  float64 `json:"ram_usage"`
	DiskUsage float64 `json:"disk_usage"`

	IPAddress        string `gorm:"size:64" json:"ip_address"`
	ActiveMACAddress string `gorm:"size:64" json:"active_mac_address"`
	LanMACAddress    string `gorm:"size:64" json:"lan_mac_address"`
	ConnectionType   string `gorm:"size:16" json:"connection_type"`
	ComputerName     string `gorm:"size:255" json:"computer_name"`
	LoggedInUser     string `gorm:"size:255" json:"logged_in_user"`
	IsOnline         bool   `json:"is_online"`

	RestartCount24h        int `json:"restart_count_24h"`
	AbruptShutdownCount24h int `json:"abrupt_shutdown_count_24h"`

	// Поля расширенного режима (SUPERWATCH), у NORMAL обычно пустые.
	CPUTemp       *float64 `json:"cpu_temp,omitempty"`
	HDDTemp       *float64 `json:"hdd_temp,omitempty"`
	UptimeMinutes *int     `json:"uptime_minutes,omitempty"`
	ActiveWindow  string   `gorm:"size:512" json:"active_window,omitempty"`

	// Режим устройства на момент приёма — для истории.
	TrackingMode string `gorm:"size:16" json:"tracking_mode"`
}
