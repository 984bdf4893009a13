package agentapi

import (
	"encoding/json"
	"time"
)

// UnixTime принимает и RFC3339-строку, и epoch-секунды — агенты
// на разных версиях шлют по-разному.
type UnixTime time.Time

func (u *UnixTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		*u = UnixTime(t)
		return nil
	}
	var ts int64
	if err := json.Unmarshal(b, &ts); err == nil && ts > 0 {
		*u = UnixTime(time.Unix(ts, 0).UTC())
		return nil
	}
	*u = UnixTime(time.Time{})
	return nil
}

// StatsRequest — тело POST /api/devices/stats.
type StatsRequest struct {
	DeviceID  string   `json:"deviceId" validate:"required"`
	Timestamp UnixTime `json:"timestamp"`

	CPUUsage  float64 `json:"cpuUsage" validate:"min=0,max=100"`
	RAMUsage  float64 `json:"ramUsage" validate:"min=0,max=100"`
	DiskUsage float64 `json:"diskUsage" validate:"min=0,max=100"`

	IPAddress        string `json:"ipAddress"`
	ActiveMACAddress string `json:"activeMacAddress"`
	LanMACAddress    string `json:"lanMacAddress"`
	ConnectionType   string `json:"connectionType" validate:"omitempty,oneof=LAN WIFI DONGLE OTHER"`
	ComputerName     string `json:"computerName"`
	LoggedInUser     string `json:"loggedInUser"`
	IsOnline         bool   `json:"isOnline"`

	RestartCount24h        int `json:"restartCount24h" validate:"min=0"`
	AbruptShutdownCount24h int `json:"abruptShutdownCount24h" validate:"min=0"`

	CPUTemp       *float64 `json:"cpuTemp,omitempty"`
	HDDTemp       *float64 `json:"hddTemp,omitempty"`
	UptimeMinutes *int     `json:"uptimeMinutes,omitempty"`
	ActiveWindow  string   `json:"activeWindow,omitempty"`
}

// StatsResponse — то, что агент разбирает после каждого отчёта.
type StatsResponse struct {
	Success                   bool   `json:"success"`
	Message                   string `json:"message"`
	LockStatus                bool   `json:"lockStatus"`
	DeviceStatus              string `json:"deviceStatus,omitempty"`
	TrackingMode              string `json:"trackingMode,omitempty"`
	ReportIntervalSeconds     int    `json:"reportIntervalSeconds,omitempty"`
	ScreenshotIntervalMinutes *int   `json:"screenshotIntervalMinutes,omitempty"`
}

type EventRequest struct {
	DeviceID  string          `json:"deviceId" validate:"required"`
	EventType string          `json:"eventType" validate:"required"`
	EventData json.RawMessage `json:"eventData,omitempty"`
	Severity  string          `json:"severity,omitempty"`
}

type EventResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
}

type ScreenshotRequest struct {
	DeviceID       string          `json:"deviceId" validate:"required"`
	ScreenshotData string          `json:"screenshotData" validate:"required"`
	FileSizeKB     int             `json:"fileSizeKb"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	ActiveWindow   string          `json:"activeWindow,omitempty"`
	TriggeredBy    string          `json:"triggeredBy,omitempty"`
	Meta           json.RawMessage `json:"meta,omitempty"`
}

type RegisterRequest struct {
	DeviceType string `json:"deviceType"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
}

type RegisterResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SerialNumber string `json:"serialNumber,omitempty"`
}
