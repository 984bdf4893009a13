package tracking

import (
	"context"

	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

// Cadence — интервалы, которые сервер диктует агенту.
type Cadence struct {
	ReportIntervalSeconds     int  `json:"reportIntervalSeconds"`
	ScreenshotIntervalMinutes *int `json:"screenshotIntervalMinutes"`
}

// CadenceFor — чистая функция (режим, настройки) → интервалы.
// Скриншоты только в SUPERWATCH, в NORMAL интервал отсутствует.
func CadenceFor(ctx context.Context, settings Settings, mode string) Cadence {
	if mode == models.TrackingSuperwatch {
		iv := settings.GetInt(ctx, repo.KeySuperwatchScreenshotIv, 5)
		return Cadence{
			ReportIntervalSeconds:     settings.GetInt(ctx, repo.KeySuperwatchReportIntvl, 30),
			ScreenshotIntervalMinutes: &iv,
		}
	}
	return Cadence{
		ReportIntervalSeconds: settings.GetInt(ctx, repo.KeyNormalReportInterval, 300),
	}
}
