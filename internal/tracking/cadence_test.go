package tracking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rentwatch/internal/models"
	"rentwatch/internal/repo"
	"rentwatch/internal/tracking"
)

type fakeSettings map[string]int

func (f fakeSettings) GetInt(_ context.Context, key string, fallback int) int {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

func TestCadenceFor_NormalDefaults(t *testing.T) {
	c := tracking.CadenceFor(context.Background(), fakeSettings{}, models.TrackingNormal)
	require.Equal(t, 300, c.ReportIntervalSeconds)
	require.Nil(t, c.ScreenshotIntervalMinutes)
}

func TestCadenceFor_SuperwatchDefaults(t *testing.T) {
	c := tracking.CadenceFor(context.Background(), fakeSettings{}, models.TrackingSuperwatch)
	require.Equal(t, 30, c.ReportIntervalSeconds)
	require.NotNil(t, c.ScreenshotIntervalMinutes)
	require.Equal(t, 5, *c.ScreenshotIntervalMinutes)
}

func TestCadenceFor_RespectsSettings(t *testing.T) {
	s := fakeSettings{
		repo.KeySuperwatchReportIntvl:  10,
		repo.KeySuperwatchScreenshotIv: 2,
		repo.KeyNormalReportInterval:   600,
	}
	c := tracking.CadenceFor(context.Background(), s, models.TrackingSuperwatch)
	require.Equal(t, 10, c.ReportIntervalSeconds)
	require.Equal(t, 2, *c.ScreenshotIntervalMinutes)

	c = tracking.CadenceFor(context.Background(), s, models.TrackingNormal)
	require.Equal(t, 600, c.ReportIntervalSeconds)
	require.Nil(t, c.ScreenshotIntervalMinutes)
}
