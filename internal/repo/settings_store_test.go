package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

func newSettings(t *testing.T) *repo.SettingsStore {
	t.Helper()
	db := testDB(t)
	s := repo.NewSettingsStore(db)
	require.NoError(t, s.SeedDefaults(context.Background()))
	return s
}

func TestSettings_GetWithFallback(t *testing.T) {
	s := newSettings(t)
	ctx := context.Background()

	require.Equal(t, 5, s.GetInt(ctx, repo.KeyRestartTrigger, 99))
	require.Equal(t, true, s.GetBool(ctx, repo.KeyHeuristicEnabled, false))

	// неизвестный ключ — всегда fallback, без ошибки
	require.Equal(t, 42, s.GetInt(ctx, "no_such_key", 42))
	require.Equal(t, "x", s.GetString(ctx, "no_such_key", "x"))
	require.Equal(t, 1.5, s.GetFloat(ctx, "no_such_key", 1.5))
}

func TestSettings_CoercionFailureFallsBack(t *testing.T) {
	s := newSettings(t)
	ctx := context.Background()

	// BOOLEAN-значение через GetInt не парсится — fallback
	require.Equal(t, 7, s.GetInt(ctx, repo.KeyHeuristicEnabled, 7))
}

func TestSettings_UpdateUnknownKey(t *testing.T) {
	s := newSettings(t)
	err := s.Update(context.Background(), "no_such_key", "1", 1)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSettings_UpdateIntegerBounds(t *testing.T) {
	s := newSettings(t)
	ctx := context.Background()

	// screenshot interval: min 1, max 1440
	err := s.Update(ctx, repo.KeySuperwatchScreenshotIv, "5000", 1)
	require.True(t, repo.IsValidation(err))
	require.EqualError(t, err, "maximum value is 1440")

	err = s.Update(ctx, repo.KeySuperwatchScreenshotIv, "0", 1)
	require.True(t, repo.IsValidation(err))
	require.EqualError(t, err, "minimum value is 1")

	err = s.Update(ctx, repo.KeySuperwatchScreenshotIv, "abc", 1)
	require.True(t, repo.IsValidation(err))

	// значение в границах проходит и читается обратно
	require.NoError(t, s.Update(ctx, repo.KeySuperwatchScreenshotIv, "10", 1))
	require.Equal(t, 10, s.GetInt(ctx, repo.KeySuperwatchScreenshotIv, 0))
}

func TestSettings_UpdateBooleanLiteral(t *testing.T) {
	s := newSettings(t)
	ctx := context.Background()

	err := s.Update(ctx, repo.KeyHeuristicEnabled, "yes", 1)
	require.True(t, repo.IsValidation(err))
	require.EqualError(t, err, "value must be true or false")

	require.NoError(t, s.Update(ctx, repo.KeyHeuristicEnabled, "false", 1))
	require.False(t, s.GetBool(ctx, repo.KeyHeuristicEnabled, true))
}

func TestSettings_UpdateWritesAudit(t *testing.T) {
	db := testDB(t)
	s := repo.NewSettingsStore(db)
	ctx := context.Background()
	require.NoError(t, s.SeedDefaults(ctx))

	require.NoError(t, s.Update(ctx, repo.KeyRestartTrigger, "7", 42))

	var audits []models.SettingAudit
	require.NoError(t, db.Find(&audits).Error)
	require.Len(t, audits, 1)
	require.Equal(t, repo.KeyRestartTrigger, audits[0].SettingKey)
	require.Equal(t, "5", audits[0].OldValue)
	require.Equal(t, "7", audits[0].NewValue)
	require.Equal(t, uint(42), audits[0].ChangedBy)
}

func TestSettings_UpdateInvalidatesCache(t *testing.T) {
	s := newSettings(t)
	ctx := context.Background()

	// прогреваем кэш, затем меняем значение
	require.Equal(t, 5, s.GetInt(ctx, repo.KeyRestartTrigger, 0))
	require.NoError(t, s.Update(ctx, repo.KeyRestartTrigger, "9", 1))
	require.Equal(t, 9, s.GetInt(ctx, repo.KeyRestartTrigger, 0))
}

func TestSettings_SeedIsIdempotent(t *testing.T) {
	db := testDB(t)
	s := repo.NewSettingsStore(db)
	ctx := context.Background()

	require.NoError(t, s.SeedDefaults(ctx))
	require.NoError(t, s.Update(ctx, repo.KeyRestartTrigger, "8", 1))

	// повторный сид не затирает изменённое значение
	require.NoError(t, s.SeedDefaults(ctx))
	var st models.Setting
	require.NoError(t, db.Where("key = ?", repo.KeyRestartTrigger).First(&st).Error)
	require.Equal(t, "8", st.Value)
}

func TestSettings_ListGrouped(t *testing.T) {
	s := newSettings(t)

	grouped, err := s.ListGrouped(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, grouped, "heuristics")
	require.Contains(t, grouped, "cadence")
	require.Contains(t, grouped, "monitoring")

	only, err := s.ListGrouped(context.Background(), "cadence")
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Len(t, only["cadence"], 3)
}
