package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

func TestEventStore_ListUnresolvedJoinsDevice(t *testing.T) {
	db := testDB(t)
	s := repo.NewEventStore(db)
	dev := seedDevice(t, db, "SN-E1", models.TrackingSuperwatch)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, []models.DeviceEvent{
		{DeviceID: dev.ID, EventType: models.EventMACChange, Severity: models.SeverityCritical},
		{DeviceID: dev.ID, EventType: models.EventIPChange, Severity: models.SeverityWarning},
	}))

	rows, err := s.ListUnresolved(ctx, repo.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "SN-E1", rows[0].SerialNumber)
	require.Equal(t, models.TrackingSuperwatch, rows[0].TrackingMode)

	crit, err := s.ListUnresolved(ctx, repo.AlertFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, crit, 1)
	require.Equal(t, models.EventMACChange, crit[0].EventType)
}

func TestEventStore_ResolveOnce(t *testing.T) {
	db := testDB(t)
	s := repo.NewEventStore(db)
	dev := seedDevice(t, db, "SN-E2", models.TrackingNormal)
	ctx := context.Background()

	ev := &models.DeviceEvent{DeviceID: dev.ID, EventType: models.EventRestart, Severity: models.SeverityWarning}
	require.NoError(t, s.Create(ctx, ev))

	require.NoError(t, s.Resolve(ctx, ev.ID, 7, "false alarm"))

	var got models.DeviceEvent
	require.NoError(t, db.First(&got, ev.ID).Error)
	require.True(t, got.IsResolved)
	require.Equal(t, uint(7), *got.ResolvedBy)
	require.NotNil(t, got.ResolvedAt)
	require.Equal(t, "false alarm", got.ResolveNote)

	// повторная резолюция уже закрытого — не ошибка и не перезапись
	require.NoError(t, s.Resolve(ctx, ev.ID, 9, "again"))
	require.NoError(t, db.First(&got, ev.ID).Error)
	require.Equal(t, uint(7), *got.ResolvedBy)
}

func TestEventStore_ResolveUnknownID(t *testing.T) {
	db := testDB(t)
	s := repo.NewEventStore(db)
	err := s.Resolve(context.Background(), 12345, 1, "")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestEventStore_HistoryByDevice(t *testing.T) {
	db := testDB(t)
	s := repo.NewEventStore(db)
	dev := seedDevice(t, db, "SN-E3", models.TrackingNormal)
	other := seedDevice(t, db, "SN-E4", models.TrackingNormal)
	ctx := context.Background()

	require.NoError(t, s.CreateBatch(ctx, []models.DeviceEvent{
		{DeviceID: dev.ID, EventType: models.EventRestart, Severity: models.SeverityWarning},
		{DeviceID: dev.ID, EventType: models.EventUserChange, Severity: models.SeverityCritical},
		{DeviceID: other.ID, EventType: models.EventIPChange, Severity: models.SeverityWarning},
	}))
	var restart models.DeviceEvent
	require.NoError(t, db.Where("event_type = ?", models.EventRestart).First(&restart).Error)
	require.NoError(t, s.Resolve(ctx, restart.ID, 1, ""))

	all, err := s.HistoryByDevice(ctx, dev.ID, 50, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	open, err := s.HistoryByDevice(ctx, dev.ID, 50, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, models.EventUserChange, open[0].EventType)
}
