package repo_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rentwatch/internal/models"
)

// testDB — именованная in-memory база на тест, иначе соединения пула
// видят разные базы.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Device{},
		&models.StatsSample{},
		&models.DeviceEvent{},
		&models.Screenshot{},
		&models.Setting{},
		&models.SettingAudit{},
		&models.User{},
	))
	return db
}

func seedDevice(t *testing.T, db *gorm.DB, serial, mode string) *models.Device {
	t.Helper()
	d := &models.Device{
		SerialNumber: serial,
		Status:       models.DeviceStatusDeployed,
		TrackingMode: mode,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}
