package monitor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
	_ "aquawatch.xyz/aqua-monitor-service/pkg/testing"
)

func seedNotification(t *testing.T, mon *Monitor, userID, deviceID string, read bool) models.Notification {
	t.Helper()
	n := models.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: "Pond A",
		Parameter:  models.ParameterPH,
		Value:      9.5,
		Threshold:  "pH above maximum 8.0",
		Range:      "6.5 - 8.0",
		Timestamp:  time.Now().UnixMilli(),
		Read:       read,
	}
	require.NoError(t, mon.Db.Conn.Create(&n).Error)
	return n
}

func TestMarkAllRead(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, mon, _, _, _ := GetMockMonitorWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	otherUser := uuid.NewString()
	deviceID := uuid.NewString()
	seedDevice(t, mon, testDevice(deviceID))

	seedNotification(t, mon, userID, deviceID, false)
	seedNotification(t, mon, userID, deviceID, false)
	alreadyRead := seedNotification(t, mon, userID, deviceID, true)
	foreign := seedNotification(t, mon, otherUser, deviceID, false)

	count, err := mon.Notification.MarkAllRead(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "only unread rows are touched")

	unread, err := mon.Notification.UnreadCount(userID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Untouched: the row that was already read, and the other user's.
	var reloaded models.Notification
	require.NoError(t, mon.Db.Conn.First(&reloaded, "id = ?", alreadyRead.ID).Error)
	assert.True(t, reloaded.Read)
	var reloadedForeign models.Notification
	require.NoError(t, mon.Db.Conn.First(&reloadedForeign, "id = ?", foreign.ID).Error)
	assert.False(t, reloadedForeign.Read)
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, mon, _, _, _ := GetMockMonitorWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	deviceID := uuid.NewString()
	seedDevice(t, mon, testDevice(deviceID))
	seedNotification(t, mon, userID, deviceID, false)

	count, err := mon.Notification.MarkAllRead(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = mon.Notification.MarkAllRead(userID)
	require.NoError(t, err)
	assert.Zero(t, count, "second call with nothing unread writes nothing")
}
