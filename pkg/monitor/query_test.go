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

func TestReadingHistory_OrderedAndRangeFiltered(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, mon, _, _, _ := GetMockMonitorWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	deviceID := uuid.NewString()
	seedDevice(t, mon, testDevice(deviceID))

	base := time.Now().UnixMilli() - 100_000
	// Insert out of order; history must come back ascending.
	for _, offset := range []int64{3000, 1000, 5000, 2000, 4000} {
		require.NoError(t, mon.Store.AppendReading(deviceID, inRangeReading(base+offset)))
	}

	history, err := mon.Reading.ReadingHistory(deviceID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := 1; i < len(history); i++ {
		assert.Less(t, history[i-1].Timestamp, history[i].Timestamp)
	}

	// Inclusive [from, to] bounds.
	ranged, err := mon.Reading.ReadingHistory(deviceID, base+2000, base+4000)
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, base+2000, ranged[0].Timestamp)
	assert.Equal(t, base+4000, ranged[2].Timestamp)
}

func TestLatestReading(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, mon, _, _, _ := GetMockMonitorWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	deviceID := uuid.NewString()
	seedDevice(t, mon, testDevice(deviceID))

	latest, err := mon.Reading.LatestReading(deviceID)
	require.NoError(t, err)
	assert.Nil(t, latest, "empty log has no latest reading")

	base := time.Now().UnixMilli() - 10_000
	for _, offset := range []int64{1000, 3000, 2000} {
		require.NoError(t, mon.Store.AppendReading(deviceID, inRangeReading(base+offset)))
	}

	latest, err = mon.Reading.LatestReading(deviceID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, base+3000, latest.Timestamp)
}

func TestNotifications_FilteredView(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, mon, _, _, _ := GetMockMonitorWithMemorySqliteDialector(t, false, false, false)
	defer ctrl.Finish()

	userID := uuid.NewString()
	deviceID := uuid.NewString()
	seedDevice(t, mon, testDevice(deviceID))

	base := time.Now().UnixMilli() - 100_000
	mk := func(parameter models.Parameter, name string, ts int64) {
		n := models.Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			DeviceID:   deviceID,
			DeviceName: name,
			Parameter:  parameter,
			Value:      1.0,
			Threshold:  "x",
			Range:      "y",
			Timestamp:  ts,
		}
		require.NoError(t, mon.Db.Conn.Create(&n).Error)
	}
	mk(models.ParameterPH, "North Pond", base+1000)
	mk(models.ParameterAmmonia, "North Pond", base+2000)
	mk(models.ParameterTemperature, "South Pond", base+3000)

	// Descending by timestamp, no filter.
	all, err := mon.Notification.Notifications(userID, models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, base+3000, all[0].Timestamp)
	assert.Equal(t, base+1000, all[2].Timestamp)

	// Case-insensitive free-text across device name and parameter.
	north, err := mon.Notification.Notifications(userID, models.NotificationFilter{Query: "north"})
	require.NoError(t, err)
	assert.Len(t, north, 2)

	ammonia, err := mon.Notification.Notifications(userID, models.NotificationFilter{Query: "AMMONIA"})
	require.NoError(t, err)
	require.Len(t, ammonia, 1)
	assert.Equal(t, models.ParameterAmmonia, ammonia[0].Parameter)

	// Inclusive time range.
	ranged, err := mon.Notification.Notifications(userID, models.NotificationFilter{From: base + 2000, To: base + 3000})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	// Pagination after filtering.
	page, err := mon.Notification.Notifications(userID, models.NotificationFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, base+2000, page[0].Timestamp)

	// Restartable: re-running with fresh filter values sees the same
	// data and flips no read state.
	again, err := mon.Notification.Notifications(userID, models.NotificationFilter{})
	require.NoError(t, err)
	assert.Len(t, again, 3)
	unread, err := mon.Notification.UnreadCount(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)
}
