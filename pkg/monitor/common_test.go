package monitor

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"

	"go.uber.org/mock/gomock"
	"aquawatch.xyz/aqua-monitor-service/pkg/db"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
	"aquawatch.xyz/aqua-monitor-service/pkg/monitor/mocks"
)

func GetMockMonitorWithMemorySqliteDialector(t *testing.T, useMockDevice, useMockReading, useMockNotification bool) (
	*gomock.Controller,
	*Monitor,
	*mocks.MockIDevice,
	*mocks.MockIReading,
	*mocks.MockINotification,
) {
	ctrl := gomock.NewController(t)

	mockIDevice := mocks.NewMockIDevice(ctrl)
	mockIReading := mocks.NewMockIReading(ctrl)
	mockINotification := mocks.NewMockINotification(ctrl)

	dialector := db.UseMemorySqliteDialector()
	dbInstance := db.GetInstance(dialector) // ensure migrations
	mon := New(dbInstance)

	deviceService := mon.GetIDevice()
	if useMockDevice {
		deviceService = mockIDevice
	}

	readingService := mon.GetIReading()
	if useMockReading {
		readingService = mockIReading
	}

	notificationService := mon.GetINotification()
	if useMockNotification {
		notificationService = mockINotification
	}

	mon.WithServices(ServiceOpts{
		Device:       deviceService,
		Reading:      readingService,
		Notification: notificationService,
	})

	return ctrl, mon, mockIDevice, mockIReading, mockINotification
}

// seedDevice inserts a device row directly, bypassing the seed reading
// that AddDevice writes, so tests control the reading log exactly.
func seedDevice(t *testing.T, mon *Monitor, device *models.Device) {
	t.Helper()
	if err := mon.Db.Conn.Create(device).Error; err != nil {
		t.Fatalf("failed to seed device: %v", err)
	}
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
