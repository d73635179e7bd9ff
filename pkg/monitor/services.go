package monitor

import "aquawatch.xyz/aqua-monitor-service/pkg/models"

type IDeviceImpl struct {
	mon *Monitor
}

func (id *IDeviceImpl) AddDevice(userID string, input *models.Device) error {
	return id.mon.addDevice(userID, input)
}

func (id *IDeviceImpl) GetDevices(userID string) ([]models.Device, error) {
	return id.mon.getDevices(userID)
}

func (id *IDeviceImpl) GetDevice(userID string, deviceID string) (*models.Device, error) {
	return id.mon.getDevice(userID, deviceID)
}

func (id *IDeviceImpl) UpdateDevice(userID string, input *models.Device) error {
	return id.mon.updateDevice(userID, input)
}

func (id *IDeviceImpl) DeleteDevice(userID string, deviceID string) error {
	return id.mon.deleteDevice(userID, deviceID)
}

func (m *Monitor) GetIDevice() IDevice {
	return &IDeviceImpl{mon: m}
}

type IReadingImpl struct {
	mon *Monitor
}

func (ir *IReadingImpl) IngestReading(deviceID string, input *models.Reading) error {
	return ir.mon.ingestReading(deviceID, input)
}

func (ir *IReadingImpl) ReadingHistory(deviceID string, from int64, to int64) ([]models.Reading, error) {
	return ir.mon.readingHistory(deviceID, from, to)
}

func (ir *IReadingImpl) LatestReading(deviceID string) (*models.Reading, error) {
	return ir.mon.latestReading(deviceID)
}

func (m *Monitor) GetIReading() IReading {
	return &IReadingImpl{mon: m}
}

type INotificationImpl struct {
	mon *Monitor
}

func (in *INotificationImpl) EvaluateAndNotify(deviceID string, reading *models.Reading) error {
	return in.mon.evaluateAndNotify(deviceID, reading)
}

func (in *INotificationImpl) Notifications(userID string, filter models.NotificationFilter) ([]models.Notification, error) {
	return in.mon.notifications(userID, filter)
}

func (in *INotificationImpl) UnreadCount(userID string) (int64, error) {
	return in.mon.unreadCount(userID)
}

func (in *INotificationImpl) MarkAllRead(userID string) (int64, error) {
	return in.mon.markAllRead(userID)
}

func (m *Monitor) GetINotification() INotification {
	return &INotificationImpl{mon: m}
}
