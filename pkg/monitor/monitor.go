package monitor

import (
	"errors"

	"go.uber.org/zap"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/db"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
	"aquawatch.xyz/aqua-monitor-service/pkg/store"
)

var (
	ErrDeviceExists   = errors.New("device already exists")
	ErrDeviceNotFound = errors.New("device not found")
)

type IDevice interface {
	AddDevice(userID string, input *models.Device) error
	GetDevices(userID string) ([]models.Device, error)
	GetDevice(userID string, deviceID string) (*models.Device, error)
	UpdateDevice(userID string, input *models.Device) error
	DeleteDevice(userID string, deviceID string) error
}

type IReading interface {
	IngestReading(deviceID string, input *models.Reading) error
	ReadingHistory(deviceID string, from int64, to int64) ([]models.Reading, error)
	LatestReading(deviceID string) (*models.Reading, error)
}

type INotification interface {
	EvaluateAndNotify(deviceID string, reading *models.Reading) error
	Notifications(userID string, filter models.NotificationFilter) ([]models.Notification, error)
	UnreadCount(userID string) (int64, error)
	MarkAllRead(userID string) (int64, error)
}

type Monitor struct {
	Db            db.DB
	Store         *store.Store
	Subscriptions *SubscriptionManager
	AlertLimiters *AlertLimiterStore

	Device       IDevice
	Reading      IReading
	Notification INotification
}

type ServiceOpts struct {
	Device       IDevice
	Reading      IReading
	Notification INotification
}

// New wires the store-backed pipeline: live readings classified by the
// subscription manager flow into whatever INotification is installed at
// delivery time, so mocked services are honored.
func New(database *db.DB) *Monitor {
	m := &Monitor{
		Db:            *database,
		Store:         store.New(database),
		AlertLimiters: NewAlertLimiterStore(),
	}
	m.Subscriptions = NewSubscriptionManager(m.Store, func(deviceID string, reading models.Reading) {
		if m.Notification == nil {
			return
		}
		if err := m.Notification.EvaluateAndNotify(deviceID, &reading); err != nil {
			// Emission failures must never break the display path.
			common.GetLoggerWith(
				common.LoggerNameMonitorCore,
				zap.String(common.LoggerFieldCategory, common.LoggerCategoryPipeline),
			).Error("Evaluation failed for live reading",
				zap.String("device_id", deviceID), zap.Error(err))
		}
	})
	return m
}

func (m *Monitor) WithServices(opts ServiceOpts) *Monitor {
	if opts.Device != nil {
		m.Device = opts.Device
	}
	if opts.Reading != nil {
		m.Reading = opts.Reading
	}
	if opts.Notification != nil {
		m.Notification = opts.Notification
	}
	return m
}
