package monitor

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

func (m *Monitor) deviceLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameMonitorCore,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryDevice),
	)
}

// addDevice creates a device and seeds its reading log with a midpoint
// sample so dashboards have something to render before the sensor first
// reports. Device ids are hardware identifiers and must be unique.
func (m *Monitor) addDevice(userID string, input *models.Device) error {
	var existing models.Device
	err := m.Db.Conn.First(&existing, "device_id = ?", input.DeviceID).Error
	if err == nil {
		return ErrDeviceExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	input.UserID = userID
	if err := m.Db.Conn.Create(input).Error; err != nil {
		return err
	}

	m.deviceLogger().Info("Device added", zap.Reflect("device", input))

	seed := &models.Reading{
		Ph:          (input.PhMin + input.PhMax) / 2,
		Temperature: (input.TempMin + input.TempMax) / 2,
		Ammonia:     input.AmmoniaMax / 2,
		Timestamp:   time.Now().UnixMilli(),
	}
	return m.Store.AppendReading(input.DeviceID, seed)
}

func (m *Monitor) getDevices(userID string) ([]models.Device, error) {
	var devices []models.Device
	err := m.Db.Conn.
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&devices).Error
	return devices, err
}

func (m *Monitor) getDevice(userID string, deviceID string) (*models.Device, error) {
	var device models.Device
	err := m.Db.Conn.First(&device, "device_id = ? AND user_id = ?", deviceID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// updateDevice edits a device's configuration. The device id is
// immutable; ownership cannot move between users.
func (m *Monitor) updateDevice(userID string, input *models.Device) error {
	existing, err := m.getDevice(userID, input.DeviceID)
	if err != nil {
		return err
	}

	input.UserID = existing.UserID
	if err := m.Db.Conn.Save(input).Error; err != nil {
		return err
	}

	m.deviceLogger().Info("Device updated", zap.Reflect("device", input))
	return nil
}

// deleteDevice removes the device and cascades to its reading log and its
// notifications in one transaction, then tears down any live subscription
// and alert-limiter state.
func (m *Monitor) deleteDevice(userID string, deviceID string) error {
	if _, err := m.getDevice(userID, deviceID); err != nil {
		return err
	}

	err := m.Db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", deviceID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id = ?", deviceID).Delete(&models.Reading{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Device{}, "device_id = ?", deviceID).Error
	})
	if err != nil {
		return err
	}

	m.Subscriptions.DropDevice(deviceID)
	m.AlertLimiters.Forget(deviceID)

	m.deviceLogger().Info("Device deleted",
		zap.String("user_id", userID), zap.String("device_id", deviceID))
	return nil
}

// ingestReading appends one sensor sample to the device's log. Evaluation
// is not triggered here: it is driven by the shared device subscription,
// which classifies the append as live and runs the pipeline once.
func (m *Monitor) ingestReading(deviceID string, input *models.Reading) error {
	var device models.Device
	if err := m.Db.Conn.First(&device, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}

	if input.Timestamp == 0 {
		input.Timestamp = time.Now().UnixMilli()
	}
	return m.Store.AppendReading(deviceID, input)
}
