package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

// EvaluateAndNotify runs the alerting half of the pipeline for one live
// reading: load the device config, evaluate, and persist one notification
// per violated parameter, debounced by the device's alert interval.
// Classification upstream guarantees this is called at most once per
// genuinely new reading.
func (m *Monitor) evaluateAndNotify(deviceID string, reading *models.Reading) error {
	var device models.Device
	if err := m.Db.Conn.First(&device, "device_id = ?", deviceID).Error; err != nil {
		// no device config, then nothing can violate
		return nil
	}

	logger := common.GetLoggerWith(
		common.LoggerNameMonitorCore,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryAlert),
	)

	violations := Evaluate(reading, &device)
	for _, v := range violations {
		if device.AlertInterval > 0 {
			interval := time.Duration(device.AlertInterval) * time.Second
			if !m.AlertLimiters.Allow(deviceID, v.Parameter, interval) {
				logger.Info("Notification suppressed by alert interval",
					zap.String("device_id", deviceID),
					zap.String("parameter", string(v.Parameter)))
				continue
			}
		}

		notification := buildNotification(&device, v)

		logger.Info("Violation found", zap.Reflect("notification", notification))

		if err := m.Db.Conn.Create(&notification).Error; err != nil {
			return err
		}
		m.Store.NotifyUser(device.UserID)

		logger.Info("Notification saved", zap.Reflect("notification", notification))
	}

	return nil
}

// buildNotification is the single formatting authority for notification
// records. Timestamp is detection time, deliberately not the reading's
// own timestamp, so "unread since" reflects when the alert was raised.
func buildNotification(device *models.Device, v Violation) models.Notification {
	return models.Notification{
		ID:           uuid.NewString(),
		UserID:       device.UserID,
		DeviceID:     device.DeviceID,
		DeviceName:   device.Name,
		Parameter:    v.Parameter,
		Value:        v.Value,
		Threshold:    formatThreshold(v),
		Range:        formatRange(device, v.Parameter),
		Timestamp:    time.Now().UnixMilli(),
		Read:         false,
		SMSRequested: device.SendSMS && device.Phone != "",
	}
}

func formatThreshold(v Violation) string {
	var boundName string
	switch v.Direction {
	case DirectionBelow:
		boundName = "minimum"
	default:
		boundName = "maximum"
	}
	switch v.Parameter {
	case models.ParameterPH:
		return fmt.Sprintf("pH %s %s %.1f", v.Direction, boundName, v.Bound)
	case models.ParameterTemperature:
		return fmt.Sprintf("Temperature %s %s %.1f °C", v.Direction, boundName, v.Bound)
	default:
		return fmt.Sprintf("Ammonia %s %s %.2f ppm", v.Direction, boundName, v.Bound)
	}
}

func formatRange(device *models.Device, parameter models.Parameter) string {
	switch parameter {
	case models.ParameterPH:
		return fmt.Sprintf("%.1f - %.1f", device.PhMin, device.PhMax)
	case models.ParameterTemperature:
		return fmt.Sprintf("%.1f - %.1f °C", device.TempMin, device.TempMax)
	default:
		// one-sided bound
		return fmt.Sprintf("< %.2f ppm", device.AmmoniaMax)
	}
}
