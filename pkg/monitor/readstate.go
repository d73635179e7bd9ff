package monitor

import (
	"go.uber.org/zap"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

// markAllRead flips every unread notification belonging to the user to
// read. Only unread rows are touched, so a retry after a partial failure
// is safe and a second consecutive call writes nothing. Returns the
// number of rows updated.
func (m *Monitor) markAllRead(userID string) (int64, error) {
	res := m.Db.Conn.
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		m.Store.NotifyUser(userID)
		common.GetLoggerWith(
			common.LoggerNameMonitorCore,
			zap.String(common.LoggerFieldCategory, common.LoggerCategoryNotification),
		).Info("Marked notifications read",
			zap.String("user_id", userID), zap.Int64("count", res.RowsAffected))
	}

	return res.RowsAffected, nil
}

func (m *Monitor) unreadCount(userID string) (int64, error) {
	var count int64
	err := m.Db.Conn.
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
