package monitor

import (
	"fmt"
	"strings"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

// readingHistory returns a device's readings ascending by timestamp,
// optionally restricted to an inclusive [from, to] range. Read-only; no
// alerting side effects.
func (m *Monitor) readingHistory(deviceID string, from int64, to int64) ([]models.Reading, error) {
	q := m.Db.Conn.Where("device_id = ?", deviceID)
	if from > 0 {
		q = q.Where("timestamp >= ?", from)
	}
	if to > 0 {
		q = q.Where("timestamp <= ?", to)
	}

	var readings []models.Reading
	err := q.Order("timestamp asc").Find(&readings).Error
	return readings, err
}

func (m *Monitor) latestReading(deviceID string) (*models.Reading, error) {
	readings, err := m.Store.LastN(deviceID, 1)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

// notifications returns the user's notifications descending by timestamp.
// The time range is pushed into the query; the free-text match runs over
// the fetched rows because it spans denormalized fields. Re-running with
// new filter values is always safe: nothing here mutates read state.
func (m *Monitor) notifications(userID string, filter models.NotificationFilter) ([]models.Notification, error) {
	q := m.Db.Conn.Where("user_id = ?", userID)
	if filter.From > 0 {
		q = q.Where("timestamp >= ?", filter.From)
	}
	if filter.To > 0 {
		q = q.Where("timestamp <= ?", filter.To)
	}

	var rows []models.Notification
	if err := q.Order("timestamp desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	if filter.Query != "" {
		needle := strings.ToLower(filter.Query)
		haystacks := common.Mapper(rows, func(n models.Notification) string {
			return strings.ToLower(fmt.Sprintf(
				"%s %s %s %v", n.DeviceName, n.DeviceID, n.Parameter, n.Value))
		})
		matched := rows[:0]
		for i, n := range rows {
			if strings.Contains(haystacks[i], needle) {
				matched = append(matched, n)
			}
		}
		rows = matched
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			return []models.Notification{}, nil
		}
		rows = rows[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}
