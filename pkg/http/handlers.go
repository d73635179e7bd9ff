package http

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"aquawatch.xyz/aqua-monitor-service/pkg/models"
	"aquawatch.xyz/aqua-monitor-service/pkg/monitor"

	"github.com/gin-gonic/gin"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

type DeviceRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PhMin         float64 `json:"phMin"`
	PhMax         float64 `json:"phMax"`
	TempMin       float64 `json:"tempMin"`
	TempMax       float64 `json:"tempMax"`
	AmmoniaMax    float64 `json:"ammoniaMax"`
	Phone         string  `json:"phone"`
	SendSMS       bool    `json:"sendSms"`
	AlertInterval int     `json:"alertInterval"`
}

var deviceRequestSchema = z.Struct(z.Shape{
	"ID":            z.String().Required(),
	"Name":          z.String().Required(),
	"PhMin":         z.Float64().Required(),
	"PhMax":         z.Float64().Required(),
	"TempMin":       z.Float64().Required(),
	"TempMax":       z.Float64().Required(),
	"AmmoniaMax":    z.Float64(),
	"Phone":         z.String(),
	"SendSMS":       z.Bool(),
	"AlertInterval": z.Int(),
})

var phonePattern = regexp.MustCompile(`^09[0-9]{9}$`)

// validateDeviceRequest covers the cross-field invariants the schema
// cannot express.
func validateDeviceRequest(req *DeviceRequest) string {
	if req.PhMin < 0 || req.PhMax > 14 {
		return "ph bounds must stay within 0-14"
	}
	if req.PhMin >= req.PhMax {
		return "phMin must be less than phMax"
	}
	if req.TempMin >= req.TempMax {
		return "tempMin must be less than tempMax"
	}
	if req.AmmoniaMax < 0 {
		return "ammoniaMax must not be negative"
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return "phone must be 11 digits starting with 09"
	}
	if req.AlertInterval < 0 {
		return "alertInterval must not be negative"
	}
	return ""
}

func (req *DeviceRequest) toModel(deviceID string) *models.Device {
	return &models.Device{
		DeviceID:      deviceID,
		Name:          req.Name,
		PhMin:         req.PhMin,
		PhMax:         req.PhMax,
		TempMin:       req.TempMin,
		TempMax:       req.TempMax,
		AmmoniaMax:    req.AmmoniaMax,
		Phone:         req.Phone,
		SendSMS:       req.SendSMS,
		AlertInterval: int64(req.AlertInterval),
	}
}

func (rs *RestfulServer) AddDevice(c *gin.Context) {
	userID := c.Param("user_id")

	var req DeviceRequest
	if err := deviceRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	if msg := validateDeviceRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := rs.Mon.Device.AddDevice(userID, req.toModel(req.ID)); err != nil {
		if errors.Is(err, monitor.ErrDeviceExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

func (rs *RestfulServer) ListDevices(c *gin.Context) {
	devices, err := rs.Mon.Device.GetDevices(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, devices)
}

func (rs *RestfulServer) UpdateDevice(c *gin.Context) {
	userID := c.Param("user_id")
	deviceID := c.Param("device_id")

	var req DeviceRequest
	if err := deviceRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	if msg := validateDeviceRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	// The path wins over the body: device ids are immutable.
	if err := rs.Mon.Device.UpdateDevice(userID, req.toModel(deviceID)); err != nil {
		if errors.Is(err, monitor.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) DeleteDevice(c *gin.Context) {
	userID := c.Param("user_id")
	deviceID := c.Param("device_id")

	if err := rs.Mon.Device.DeleteDevice(userID, deviceID); err != nil {
		if errors.Is(err, monitor.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

type ReadingRequest struct {
	Ph          float64 `json:"ph"`
	Temperature float64 `json:"temperature"`
	Ammonia     float64 `json:"ammonia"`
	Timestamp   int     `json:"timestamp"` // epoch milliseconds, zero means now
}

var readingRequestSchema = z.Struct(z.Shape{
	"Ph":          z.Float64().Required(),
	"Temperature": z.Float64().Required(),
	"Ammonia":     z.Float64().Required(),
	"Timestamp":   z.Int(),
})

func (rs *RestfulServer) PostReading(c *gin.Context) {
	deviceID := c.Param("device_id")

	if !rs.CheckDeviceLimiter(deviceID) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	var req ReadingRequest
	if err := readingRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	err := rs.Mon.Reading.IngestReading(deviceID, &models.Reading{
		Ph:          req.Ph,
		Temperature: req.Temperature,
		Ammonia:     req.Ammonia,
		Timestamp:   int64(req.Timestamp),
	})
	if err != nil {
		if errors.Is(err, monitor.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

func queryInt64(c *gin.Context, key string) int64 {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (rs *RestfulServer) ReadingHistory(c *gin.Context) {
	deviceID := c.Param("device_id")

	history, err := rs.Mon.Reading.ReadingHistory(deviceID, queryInt64(c, "from"), queryInt64(c, "to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, history)
}

func (rs *RestfulServer) LatestReading(c *gin.Context) {
	latest, err := rs.Mon.Reading.LatestReading(c.Param("device_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if latest == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, latest)
}

// StreamReadings exposes a device's feed as server-sent events. The
// subscription is shared with every other watcher of the device; a slow
// client drops events rather than stalling delivery.
func (rs *RestfulServer) StreamReadings(c *gin.Context) {
	deviceID := c.Param("device_id")

	updates := make(chan models.Reading, 16)
	cancel, err := rs.Mon.Subscriptions.Subscribe(deviceID, func(r models.Reading) {
		select {
		case updates <- r:
		default:
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case r := <-updates:
			c.SSEvent("reading", r)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (rs *RestfulServer) ListNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	filter := models.NotificationFilter{
		Query:  c.Query("q"),
		From:   queryInt64(c, "from"),
		To:     queryInt64(c, "to"),
		Limit:  int(queryInt64(c, "limit")),
		Offset: int(queryInt64(c, "offset")),
	}

	notifications, err := rs.Mon.Notification.Notifications(userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (rs *RestfulServer) UnreadCount(c *gin.Context) {
	count, err := rs.Mon.Notification.UnreadCount(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (rs *RestfulServer) MarkAllRead(c *gin.Context) {
	updated, err := rs.Mon.Notification.MarkAllRead(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"Rate":  z.Float64().Required(),
	"Burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(deviceID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
