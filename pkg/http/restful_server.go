package http

import (
	"aquawatch.xyz/aqua-monitor-service/pkg/monitor"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RestfulServer struct {
	Server           *gin.Engine
	Mon              *monitor.Monitor
	RateLimiterStore *monitor.RateLimiterStore
}

func (rs *RestfulServer) GetLimiter(deviceID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(deviceID)
	}
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	limiter := rs.GetLimiter(deviceID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	users := rs.Server.Group("/users/:user_id")
	{
		users.POST("/devices", rs.AddDevice)
		users.GET("/devices", rs.ListDevices)
		users.PUT("/devices/:device_id", rs.UpdateDevice)
		users.DELETE("/devices/:device_id", rs.DeleteDevice)

		users.GET("/notifications", rs.ListNotifications)
		users.GET("/notifications/unread-count", rs.UnreadCount)
		users.POST("/notifications/read-all", rs.MarkAllRead)
	}

	devices := rs.Server.Group("/devices/:device_id")
	{
		devices.POST("/readings", rs.PostReading)
		devices.GET("/readings", rs.ReadingHistory)
		devices.GET("/readings/latest", rs.LatestReading)
		devices.GET("/stream", rs.StreamReadings)
		devices.POST("/limiter", rs.PostLimiter)
	}
}
