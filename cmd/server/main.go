package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aquawatch.xyz/aqua-monitor-service/pkg/common"
	"aquawatch.xyz/aqua-monitor-service/pkg/db"
	aquaHttp "aquawatch.xyz/aqua-monitor-service/pkg/http"
	"aquawatch.xyz/aqua-monitor-service/pkg/monitor"
)

func main() {
	var err error

	err = godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	var dbInstance *db.DB
	aquaDbType := os.Getenv(common.EnvKeyAquaDBType)
	switch aquaDbType {
	case "file":
		dbInstance = db.GetInstance(db.UseSqliteDialector())
	case "memory":
		dbInstance = db.GetInstance(db.UseMemorySqliteDialector())
	default:
		log.Fatal("Unknown AQUA_DB_TYPE: " + aquaDbType)
	}

	httpHostPort := strings.TrimSpace(os.Getenv(common.EnvKeyAquaHttpHostPort))

	var defaultRate float64
	var defaultBurst int64

	if defaultRate, err = strconv.ParseFloat(os.Getenv(common.EnvKeyAquaDefaultRate), 64); err != nil {
		log.Fatal("Invalid AQUA_DEFAULT_RATE, or not set in .env, should be a float64 value")
	}

	if defaultBurst, err = strconv.ParseInt(os.Getenv(common.EnvKeyAquaDefaultBurst), 10, 64); err != nil {
		log.Fatal("Invalid AQUA_DEFAULT_BURST, or not set in .env, should be an int value")
	}

	logger := common.GetLogger()

	mon := monitor.New(dbInstance)
	mon.WithServices(monitor.ServiceOpts{
		Device:       mon.GetIDevice(),
		Reading:      mon.GetIReading(),
		Notification: mon.GetINotification(),
	})

	if raw := strings.TrimSpace(os.Getenv(common.EnvKeyAquaRecencyWindowSeconds)); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			log.Fatal("Invalid AQUA_RECENCY_WINDOW_SECONDS, should be a positive int value")
		}
		mon.Subscriptions.RecencyWindow = time.Duration(seconds) * time.Second
	}

	if httpHostPort == "" {
		// fallback to default http port
		httpHostPort = ":1080"
	}

	logger.Info("Starting HTTP server on port " + httpHostPort)
	rs := &aquaHttp.RestfulServer{
		Server:           gin.Default(),
		Mon:              mon,
		RateLimiterStore: monitor.NewRateLimiterStore(rate.Limit(defaultRate), int(defaultBurst)),
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", defaultRate, defaultBurst)))

	logger.Info("Starting HTTP server on: " + httpHostPort)
	if err := rs.Server.Run(httpHostPort); err != nil {
		log.Fatalf("http server failed to serve: %v", err)
	}
}
