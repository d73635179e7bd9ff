package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyAquaDBType string = "AQUA_DB_TYPE"
	EnvKeyAquaDbPath string = "AQUA_DB_PATH"

	EnvKeyAquaHttpHostPort string = "AQUA_HTTP_HOST_PORT"

	EnvKeyAquaDefaultRate  string = "AQUA_DEFAULT_RATE"
	EnvKeyAquaDefaultBurst string = "AQUA_DEFAULT_BURST"

	EnvKeyAquaRecencyWindowSeconds string = "AQUA_RECENCY_WINDOW_SECONDS"

	LoggerNameMonitorCore   string = "monitor_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameStore         string = "store"

	LoggerFieldCategory string = "category"

	LoggerCategoryDevice       string = "device"
	LoggerCategoryPipeline     string = "pipeline"
	LoggerCategoryAlert        string = "alert"
	LoggerCategoryNotification string = "notification"
	LoggerCategoryQuery        string = "query"
)
