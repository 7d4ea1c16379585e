package core

type Conf struct {
	Version                     string `long:"version" description:"version of engine server" env:"QONDUIT_ENGINE_VERSION"`
	DevMode                     bool   `long:"dev-mode" description:"run in dev mode" env:"QONDUIT_ENGINE_DEV_MODE"`
	DisableStdoutLog            bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QONDUIT_ENGINE_DISABLE_STDOUT_LOG"`
	EnableFileLog               bool   `long:"enable-file-log" description:"enable log in file" env:"QONDUIT_ENGINE_ENABLE_FILE_LOG"`
	LogDir                      string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QONDUIT_ENGINE_LOG_DIR"`
	LogLevel                    string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QONDUIT_ENGINE_LOG_LEVEL"`
	LogRotationMaxDays          int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QONDUIT_ENGINE_LOG_ROTATION_MAX_DAYS"`
	UseDummyDevice              bool   `long:"enable-dummy-device" description:"use dummy device for tests and disable device settings" env:"QONDUIT_ENGINE_USE_DUMMY_DEVICE"`
	DeviceSettingPath           string `long:"device-setting-path" description:"device setting file path" default:"./device_setting.toml" env:"QONDUIT_ENGINE_DEVICE_SETTING_PATH"`
	QueueMaxSize                int    `long:"queue-max-size" description:"queue max size" default:"100" env:"QONDUIT_ENGINE_QUEUE_MAX_SIZE"`
	QueueRefillThreshold        int    `long:"queue-refill-threshold" description:"queue refill threshold" default:"10" env:"QONDUIT_ENGINE_QUEUE_REFILL_THRESHOLD"`
	APIPort                     string `long:"api-port" description:"HTTP API server port" default:"8088" env:"QONDUIT_ENGINE_API_PORT"`
	EnableDummyQPUTimeInsertion bool   `long:"enable-dummy-qpu-time-insertion" description:"enable dummy qpu time insertion" env:"QONDUIT_ENGINE_ENABLE_DUMMY_QPU_TIME_INSERTION"`
	DummyQPUTime                int    `long:"dummy-qpu-time" description:"dummy qpu time in seconds" default:"10" env:"QONDUIT_ENGINE_DUMMY_QPU_TIME"`
	ServiceDBEndpoint           string `long:"service-db-endpoint" description:"Service DB Endpoint" default:"localhost" env:"QONDUIT_ENGINE_SERVICE_DB_ENDPOINT"`
	ServiceDBAPIKey             string `long:"service-db-api-key" description:"Service DB API Key" default:"DefaultApiKey" env:"QONDUIT_ENGINE_SERVICE_DB_API_KEY"`
	DisableStartDevicePolling   bool   `long:"disable-start-device-polling" description:"disable start device polling" env:"QONDUIT_ENGINE_DISABLE_START_DEVICE_POLLING"`
	SettingPath                 string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QONDUIT_ENGINE_SETTING_PATH"`
}
