package core

type NonSecretConf struct {
	DevMode                   bool
	DisableStdoutLog          bool
	EnableFileLog             bool
	LogDir                    string
	LogLevel                  string
	LogRotationMaxDays        int
	UseDummyDevice            bool
	DeviceSettingsPath        string
	QueueMaxSize              int
	QueueRefillThreshold      int
	APIPort                   string
	ServiceDBEndpoint         string
	DisableStartDevicePolling bool
}

type Info struct {
	Conf *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:                   c.DevMode,
		DisableStdoutLog:          c.DisableStdoutLog,
		EnableFileLog:             c.EnableFileLog,
		LogDir:                    c.LogDir,
		LogLevel:                  c.LogLevel,
		LogRotationMaxDays:        c.LogRotationMaxDays,
		UseDummyDevice:            c.UseDummyDevice,
		DeviceSettingsPath:        c.DeviceSettingPath,
		QueueMaxSize:              c.QueueMaxSize,
		QueueRefillThreshold:      c.QueueRefillThreshold,
		APIPort:                   c.APIPort,
		ServiceDBEndpoint:         c.ServiceDBEndpoint,
		DisableStartDevicePolling: c.DisableStartDevicePolling,
	}

	CurrentInfo = &Info{
		Conf: conf,
	}
}
