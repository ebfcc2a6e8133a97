package core

type Conf struct {
	Version            string `long:"version" description:"version of the engine" env:"QUBLAB_ENGINE_VERSION"`
	DevMode            bool   `long:"dev-mode" description:"run in dev mode" env:"QUBLAB_ENGINE_DEV_MODE"`
	DisableStdoutLog   bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"QUBLAB_ENGINE_DISABLE_STDOUT_LOG"`
	EnableFileLog      bool   `long:"enable-file-log" description:"enable log in file" env:"QUBLAB_ENGINE_ENABLE_FILE_LOG"`
	LogDir             string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"QUBLAB_ENGINE_LOG_DIR"`
	LogLevel           string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"QUBLAB_ENGINE_LOG_LEVEL"`
	LogRotationMaxDays int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"QUBLAB_ENGINE_LOG_ROTATION_MAX_DAYS"`
	SettingPath        string `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"QUBLAB_ENGINE_SETTING_PATH"`
	Seed               int64  `long:"seed" description:"seed for stochastic optimizers (0 means time-based)" env:"QUBLAB_ENGINE_SEED"`
}
