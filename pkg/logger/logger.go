package logger

// Logger defines the standard behavior for our loggers.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})

	// With returns a child logger that always carries the given key/value pairs.
	With(keysAndValues ...interface{}) Logger
}

// Environment represents the deployment environment
type Environment string

const (
	Dev  Environment = "dev"
	Test Environment = "test"
	Prod Environment = "prod"
)

// ParseEnvironment maps a RUN_TYPE value to an Environment, falling back to Dev.
func ParseEnvironment(runType string) Environment {
	switch Environment(runType) {
	case Prod:
		return Prod
	case Test:
		return Test
	default:
		return Dev
	}
}

// Config holds the configuration for logger initialization
type Config struct {
	Environment Environment
	LogLevel    string
	LogFile     string
	MaxSize     int  // maximum size in megabytes before rotation
	MaxBackups  int  // maximum number of old log files to retain
	MaxAge      int  // maximum number of days to retain old log files
	Compress    bool // whether to compress rotated log files

	// Service 非空时每条日志都带 service 字段, 区分宿主与回传服务
	Service string
}

// Component returns a child of l tagged with the component name.
func Component(l Logger, name string) Logger {
	if l == nil {
		l = Default
	}
	return l.With("component", name)
}

// nopLogger drops everything. Used by tests and by code paths that have no logger wired.
type nopLogger struct{}

// NewNop returns a Logger that discards all entries.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func (n nopLogger) With(...interface{}) Logger { return n }
