package powertrain

// Logger is the logging surface consumed by the controller. The service
// shell provides a leveled implementation; tests use a no-op one.
type Logger interface {
	Printf(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	DebugCAN(direction string, id uint32, data []byte, length uint8)
}

// StdLogger adapts anything with Printf (such as *log.Logger) to the
// Logger interface. Levels below Info and CAN frame tracing are dropped.
type StdLogger struct {
	logger interface {
		Printf(format string, v ...interface{})
	}
}

func NewStdLogger(logger interface{ Printf(format string, v ...interface{}) }) *StdLogger {
	return &StdLogger{logger: logger}
}

func (l *StdLogger) Printf(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *StdLogger) Debug(format string, v ...interface{}) {}

func (l *StdLogger) Info(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *StdLogger) Warn(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *StdLogger) Error(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *StdLogger) DebugCAN(direction string, id uint32, data []byte, length uint8) {}

// DebugCANFrame traces a CAN frame on a nil-safe logger.
func DebugCANFrame(logger Logger, direction string, id uint32, data [8]byte, length uint8) {
	if logger != nil {
		logger.DebugCAN(direction, id, data[:], length)
	}
}
