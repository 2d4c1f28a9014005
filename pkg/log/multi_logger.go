package log

// MultiLogger fans each event out to several loggers in order. The device
// command uses it to mirror console output into the .alog capture file.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers into one. Nil entries are dropped, so
// an optional file capture can be passed straight through.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			kept = append(kept, l)
		}
	}
	return &MultiLogger{loggers: kept}
}

// Log delivers the event to every logger.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
