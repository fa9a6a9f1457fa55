package log

// Logger is the interface applications implement to receive codec log events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a codec event. Implementations used from several
	// goroutines must be thread-safe.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
