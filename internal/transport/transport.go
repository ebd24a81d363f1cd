package transport

// Transport defines a generic interface for shipping analysis frames
// (spectrum magnitudes, output levels) out of the engine.
// Implementations must be thread-safe and must never block the caller:
// the data originates on the audio callback path.
type Transport interface {
	Send(data any) error
	Close() error
}
