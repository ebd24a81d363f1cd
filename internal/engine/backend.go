package engine

// renderFunc produces one buffer of interleaved float32 output frames.
// The engine's mix function satisfies it.
type renderFunc func(out []float32)

// backend abstracts the hardware output. Open starts periodic invocation
// of render on the backend's callback context; close stops it and blocks
// until no invocation is in flight.
type backend interface {
	open(sampleRate float64, channels, framesPerBuffer int, render renderFunc) error
	close() error
}
