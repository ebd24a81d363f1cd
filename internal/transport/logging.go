package transport

import "mixdown/internal/log"

// LogTransport is a debug sink that drops frames into the logger at
// debug level. Useful when no visualization client is attached.
type LogTransport struct{}

func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

func (t *LogTransport) Send(data any) error {
	log.Debugf("analysis frame: %v", data)
	return nil
}

func (t *LogTransport) Close() error {
	return nil
}

var _ Transport = (*LogTransport)(nil)
