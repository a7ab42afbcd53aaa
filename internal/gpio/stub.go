//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealTriggerReader is not available on non-Linux platforms.
type RealTriggerReader struct{}

func NewTriggerReader(chip string, pins []int) (*RealTriggerReader, error) {
	return nil, errUnsupported
}

func (r *RealTriggerReader) Read() ([]bool, error) {
	return nil, errUnsupported
}

func (r *RealTriggerReader) Close() error {
	return nil
}

// EdgeWatcher is not available on non-Linux platforms.
type EdgeWatcher struct{}

func WatchFallingEdges(chip string, pin int, onEdge func()) (*EdgeWatcher, error) {
	return nil, errUnsupported
}

func (w *EdgeWatcher) Close() error {
	return nil
}
