package gpio

import (
	"errors"
	"sync"
)

// FakeTriggerReader is a test double that returns scripted button samples.
type FakeTriggerReader struct {
	mu sync.Mutex

	// Samples contains scripted pressed flags. Each call to Read consumes the
	// next sample; once exhausted the last sample repeats.
	Samples [][]bool

	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

func NewFakeTriggerReader(samples ...[]bool) *FakeTriggerReader {
	return &FakeTriggerReader{Samples: samples}
}

func (f *FakeTriggerReader) Read() ([]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Reads++
	if f.ReadError != nil {
		return nil, f.ReadError
	}
	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	out := make([]bool, len(sample))
	copy(out, sample)
	return out, nil
}

// ReadCount returns Reads under the lock, for tests that poll from another
// goroutine.
func (f *FakeTriggerReader) ReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reads
}

func (f *FakeTriggerReader) Close() error {
	f.Closed = true
	return nil
}
