package report

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Async hands events to a background goroutine through a bounded queue so
// network sinks never stretch a measurement window. When the queue is full
// the event is dropped with a warning.
type Async struct {
	name  string
	next  Sink
	queue chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewAsync(name string, next Sink, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		name:  name,
		next:  next,
		queue: make(chan Event, size),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for e := range a.queue {
		a.next.Report(e)
	}
}

func (a *Async) Report(e Event) {
	select {
	case a.queue <- e:
	default:
		log.Warn().Str("sink", a.name).Str("kind", string(e.Kind)).Msg("Report queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// Report must not be called after Close.
func (a *Async) Close() {
	a.closeOnce.Do(func() { close(a.queue) })
	<-a.done
}
