package llm

import (
	"context"
	"io"
	"sync"
)

// eventBuffer lets a producer run ahead of a slow renderer.
const eventBuffer = 64

// eventStream adapts a producer goroutine to the Stream interface.
type eventStream struct {
	events chan Event
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// newEventStream runs produce in a goroutine. Events it sends are returned
// by Recv in order; its error (if any) is returned after the last event,
// otherwise io.EOF. Close cancels the producer's context.
func newEventStream(ctx context.Context, produce func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event, eventBuffer),
		cancel: cancel,
	}
	go func() {
		defer close(s.events)
		if err := produce(ctx, s.events); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	event, ok := <-s.events
	if ok {
		return event, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Event{}, s.err
	}
	return Event{}, io.EOF
}

// Close stops the producer and discards anything it still sends.
func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		go func() {
			for range s.events {
			}
		}()
	})
	return nil
}

// send delivers event unless ctx is done first.
func send(ctx context.Context, events chan<- Event, event Event) error {
	select {
	case events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
