package llm

import (
	"context"
	"sync"
)

// MockProvider replays scripted turns, one per Stream call, and records
// every request. It is used by the chat session tests.
type MockProvider struct {
	name string

	mu       sync.Mutex
	turns    []mockTurn
	Requests []Request
}

type mockTurn struct {
	events []Event
	err    error
	// hold blocks the turn after its events until the context ends.
	hold bool
}

// NewMockProvider creates a provider with no scripted turns.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Model() string {
	return "mock"
}

// AddTextResponse scripts a turn streaming text in one delta.
func (m *MockProvider) AddTextResponse(text string) *MockProvider {
	return m.AddEvents(Event{Type: EventTextDelta, Text: text}, Event{Type: EventDone})
}

// AddEvents scripts a turn streaming events.
func (m *MockProvider) AddEvents(events ...Event) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{events: events})
	return m
}

// AddError scripts a turn that fails with err after events.
func (m *MockProvider) AddError(err error, events ...Event) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{events: events, err: err})
	return m
}

// AddBlockingTurn scripts a turn that streams events and then waits for
// cancellation.
func (m *MockProvider) AddBlockingTurn(events ...Event) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{events: events, hold: true})
	return m
}

func (m *MockProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	var turn mockTurn
	if len(m.turns) > 0 {
		turn = m.turns[0]
		m.turns = m.turns[1:]
	} else {
		turn = mockTurn{events: []Event{{Type: EventDone}}}
	}
	m.mu.Unlock()

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		for _, e := range turn.events {
			if err := send(ctx, events, e); err != nil {
				return err
			}
		}
		if turn.hold {
			<-ctx.Done()
			return ctx.Err()
		}
		return turn.err
	}), nil
}

// RequestCount returns how many times Stream was called.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
