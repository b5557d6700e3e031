package mocks

import (
	"sync"

	"github.com/mcoot/realmledger/internal/model"
)

// MockPublisher records published events for assertions
type MockPublisher struct {
	mu     sync.Mutex
	Events []model.Event
}

// Ensure MockPublisher implements EventPublisher
var _ model.EventPublisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event
func (p *MockPublisher) Publish(event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// Types returns the types of all recorded events in order
func (p *MockPublisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.EventType, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.Type
	}
	return types
}

// Last returns the most recent event, or false if none were published
func (p *MockPublisher) Last() (model.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Events) == 0 {
		return model.Event{}, false
	}
	return p.Events[len(p.Events)-1], true
}

// Reset clears recorded events
func (p *MockPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = nil
}
