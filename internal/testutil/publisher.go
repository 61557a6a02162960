package testutil

import (
	"context"
	"sync"
)

type PublishedEvent struct {
	Topic string
	Key   string
	Event any
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, PublishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the "type" field of every map event, in publish order.
func (p *RecordingPublisher) Types() []string {
	var out []string
	for _, e := range p.Events() {
		if m, ok := e.Event.(map[string]any); ok {
			if typ, ok := m["type"].(string); ok {
				out = append(out, typ)
			}
		}
	}
	return out
}
