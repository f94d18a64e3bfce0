package service

import (
	"context"
	"sync"

	"ai-learning-coach-be/pkg/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error { return nil }

func (p *recordingPublisher) PublishEvent(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingPusher struct {
	mu        sync.Mutex
	direct    map[string][][]byte
	broadcast [][]byte
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{direct: make(map[string][][]byte)}
}

func (p *recordingPusher) SendToSession(sessionID string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.direct[sessionID] = append(p.direct[sessionID], data)
}

func (p *recordingPusher) Broadcast(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, data)
}

func (p *recordingPusher) sent(sessionID string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.direct[sessionID]...)
}

type staticTokens struct{}

func (staticTokens) Issue(sessionID string) (string, error) { return "token-" + sessionID, nil }
