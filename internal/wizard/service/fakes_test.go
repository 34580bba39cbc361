package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reqs    []llm.Request
	content string
	err     error
	// failFor makes only the named artifacts fail, matched against the user prompt.
	failFor map[string]error
	// onCall runs before each completion, outside the lock.
	onCall func(req llm.Request)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	if f.onCall != nil {
		f.onCall(req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	for marker, err := range f.failFor {
		if strings.Contains(req.UserPrompt, marker) {
			return "", err
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if req.Feedback != "" {
		return f.content + " (refined: " + req.Feedback + ")", nil
	}
	return f.content, nil
}

func (f *fakeCompleter) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.reqs...)
}

type capturedEvent struct {
	DistinctID string
	Event      string
	Props      map[string]any
}

type recordingSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (r *recordingSink) Capture(_ context.Context, distinctID, event string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, capturedEvent{DistinctID: distinctID, Event: event, Props: props})
}

func (r *recordingSink) Close() {}

func (r *recordingSink) named(event string) []capturedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []capturedEvent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type memoryHistory struct {
	mu      sync.Mutex
	records []domain.ArtifactRecord
}

func (m *memoryHistory) Save(_ context.Context, rec *domain.ArtifactRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.CreatedAt = time.Now()
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryHistory) ListBySession(_ context.Context, id string) ([]domain.ArtifactRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ArtifactRecord
	for _, r := range m.records {
		if r.SessionID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryHistory) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}
