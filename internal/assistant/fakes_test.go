package assistant

import (
	"context"
	"iter"
	"sync"

	"PONTO-backend/internal/presence"
)

// scriptedModel answers call n with script(n, req).
type scriptedModel struct {
	mu       sync.Mutex
	requests []ModelRequest
	script   func(n int, req ModelRequest) ([]ModelChunk, error)
}

func (m *scriptedModel) Stream(ctx context.Context, req ModelRequest) iter.Seq2[ModelChunk, error] {
	return func(yield func(ModelChunk, error) bool) {
		m.mu.Lock()
		n := len(m.requests)
		req.Messages = append([]Message(nil), req.Messages...)
		m.requests = append(m.requests, req)
		m.mu.Unlock()

		chunks, err := m.script(n, req)
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield(ModelChunk{}, err)
		}
	}
}

func (m *scriptedModel) calls() []ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelRequest(nil), m.requests...)
}

// modelFunc runs fn once per call with the turn's context.
type modelFunc func(ctx context.Context, req ModelRequest) ([]ModelChunk, error)

func (f modelFunc) Stream(ctx context.Context, req ModelRequest) iter.Seq2[ModelChunk, error] {
	return func(yield func(ModelChunk, error) bool) {
		chunks, err := f(ctx, req)
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield(ModelChunk{}, err)
		}
	}
}

type monthArgs struct{ month, year int }

// fakePresence records calls and answers with canned results.
type fakePresence struct {
	mu      sync.Mutex
	finds   []monthArgs
	creates []presence.CreateInput
	create  presence.CreateResult
}

func (f *fakePresence) FindMonth(_ context.Context, month, year int) presence.FindMonthResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds = append(f.finds, monthArgs{month, year})
	return presence.FindMonthResult{
		Success: true,
		Data:    []presence.MonthRecord{},
		Message: "Nenhum registro encontrado",
		Period:  &presence.Period{Start: "2025-11-01", End: "2025-11-30"},
	}
}

func (f *fakePresence) CreateRecord(_ context.Context, in presence.CreateInput) presence.CreateResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	return f.create
}

func (f *fakePresence) findCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finds)
}

// recorder collects emitted events.
type recorder struct{ events []Event }

func (r *recorder) emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) types() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
