package api_test

import (
	"context"
	"sync"
	"time"

	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/queue"
	"vdt.ai/dashboard/internal/rpc"
	"vdt.ai/dashboard/internal/store"
)

type mockPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, event queue.ActivityEvent) error
	events    []queue.ActivityEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event queue.ActivityEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

type mockRecorder struct {
	mu              sync.Mutex
	codes           map[string][]string
	publishFailures int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{codes: make(map[string][]string)}
}

func (m *mockRecorder) RecordCall(path, _, code string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[path] = append(m.codes[path], code)
}

func (m *mockRecorder) RecordPublishFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishFailures++
}

// failingProvider returns err from every project call.
type failingProvider struct {
	store.Provider
	err         error
	createCalls int
}

func (f *failingProvider) Projects() store.ProjectStore {
	return failingProjects{f}
}

type failingProjects struct{ f *failingProvider }

func (p failingProjects) List(context.Context) ([]model.Project, error) {
	return nil, p.f.err
}

func (p failingProjects) Create(context.Context, *model.Project) error {
	p.f.createCalls++
	return p.f.err
}

// nilListProvider reports a nil slice from List.
type nilListProvider struct {
	store.Provider
}

func (nilListProvider) Projects() store.ProjectStore { return nilList{} }

type nilList struct{}

func (nilList) List(context.Context) ([]model.Project, error)  { return nil, nil }
func (nilList) Create(context.Context, *model.Project) error { return nil }

type staticResolver struct {
	user *model.User
	err  error
}

func (s staticResolver) Resolve(context.Context, *rpc.Context) (*model.User, error) {
	return s.user, s.err
}
