package analyzer

import (
	"context"
	"sync"
)

// MockAnalyzer is a test double that returns canned results and records
// every request it receives.
type MockAnalyzer struct {
	Result any
	Err    error
	// Panic, when non-nil, is raised from Analyze.
	Panic any

	mu    sync.Mutex
	calls []Request
}

func (m *MockAnalyzer) Name() string { return "mock" }

func (m *MockAnalyzer) Analyze(_ context.Context, source string, enabled []string) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Request{Source: source, EnabledRules: append([]string(nil), enabled...)})
	m.mu.Unlock()
	if m.Panic != nil {
		panic(m.Panic)
	}
	return m.Result, m.Err
}

// Calls returns a copy of the recorded requests.
func (m *MockAnalyzer) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
