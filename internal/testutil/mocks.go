// Package testutil provides shared mocks for orchestration tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chorus-dev/chorus/internal/core"
)

// MockModelClient implements core.ModelClient for testing.
type MockModelClient struct {
	callFunc  func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error)
	responses []scripted
	delay     time.Duration
	calls     []MockCall
	mu        sync.Mutex
}

type scripted struct {
	completion *core.Completion
	err        error
}

// MockCall records a call to the mock.
type MockCall struct {
	Voice     core.VoiceID
	Phase     core.Phase
	Params    core.GenerateParams
	Timestamp time.Time
}

// NewMockModelClient creates a mock that echoes a canned completion.
func NewMockModelClient() *MockModelClient {
	return &MockModelClient{calls: make([]MockCall, 0)}
}

// Call mocks a model invocation.
func (m *MockModelClient) Call(ctx context.Context, desc core.VoiceDescriptor, entries []core.TranscriptEntry, params core.GenerateParams) (*core.Completion, error) {
	m.record(desc, entries, params)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.callFunc != nil {
		return m.callFunc(ctx, desc, entries, params)
	}

	if next, ok := m.nextScripted(); ok {
		return next.completion, next.err
	}

	text := fmt.Sprintf("response from %s", desc.ID)
	return &core.Completion{Text: text, TokensConsumed: len(text) / 4}, nil
}

// WithCallFunc sets a custom call function.
func (m *MockModelClient) WithCallFunc(fn func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error)) *MockModelClient {
	m.callFunc = fn
	return m
}

// WithResponse configures a fixed response for every call.
func (m *MockModelClient) WithResponse(text string, tokens int) *MockModelClient {
	m.callFunc = func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error) {
		return &core.Completion{Text: text, TokensConsumed: tokens}, nil
	}
	return m
}

// WithError configures the mock to fail every call.
func (m *MockModelClient) WithError(err error) *MockModelClient {
	m.callFunc = func(context.Context, core.VoiceDescriptor, []core.TranscriptEntry, core.GenerateParams) (*core.Completion, error) {
		return nil, err
	}
	return m
}

// WithDelay makes every call block for d before resolving.
func (m *MockModelClient) WithDelay(d time.Duration) *MockModelClient {
	m.delay = d
	return m
}

// EnqueueResponse appends a scripted completion. Scripted entries are
// consumed in order; once drained the mock falls back to its default.
func (m *MockModelClient) EnqueueResponse(text string, tokens int) *MockModelClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, scripted{completion: &core.Completion{Text: text, TokensConsumed: tokens}})
	return m
}

// EnqueueError appends a scripted failure.
func (m *MockModelClient) EnqueueError(err error) *MockModelClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, scripted{err: err})
	return m
}

func (m *MockModelClient) nextScripted() (scripted, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return scripted{}, false
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, true
}

// Calls returns recorded calls.
func (m *MockModelClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.calls...)
}

// CallCount returns the total number of calls.
func (m *MockModelClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// CallsFor returns the number of calls attributed to a voice.
func (m *MockModelClient) CallsFor(id core.VoiceID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Voice == id {
			count++
		}
	}
	return count
}

// Reset clears call history and scripted responses.
func (m *MockModelClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make([]MockCall, 0)
	m.responses = nil
}

func (m *MockModelClient) record(desc core.VoiceDescriptor, entries []core.TranscriptEntry, params core.GenerateParams) {
	phase := core.Phase("")
	if len(entries) > 0 {
		phase = entries[len(entries)-1].Phase
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Voice:     desc.ID,
		Phase:     phase,
		Params:    params,
		Timestamp: time.Now(),
	})
}

// Ensure interfaces are implemented
var _ core.ModelClient = (*MockModelClient)(nil)
