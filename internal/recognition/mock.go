package recognition

import (
	"context"
	"sync"
)

// MockRecognizer is a test implementation of the Recognizer interface.
// It allows tests to control the recognition results.
type MockRecognizer struct {
	mu        sync.Mutex
	response  *Response
	err       error
	healthErr error
	handler   func(ctx context.Context, req *Request) (*Response, error)
	calls     int
	last      *Request
}

// NewMockRecognizer creates a new MockRecognizer that returns an empty response.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{response: &Response{}}
}

// SetResponse sets the response that will be returned by Recognize.
func (m *MockRecognizer) SetResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = resp
}

// SetError sets the error that will be returned by Recognize.
func (m *MockRecognizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetHealthError sets the error that will be returned by Health.
func (m *MockRecognizer) SetHealthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
}

// SetHandler overrides Recognize entirely. Used to script slow or per-call results.
func (m *MockRecognizer) SetHandler(fn func(ctx context.Context, req *Request) (*Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Recognize returns the pre-configured response or error.
func (m *MockRecognizer) Recognize(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.calls++
	m.last = req
	handler, resp, err := m.handler, m.response, m.err
	m.mu.Unlock()

	if handler != nil {
		return handler(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Health returns the pre-configured health error.
func (m *MockRecognizer) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthErr
}

// Calls returns how many times Recognize was invoked.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request passed to Recognize.
func (m *MockRecognizer) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
