package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/axiestudio/embedded-chat/internal/services"
)

// MockRelayer implements services.Relayer for handler tests
type MockRelayer struct {
	mu sync.Mutex

	// Configuration for mock responses
	ShouldError  bool
	ErrorMessage string
	StatusCode   int
	MockBody     string
	Result       *services.ConnectionResult

	// Call tracking
	RelayCalls []RelayCall
	TestCalls  []RelayCall
}

type RelayCall struct {
	Target    services.RelayTarget
	Message   string
	SessionID string
	Timestamp time.Time
}

// NewMockRelayer creates a relayer answering {"response":"mock reply"}
func NewMockRelayer() *MockRelayer {
	return &MockRelayer{
		MockBody: `{"response":"mock reply"}`,
	}
}

func (m *MockRelayer) Relay(ctx context.Context, target services.RelayTarget, message, sessionID string) (*services.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RelayCalls = append(m.RelayCalls, RelayCall{
		Target:    target,
		Message:   message,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})

	if m.StatusCode != 0 {
		return nil, &services.RelayError{StatusCode: m.StatusCode, Status: http.StatusText(m.StatusCode)}
	}
	if m.ShouldError {
		return nil, &services.RelayError{Err: errors.New(m.ErrorMessage)}
	}
	return services.NewPayload([]byte(m.MockBody))
}

func (m *MockRelayer) TestConnection(ctx context.Context, target services.RelayTarget, testMessage, sessionID string) *services.ConnectionResult {
	m.mu.Lock()
	m.TestCalls = append(m.TestCalls, RelayCall{
		Target:    target,
		Message:   testMessage,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	result := m.Result
	m.mu.Unlock()

	if result != nil {
		return result
	}
	if m.ShouldError {
		return &services.ConnectionResult{Success: false, Message: services.ConnectionError, Error: m.ErrorMessage}
	}
	payload, err := services.NewPayload([]byte(m.MockBody))
	if err != nil {
		return &services.ConnectionResult{Success: false, Message: services.ConnectionError, Error: err.Error()}
	}
	return &services.ConnectionResult{Success: true, Message: services.ConnectionSuccessful, Data: payload}
}

// CallCount returns how many messages were relayed
func (m *MockRelayer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RelayCalls)
}

// LastCall returns the most recent relay call
func (m *MockRelayer) LastCall() (RelayCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.RelayCalls) == 0 {
		return RelayCall{}, false
	}
	return m.RelayCalls[len(m.RelayCalls)-1], true
}

// WorkflowRequest is one request received by a WorkflowServer
type WorkflowRequest struct {
	Path   string
	APIKey string
	Body   services.RelayRequest
}

// WorkflowServer is a fake workflow runner on a real listener
type WorkflowServer struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	delay    time.Duration
	requests []WorkflowRequest
}

// NewWorkflowServer starts a runner answering every call with status and body
func NewWorkflowServer(status int, body string) *WorkflowServer {
	ws := &WorkflowServer{status: status, body: body}
	ws.Server = httptest.NewServer(http.HandlerFunc(ws.handle))
	return ws
}

// SetDelay makes the runner wait before answering
func (ws *WorkflowServer) SetDelay(d time.Duration) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.delay = d
}

// Requests returns the requests received so far
func (ws *WorkflowServer) Requests() []WorkflowRequest {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	out := make([]WorkflowRequest, len(ws.requests))
	copy(out, ws.requests)
	return out
}

func (ws *WorkflowServer) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body services.RelayRequest
	_ = json.Unmarshal(raw, &body)

	ws.mu.Lock()
	ws.requests = append(ws.requests, WorkflowRequest{
		Path:   r.URL.Path,
		APIKey: r.Header.Get(services.APIKeyHeader),
		Body:   body,
	})
	status, respBody, delay := ws.status, ws.body, ws.delay
	ws.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, respBody)
}
