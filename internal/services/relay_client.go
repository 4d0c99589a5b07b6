package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

const (
	// APIKeyHeader carries the workflow credential on every relayed call.
	APIKeyHeader = "x-api-key"

	DefaultTestMessage = "Hello, this is a test message"

	maxRelayResponseBytes = 10 << 20
)

// RelayTarget is the outbound endpoint and credential of one configuration.
type RelayTarget struct {
	BaseURL    string
	WorkflowID string
	APIKey     string
}

// TargetFor builds the relay target of a configuration whose APIKey has
// already been decrypted.
func TargetFor(cfg *models.ChatConfig) RelayTarget {
	return RelayTarget{
		BaseURL:    cfg.BaseURL,
		WorkflowID: cfg.WorkflowID,
		APIKey:     cfg.APIKey,
	}
}

// Endpoint drops one trailing slash from the base URL and appends the workflow id.
func (t RelayTarget) Endpoint() string {
	return strings.TrimSuffix(t.BaseURL, "/") + "/" + t.WorkflowID
}

// RelayRequest is the fixed envelope every workflow runner receives.
type RelayRequest struct {
	OutputType string `json:"output_type"`
	InputType  string `json:"input_type"`
	InputValue string `json:"input_value"`
	SessionID  string `json:"session_id"`
}

// RelayError describes a relay call that produced no usable payload.
type RelayError struct {
	StatusCode int
	Status     string
	Timeout    bool
	Err        error
}

func (e *RelayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "Unknown error"
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// ConnectionResult is the diagnostic outcome of TestConnection.
type ConnectionResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *Payload `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

const (
	ConnectionSuccessful = "Connection successful"
	ConnectionFailed     = "Connection failed"
	ConnectionError      = "Connection error"
)

// Relayer forwards one chat message to a workflow runner.
type Relayer interface {
	Relay(ctx context.Context, target RelayTarget, message, sessionID string) (*Payload, error)
	TestConnection(ctx context.Context, target RelayTarget, testMessage, sessionID string) *ConnectionResult
}

type RelayClient struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     utils.Logger
}

func NewRelayClient(cfg config.RelayConfig, logger utils.Logger) *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Relay posts the message and returns the decoded response body. Non-2xx
// statuses, transport failures, timeouts and undecodable bodies all come back
// as *RelayError.
func (c *RelayClient) Relay(ctx context.Context, target RelayTarget, message, sessionID string) (*Payload, error) {
	startTime := time.Now()
	endpoint := target.Endpoint()

	body, err := json.Marshal(RelayRequest{
		OutputType: "chat",
		InputType:  "chat",
		InputValue: message,
		SessionID:  sessionID,
	})
	if err != nil {
		return nil, &RelayError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RelayError{Err: fmt.Errorf("failed to create HTTP request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, target.APIKey)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	logFields := utils.LogFields{
		"workflow_id": target.WorkflowID,
		"session_id":  sessionID,
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		relayErr := c.transportError(err)
		utils.LogHTTPCall(c.logger.WithContext(ctx), http.MethodPost, endpoint, 0, time.Since(startTime), relayErr, logFields)
		return nil, relayErr
	}
	defer response.Body.Close()

	utils.LogHTTPCall(c.logger.WithContext(ctx), http.MethodPost, endpoint, response.StatusCode, time.Since(startTime), nil, logFields)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxRelayResponseBytes))
		return nil, &RelayError{
			StatusCode: response.StatusCode,
			Status:     statusText(response),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxRelayResponseBytes))
	if err != nil {
		return nil, c.transportError(err)
	}

	payload, err := NewPayload(raw)
	if err != nil {
		return nil, &RelayError{Err: fmt.Errorf("invalid JSON in workflow response: %w", err)}
	}

	return payload, nil
}

// TestConnection performs a relay with a diagnostic message. It never
// touches the store.
func (c *RelayClient) TestConnection(ctx context.Context, target RelayTarget, testMessage, sessionID string) *ConnectionResult {
	if testMessage == "" {
		testMessage = DefaultTestMessage
	}
	if sessionID == "" {
		sessionID = fmt.Sprintf("test-%d", time.Now().UnixMilli())
	}

	payload, err := c.Relay(ctx, target, testMessage, sessionID)
	if err == nil {
		return &ConnectionResult{Success: true, Message: ConnectionSuccessful, Data: payload}
	}

	message := ConnectionError
	var relayErr *RelayError
	if errors.As(err, &relayErr) && relayErr.StatusCode != 0 {
		message = ConnectionFailed
	}
	return &ConnectionResult{Success: false, Message: message, Error: err.Error()}
}

func (c *RelayClient) transportError(err error) *RelayError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &RelayError{
			Timeout: true,
			Err:     fmt.Errorf("workflow request timed out after %s", c.timeout),
		}
	}
	return &RelayError{Err: err}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
