package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/mocks"
	"github.com/axiestudio/embedded-chat/internal/repos"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/internal/testutil"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	jwt    *services.JWTService
	repo   repos.ChatConfigRepo
}

func newTestServer(t *testing.T, debug bool) *testServer {
	t.Helper()

	cfg := &config.Config{
		App:   config.AppConfig{Env: "test", Debug: debug},
		Relay: config.RelayConfig{Timeout: 2 * time.Second, UserAgent: "test"},
		Slug:  config.SlugConfig{Length: 10, MaxAttempts: 10},
	}
	logger, _ := test.NewNullLogger()
	appLogger := utils.NewAppLogger(logger)

	repo := repos.NewChatConfigRepo(testutil.DB(t))
	box, err := services.NewEncryptionService("test-key")
	require.NoError(t, err)
	configs := services.NewChatConfigService(repo, cfg.Slug, appLogger).WithEncryption(box)
	jwt := services.NewJWTService("secret", "embedded-chat", time.Hour)

	router := NewRouter(Dependencies{
		Config:  cfg,
		Logger:  logger,
		Configs: configs,
		Relayer: services.NewRelayClient(cfg.Relay, appLogger),
		Tokens:  jwt,
	})
	return &testServer{router: router, jwt: jwt, repo: repo}
}

func (s *testServer) token(t *testing.T, orgID string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken("user-1", orgID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestEndToEnd_ConfigureAndChat(t *testing.T) {
	upstream := mocks.NewWorkflowServer(http.StatusOK, `{"response":"hello"}`)
	defer upstream.Close()

	s := newTestServer(t, false)
	token := s.token(t, "org_1")

	w, body := s.do(t, http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl":    upstream.URL + "/run/",
		"workflowId": "wf-1",
		"apiKey":     "k",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), `"apiKey"`)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["hasApiKey"])
	assert.Equal(t, true, data["isEnabled"])
	slug, _ := data["publicSlug"].(string)
	require.NotEmpty(t, slug)
	configID := data["id"].(float64)

	w, body = s.do(t, http.MethodGet, "/api/config", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, slug, body["data"].(map[string]interface{})["publicSlug"])
	assert.NotContains(t, w.Body.String(), `"apiKey"`)

	w, _ = s.do(t, http.MethodPost, "/api/chat/send", map[string]interface{}{
		"message":   "hi",
		"sessionId": "s1",
		"configId":  configID,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"response":"hello","sessionId":"s1"}`, mustField(t, w.Body.Bytes(), "data"))

	reqs := upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/run/wf-1", reqs[0].Path)
	assert.Equal(t, "k", reqs[0].APIKey)
	assert.Equal(t, services.RelayRequest{OutputType: "chat", InputType: "chat", InputValue: "hi", SessionID: "s1"}, reqs[0].Body)

	stored, err := s.repo.GetByPublicSlug(t.Context(), slug)
	require.NoError(t, err)
	assert.NotEqual(t, "k", stored.APIKey)
}

func TestEndToEnd_PublicPageGating(t *testing.T) {
	s := newTestServer(t, false)
	token := s.token(t, "org_1")

	w, body := s.do(t, http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl":     "https://api.example.com",
		"workflowId":  "wf-1",
		"apiKey":      "k",
		"companyName": "Acme",
		"publicSlug":  "acme",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "acme", body["data"].(map[string]interface{})["publicSlug"])

	w, body = s.do(t, http.MethodGet, "/api/public/chat/acme", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := body["data"].(map[string]interface{})
	assert.Equal(t, "Acme", view["companyName"])
	assert.Equal(t, "Chat - Acme", view["title"])
	assert.NotContains(t, w.Body.String(), "api.example.com")
	assert.NotContains(t, w.Body.String(), "wf-1")

	w, _ = s.do(t, http.MethodPut, "/api/config", map[string]interface{}{"isEnabled": false}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/public/chat/acme", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Chat configuration not found or disabled", body["error"])

	w, body = s.do(t, http.MethodGet, "/api/config", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["data"].(map[string]interface{})["isEnabled"])

	w, _ = s.do(t, http.MethodGet, "/api/public/chat/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_OrganizationRequired(t *testing.T) {
	s := newTestServer(t, false)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/config"},
		{http.MethodPost, "/api/config"},
		{http.MethodPut, "/api/config"},
		{http.MethodDelete, "/api/config"},
		{http.MethodPost, "/api/config/test"},
	} {
		w, _ := s.do(t, tc.method, tc.path, map[string]interface{}{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)

		w, body := s.do(t, tc.method, tc.path, map[string]interface{}{}, s.token(t, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Organization not found", body["error"])
	}
}

func TestEndToEnd_OrganizationsAreIsolated(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(t, http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl": "https://api.example.com", "workflowId": "wf-1", "apiKey": "k",
	}, s.token(t, "org_1"))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/config", nil, s.token(t, "org_2"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/config", nil, s.token(t, "org_2"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndToEnd_TestConnection(t *testing.T) {
	upstream := mocks.NewWorkflowServer(http.StatusOK, `{"output":"pong"}`)
	defer upstream.Close()

	s := newTestServer(t, false)
	w, body := s.do(t, http.MethodPost, "/api/config/test", map[string]interface{}{
		"baseUrl":    upstream.URL,
		"workflowId": "wf-1",
		"apiKey":     "k",
	}, s.token(t, "org_1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Connection successful", body["message"])
	assert.Equal(t, map[string]interface{}{"output": "pong"}, body["data"])

	reqs := upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, services.DefaultTestMessage, reqs[0].Body.InputValue)

	_, err := s.repo.GetByOrganizationID(t.Context(), "org_1")
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestEndToEnd_UpstreamFailure(t *testing.T) {
	upstream := mocks.NewWorkflowServer(http.StatusInternalServerError, `{"error":"boom"}`)
	defer upstream.Close()

	s := newTestServer(t, false)
	w, body := s.do(t, http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl": upstream.URL, "workflowId": "wf-1", "apiKey": "super-secret",
	}, s.token(t, "org_1"))
	require.Equal(t, http.StatusOK, w.Code)
	configID := body["data"].(map[string]interface{})["id"]

	w, body = s.do(t, http.MethodPost, "/api/chat/send", map[string]interface{}{
		"message": "hi", "sessionId": "s1", "configId": configID,
	}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to get response from AI service", body["error"])
	assert.Equal(t, "HTTP 500: Internal Server Error", body["details"])
	assert.NotContains(t, w.Body.String(), "super-secret")
}

func TestEndToEnd_DebugListing(t *testing.T) {
	s := newTestServer(t, false)
	w, _ := s.do(t, http.MethodGet, "/api/debug/configs", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s = newTestServer(t, true)
	w, _ = s.do(t, http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl": "https://api.example.com", "workflowId": "wf-1", "apiKey": "super-secret",
	}, s.token(t, "org_1"))
	require.Equal(t, http.StatusOK, w.Code)

	w, body := s.do(t, http.MethodGet, "/api/debug/configs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "All chat configurations", body["message"])
	assert.Len(t, body["data"], 1)
	assert.NotContains(t, w.Body.String(), "super-secret")
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])

	w, body = s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func mustField(t *testing.T, raw []byte, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, ok := m[field]
	require.True(t, ok, fmt.Sprintf("missing %q in %s", field, raw))
	return string(v)
}
