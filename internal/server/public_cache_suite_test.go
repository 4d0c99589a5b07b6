package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/mocks"
	"github.com/axiestudio/embedded-chat/internal/repos"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/internal/testutil"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

const (
	acmeKey        = "chat_config:slug:acme"
	acmeVersionKey = "chat_config:slug_version:acme"
	cacheTTL       = 5 * time.Minute
)

// PublicCacheTestSuite drives the public chat page through a mocked redis
type PublicCacheTestSuite struct {
	suite.Suite

	redis *mocks.MockRedisClient
	repo  repos.ChatConfigRepo
	srv   *testServer
	token string
}

func TestPublicCacheSuite(t *testing.T) {
	suite.Run(t, new(PublicCacheTestSuite))
}

func (s *PublicCacheTestSuite) SetupTest() {
	t := s.T()

	cfg := &config.Config{
		App:   config.AppConfig{Env: "test"},
		Relay: config.RelayConfig{Timeout: 2 * time.Second, UserAgent: "test"},
		Slug:  config.SlugConfig{Length: 10, MaxAttempts: 10},
	}
	logger, _ := test.NewNullLogger()
	appLogger := utils.NewAppLogger(logger)

	s.redis = mocks.NewMockRedisClient()
	s.repo = repos.NewChatConfigRepo(testutil.DB(t))
	configs := services.NewChatConfigService(s.repo, cfg.Slug, appLogger).
		WithCache(services.NewRedisPublicCache(s.redis, cacheTTL))
	jwt := services.NewJWTService("secret", "embedded-chat", time.Hour)

	s.srv = &testServer{
		router: NewRouter(Dependencies{
			Config:  cfg,
			Logger:  logger,
			Configs: configs,
			Relayer: mocks.NewMockRelayer(),
			Tokens:  jwt,
			Redis:   s.redis,
		}),
		jwt:  jwt,
		repo: s.repo,
	}
	s.token = s.srv.token(t, "org_1")
}

func (s *PublicCacheTestSuite) TearDownTest() {
	s.redis.AssertExpectations(s.T())
}

// expectInvalidate covers one write: the version bump, then the delete.
func (s *PublicCacheTestSuite) expectInvalidate() {
	s.redis.On("Incr", mock.Anything, acmeVersionKey).Return(nil).Once()
	s.redis.On("Delete", mock.Anything, []string{acmeKey}).Return(nil).Once()
}

// expectFill covers a miss that loads the row and caches it: the version is
// read before the store and again after Set.
func (s *PublicCacheTestSuite) expectFill() {
	s.redis.On("Get", mock.Anything, acmeKey).Return("", redis.Nil).Once()
	s.redis.On("Get", mock.Anything, acmeVersionKey).Return("", nil).Twice()
	s.redis.On("Set", mock.Anything, acmeKey, mock.AnythingOfType("string"), cacheTTL).Return(nil).Once()
}

func (s *PublicCacheTestSuite) createAcme() {
	s.expectInvalidate()

	w, _ := s.srv.do(s.T(), http.MethodPost, "/api/config", map[string]interface{}{
		"baseUrl":     "https://api.example.com",
		"workflowId":  "wf-1",
		"apiKey":      "k",
		"companyName": "Acme",
		"publicSlug":  "acme",
	}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *PublicCacheTestSuite) TestMissThenHit() {
	s.createAcme()
	s.expectFill()

	w, body := s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Acme", body["data"].(map[string]interface{})["companyName"])

	cached, ok := s.redis.Stored(acmeKey)
	s.Require().True(ok)
	s.Contains(cached, `"public_slug":"acme"`)
	s.NotContains(cached, "api_key")

	// A write behind the service's back stays invisible until the entry expires.
	_, err := s.repo.UpdateByOrganizationID(context.Background(), "org_1", map[string]interface{}{
		"company_name": "Changed",
	})
	s.Require().NoError(err)

	s.redis.On("Get", mock.Anything, acmeKey).Return("", nil).Once()

	w, body = s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Acme", body["data"].(map[string]interface{})["companyName"])
}

func (s *PublicCacheTestSuite) TestUpdateInvalidates() {
	s.createAcme()
	s.expectFill()

	w, _ := s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	s.expectInvalidate()

	w, _ = s.srv.do(s.T(), http.MethodPut, "/api/config", map[string]interface{}{"isEnabled": false}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	_, ok := s.redis.Stored(acmeKey)
	s.False(ok)
	version, _ := s.redis.Stored(acmeVersionKey)
	s.Equal("2", version)

	s.expectFill()

	w, body := s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Chat configuration not found or disabled", body["error"])
}

func (s *PublicCacheTestSuite) TestDeleteInvalidates() {
	s.createAcme()

	s.expectInvalidate()

	w, _ := s.srv.do(s.T(), http.MethodDelete, "/api/config", nil, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.redis.On("Get", mock.Anything, acmeKey).Return("", redis.Nil).Once()
	s.redis.On("Get", mock.Anything, acmeVersionKey).Return("", nil).Once()

	w, _ = s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *PublicCacheTestSuite) TestRedisOutageFallsBackToDatabase() {
	s.createAcme()

	down := errors.New("dial tcp: connection refused")
	s.redis.On("Get", mock.Anything, acmeKey).Return("", down).Once()
	s.redis.On("Get", mock.Anything, acmeVersionKey).Return("", down).Once()

	w, body := s.srv.do(s.T(), http.MethodGet, "/api/public/chat/acme", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Acme", body["data"].(map[string]interface{})["companyName"])
}

func (s *PublicCacheTestSuite) TestHealthReportsRedis() {
	s.redis.On("Ping", mock.Anything).Return(nil).Once()

	w, body := s.srv.do(s.T(), http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("healthy", body["status"])

	s.redis.On("Ping", mock.Anything).Return(errors.New("redis down")).Once()

	w, body = s.srv.do(s.T(), http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("degraded", body["status"])
	s.Equal("unhealthy", body["services"].(map[string]interface{})["redis"])
}
