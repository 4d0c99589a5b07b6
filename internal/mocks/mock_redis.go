package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockRedisClient implements database.RedisClient on top of testify's mock.
// Values accepted by Set and Incr are remembered and served by later Gets.
type MockRedisClient struct {
	mock.Mock

	mu   sync.Mutex
	data map[string]string
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data: make(map[string]string),
	}
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	if args.Error(0) == nil {
		if str, ok := value.(string); ok {
			m.mu.Lock()
			m.data[key] = str
			m.mu.Unlock()
		}
	}
	return args.Error(0)
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	if args.Error(1) != nil {
		return "", args.Error(1)
	}

	m.mu.Lock()
	value, exists := m.data[key]
	m.mu.Unlock()
	if exists {
		return value, nil
	}
	return args.String(0), nil
}

func (m *MockRedisClient) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	m.mu.Lock()
	for _, key := range keys {
		delete(m.data, key)
	}
	m.mu.Unlock()
	return args.Error(0)
}

func (m *MockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Stored reports what a key currently holds
func (m *MockRedisClient) Stored(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok
}
