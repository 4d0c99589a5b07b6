package services

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/internal/testutil"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeRedis) stored(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Close() error                   { return nil }

func TestRedisPublicCache(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	cache := NewRedisPublicCache(client, 5*time.Minute)

	_, ok, err := cache.Get(ctx, "slug-1")
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := &models.ChatConfig{
		ID:             7,
		OrganizationID: "org_1",
		BaseURL:        "https://api.example.com",
		WorkflowID:     "wf-1",
		APIKey:         "sealed",
		CompanyName:    testutil.Ptr("Acme"),
		IsEnabled:      true,
		PublicSlug:     "slug-1",
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	version, err := cache.Version(ctx, "slug-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, cache.Set(ctx, cfg))
	assert.Equal(t, 5*time.Minute, client.ttls[publicCachePrefix+"slug-1"])

	raw, ok := client.stored(publicCachePrefix + "slug-1")
	require.True(t, ok)
	assert.NotContains(t, raw, "sealed")
	assert.NotContains(t, raw, "api_key")

	got, ok, err := cache.Get(ctx, "slug-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "https://api.example.com", got.BaseURL)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Empty(t, got.APIKey)
	assert.Equal(t, "Acme", *got.CompanyName)
	assert.Nil(t, got.LogoURL)
	assert.True(t, got.IsEnabled)
	assert.True(t, cfg.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, cache.Invalidate(ctx, "slug-1"))
	_, ok, err = cache.Get(ctx, "slug-1")
	require.NoError(t, err)
	assert.False(t, ok)

	version, err = cache.Version(ctx, "slug-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestRedisPublicCache_CorruptEntry(t *testing.T) {
	client := newFakeRedis()
	client.data[publicCachePrefix+"bad"] = "{not json"

	_, ok, err := NewRedisPublicCache(client, time.Minute).Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}
