package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/axiestudio/embedded-chat/internal/database"
	"github.com/axiestudio/embedded-chat/internal/models"
)

const (
	publicCachePrefix   = "chat_config:slug:"
	publicVersionPrefix = "chat_config:slug_version:"
)

// PublicConfigCache holds slug lookups for the anonymous chat page. Entries
// never carry the workflow API key.
type PublicConfigCache interface {
	Get(ctx context.Context, slug string) (*models.ChatConfig, bool, error)
	// Version changes every time the slug is invalidated.
	Version(ctx context.Context, slug string) (int64, error)
	Set(ctx context.Context, cfg *models.ChatConfig) error
	// Invalidate bumps the slug's version before dropping its entry.
	Invalidate(ctx context.Context, slug string) error
}

type redisPublicCache struct {
	client database.RedisClient
	ttl    time.Duration
}

func NewRedisPublicCache(client database.RedisClient, ttl time.Duration) PublicConfigCache {
	return &redisPublicCache{client: client, ttl: ttl}
}

func (c *redisPublicCache) Get(ctx context.Context, slug string) (*models.ChatConfig, bool, error) {
	raw, err := c.client.Get(ctx, publicCachePrefix+slug)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cfg models.ChatConfig
	if err := json.Unmarshal([]byte(raw), &cachedConfig{&cfg}); err != nil {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (c *redisPublicCache) Version(ctx context.Context, slug string) (int64, error) {
	raw, err := c.client.Get(ctx, publicVersionPrefix+slug)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *redisPublicCache) Set(ctx context.Context, cfg *models.ChatConfig) error {
	raw, err := json.Marshal(cachedConfig{cfg})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, publicCachePrefix+cfg.PublicSlug, string(raw), c.ttl)
}

func (c *redisPublicCache) Invalidate(ctx context.Context, slug string) error {
	_, incrErr := c.client.Incr(ctx, publicVersionPrefix+slug)
	return errors.Join(incrErr, c.client.Delete(ctx, publicCachePrefix+slug))
}

// cachedConfig pins the cache layout to column names, independent of the
// response tags on the model. The API key is never written.
type cachedConfig struct {
	*models.ChatConfig
}

type cachedConfigJSON struct {
	ID              uint      `json:"id"`
	OrganizationID  string    `json:"organization_id"`
	BaseURL         string    `json:"base_url"`
	WorkflowID      string    `json:"workflow_id"`
	CompanyName     *string   `json:"company_name"`
	LogoURL         *string   `json:"logo_url"`
	PrimaryColor    *string   `json:"primary_color"`
	SecondaryColor  *string   `json:"secondary_color"`
	WelcomeMessage  *string   `json:"welcome_message"`
	ChatTitle       *string   `json:"chat_title"`
	PlaceholderText *string   `json:"placeholder_text"`
	IsEnabled       bool      `json:"is_enabled"`
	PublicSlug      string    `json:"public_slug"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c cachedConfig) MarshalJSON() ([]byte, error) {
	m := c.ChatConfig
	return json.Marshal(cachedConfigJSON{
		ID:              m.ID,
		OrganizationID:  m.OrganizationID,
		BaseURL:         m.BaseURL,
		WorkflowID:      m.WorkflowID,
		CompanyName:     m.CompanyName,
		LogoURL:         m.LogoURL,
		PrimaryColor:    m.PrimaryColor,
		SecondaryColor:  m.SecondaryColor,
		WelcomeMessage:  m.WelcomeMessage,
		ChatTitle:       m.ChatTitle,
		PlaceholderText: m.PlaceholderText,
		IsEnabled:       m.IsEnabled,
		PublicSlug:      m.PublicSlug,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	})
}

func (c *cachedConfig) UnmarshalJSON(data []byte) error {
	var v cachedConfigJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c.ChatConfig = models.ChatConfig{
		ID:              v.ID,
		OrganizationID:  v.OrganizationID,
		BaseURL:         v.BaseURL,
		WorkflowID:      v.WorkflowID,
		CompanyName:     v.CompanyName,
		LogoURL:         v.LogoURL,
		PrimaryColor:    v.PrimaryColor,
		SecondaryColor:  v.SecondaryColor,
		WelcomeMessage:  v.WelcomeMessage,
		ChatTitle:       v.ChatTitle,
		PlaceholderText: v.PlaceholderText,
		IsEnabled:       v.IsEnabled,
		PublicSlug:      v.PublicSlug,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	return nil
}
