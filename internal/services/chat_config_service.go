package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/internal/repos"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

// ChatConfigFields carries the mutable columns of a save. A nil field was
// not provided and is left alone.
type ChatConfigFields struct {
	BaseURL         *string
	WorkflowID      *string
	APIKey          *string
	CompanyName     *string
	LogoURL         *string
	PrimaryColor    *string
	SecondaryColor  *string
	WelcomeMessage  *string
	ChatTitle       *string
	PlaceholderText *string
	IsEnabled       *bool
	// PublicSlug is only honored when the row is created.
	PublicSlug *string
}

func (f ChatConfigFields) validate() error {
	var details []utils.ErrorDetail
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"baseUrl", f.BaseURL},
		{"workflowId", f.WorkflowID},
		{"apiKey", f.APIKey},
	} {
		if field.value != nil && *field.value == "" {
			details = append(details, utils.ErrorDetail{Field: field.name, Message: field.name + " cannot be empty"})
		}
	}
	if len(details) > 0 {
		return NewValidationError("Validation error", details)
	}
	return nil
}

func (f ChatConfigFields) requireTarget() error {
	var details []utils.ErrorDetail
	if f.BaseURL == nil {
		details = append(details, utils.ErrorDetail{Field: "baseUrl", Message: "baseUrl is required"})
	}
	if f.WorkflowID == nil {
		details = append(details, utils.ErrorDetail{Field: "workflowId", Message: "workflowId is required"})
	}
	if f.APIKey == nil {
		details = append(details, utils.ErrorDetail{Field: "apiKey", Message: "apiKey is required"})
	}
	if len(details) > 0 {
		return NewValidationError("Validation error", details)
	}
	return nil
}

// updates maps the provided fields to column names. The slug is never part
// of it.
func (f ChatConfigFields) updates() map[string]interface{} {
	out := make(map[string]interface{})
	setString := func(column string, v *string) {
		if v != nil {
			out[column] = *v
		}
	}
	setString("base_url", f.BaseURL)
	setString("workflow_id", f.WorkflowID)
	setString("api_key", f.APIKey)
	setString("company_name", f.CompanyName)
	setString("logo_url", f.LogoURL)
	setString("primary_color", f.PrimaryColor)
	setString("secondary_color", f.SecondaryColor)
	setString("welcome_message", f.WelcomeMessage)
	setString("chat_title", f.ChatTitle)
	setString("placeholder_text", f.PlaceholderText)
	if f.IsEnabled != nil {
		out["is_enabled"] = *f.IsEnabled
	}
	return out
}

func (f ChatConfigFields) newConfig(orgID string) *models.ChatConfig {
	cfg := &models.ChatConfig{
		OrganizationID:  orgID,
		BaseURL:         *f.BaseURL,
		WorkflowID:      *f.WorkflowID,
		APIKey:          *f.APIKey,
		CompanyName:     f.CompanyName,
		LogoURL:         f.LogoURL,
		PrimaryColor:    f.PrimaryColor,
		SecondaryColor:  f.SecondaryColor,
		WelcomeMessage:  f.WelcomeMessage,
		ChatTitle:       f.ChatTitle,
		PlaceholderText: f.PlaceholderText,
		IsEnabled:       true,
	}
	if f.IsEnabled != nil {
		cfg.IsEnabled = *f.IsEnabled
	}
	return cfg
}

// ChatConfigService owns the organization-scoped configuration lifecycle and
// public slug resolution. Every configuration it returns carries a plaintext
// APIKey; callers shaping responses must use the model views.
type ChatConfigService struct {
	repo        repos.ChatConfigRepo
	secrets     SecretBox
	cache       PublicConfigCache
	newSlug     SlugGenerator
	maxAttempts int
	logger      utils.Logger
}

func NewChatConfigService(repo repos.ChatConfigRepo, slugCfg config.SlugConfig, logger utils.Logger) *ChatConfigService {
	maxAttempts := slugCfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	length := slugCfg.Length
	if length <= 0 {
		length = 10
	}
	return &ChatConfigService{
		repo:        repo,
		newSlug:     NewSlugGenerator(length),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// WithEncryption seals API keys at rest.
func (s *ChatConfigService) WithEncryption(box SecretBox) *ChatConfigService {
	s.secrets = box
	return s
}

// WithCache serves public slug lookups from cache.
func (s *ChatConfigService) WithCache(cache PublicConfigCache) *ChatConfigService {
	s.cache = cache
	return s
}

// WithSlugGenerator replaces the random slug source.
func (s *ChatConfigService) WithSlugGenerator(gen SlugGenerator) *ChatConfigService {
	s.newSlug = gen
	return s
}

func (s *ChatConfigService) GetByOrganization(ctx context.Context, orgID string) (*models.ChatConfig, error) {
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}
	return s.load(s.repo.GetByOrganizationID(ctx, orgID))
}

func (s *ChatConfigService) GetByPublicSlug(ctx context.Context, slug string) (*models.ChatConfig, error) {
	return s.load(s.repo.GetByPublicSlug(ctx, utils.NormalizeSlug(slug)))
}

func (s *ChatConfigService) GetByID(ctx context.Context, id uint) (*models.ChatConfig, error) {
	return s.load(s.repo.GetByID(ctx, id))
}

func (s *ChatConfigService) List(ctx context.Context) ([]*models.ChatConfig, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return configs, nil
}

// Upsert creates the organization's configuration or overwrites the provided
// fields of the existing one. The public slug is chosen once, at creation.
func (s *ChatConfigService) Upsert(ctx context.Context, orgID string, fields ChatConfigFields) (*models.ChatConfig, error) {
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByOrganizationID(ctx, orgID)
	if err == nil {
		return s.update(ctx, orgID, fields)
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, NewInternalError(err)
	}

	if err := fields.requireTarget(); err != nil {
		return nil, err
	}

	var candidate string
	if fields.PublicSlug != nil && *fields.PublicSlug != "" {
		candidate = utils.NormalizeSlug(*fields.PublicSlug)
		if err := utils.ValidateSlug(candidate); err != nil {
			return nil, NewValidationError("Validation error", []utils.ErrorDetail{
				{Field: "publicSlug", Message: err.Error()},
			})
		}
	}

	apiKey, err := s.seal(*fields.APIKey)
	if err != nil {
		return nil, NewInternalError(err)
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if candidate == "" {
			if candidate, err = s.GenerateSlug(); err != nil {
				return nil, NewInternalError(err)
			}
		}

		available, err := s.IsSlugAvailable(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !available {
			s.logger.WithContext(ctx).Debug("Public slug taken, regenerating", utils.LogFields{
				"slug":    candidate,
				"attempt": attempt + 1,
			})
			candidate = ""
			continue
		}

		row := fields.newConfig(orgID)
		row.APIKey = apiKey
		row.PublicSlug = candidate

		err = s.repo.Create(ctx, row)
		if err == nil {
			s.logger.WithContext(ctx).Info("Chat configuration created", utils.LogFields{
				"config_id":   row.ID,
				"public_slug": row.PublicSlug,
			})
			s.invalidate(ctx, row.PublicSlug)
			return s.open(row)
		}
		if !errors.Is(err, repos.ErrDuplicateKey) {
			return nil, NewInternalError(err)
		}

		// A concurrent save won either the organization row or the slug.
		if _, lookupErr := s.repo.GetByOrganizationID(ctx, orgID); lookupErr == nil {
			return s.update(ctx, orgID, fields)
		}
		candidate = ""
	}

	return nil, NewInternalError(fmt.Errorf("%w after %d attempts", ErrSlugExhausted, s.maxAttempts))
}

// Update applies only the provided fields and fails when the organization has
// no configuration yet.
func (s *ChatConfigService) Update(ctx context.Context, orgID string, fields ChatConfigFields) (*models.ChatConfig, error) {
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, orgID, fields)
}

func (s *ChatConfigService) update(ctx context.Context, orgID string, fields ChatConfigFields) (*models.ChatConfig, error) {
	updates := fields.updates()
	if key, ok := updates["api_key"].(string); ok {
		sealed, err := s.seal(key)
		if err != nil {
			return nil, NewInternalError(err)
		}
		updates["api_key"] = sealed
	}

	cfg, err := s.repo.UpdateByOrganizationID(ctx, orgID, updates)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, NewInternalError(err)
	}

	s.invalidate(ctx, cfg.PublicSlug)
	return s.open(cfg)
}

// Delete removes the configuration and returns the removed record.
func (s *ChatConfigService) Delete(ctx context.Context, orgID string) (*models.ChatConfig, error) {
	if orgID == "" {
		return nil, ErrOrganizationRequired
	}

	cfg, err := s.repo.DeleteByOrganizationID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, NewInternalError(err)
	}

	s.logger.WithContext(ctx).Info("Chat configuration deleted", utils.LogFields{
		"config_id":   cfg.ID,
		"public_slug": cfg.PublicSlug,
	})
	s.invalidate(ctx, cfg.PublicSlug)
	return s.open(cfg)
}

func (s *ChatConfigService) GenerateSlug() (string, error) {
	return s.newSlug()
}

func (s *ChatConfigService) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	_, err := s.repo.GetByPublicSlug(ctx, utils.NormalizeSlug(slug))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repos.ErrNotFound) {
		return true, nil
	}
	return false, NewInternalError(err)
}

// ResolvePublic maps a slug to an enabled configuration. Unknown and disabled
// slugs are indistinguishable to the caller. The result never carries the API
// key; the public page has no use for it.
func (s *ChatConfigService) ResolvePublic(ctx context.Context, slug string) (*models.ChatConfig, error) {
	slug = utils.NormalizeSlug(slug)
	if slug == "" {
		return nil, ErrChatUnavailable
	}

	cfg, err := s.cachedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if cfg == nil || !cfg.IsEnabled {
		return nil, ErrChatUnavailable
	}
	out := *cfg
	out.APIKey = ""
	return &out, nil
}

// ResolveChat finds the configuration a public chat message is addressed to.
func (s *ChatConfigService) ResolveChat(ctx context.Context, id uint) (*models.ChatConfig, error) {
	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrChatUnavailable
		}
		return nil, NewInternalError(err)
	}
	if !cfg.IsEnabled {
		return nil, ErrChatUnavailable
	}
	return s.open(cfg)
}

func (s *ChatConfigService) cachedBySlug(ctx context.Context, slug string) (*models.ChatConfig, error) {
	if s.cache == nil {
		return s.storedBySlug(ctx, slug)
	}

	cfg, ok, err := s.cache.Get(ctx, slug)
	if err != nil {
		s.logger.WithContext(ctx).Warn("Public config cache read failed", utils.LogFields{
			"slug":  slug,
			"error": err.Error(),
		})
	} else if ok {
		return cfg, nil
	}

	// The version is read before the store so a write landing in between is
	// noticed by fill.
	version, versionErr := s.cache.Version(ctx, slug)

	cfg, err = s.storedBySlug(ctx, slug)
	if err != nil || cfg == nil {
		return cfg, err
	}

	if versionErr != nil {
		s.logger.WithContext(ctx).Warn("Public config cache unavailable, not filling", utils.LogFields{
			"slug":  slug,
			"error": versionErr.Error(),
		})
		return cfg, nil
	}
	s.fill(ctx, cfg, version)
	return cfg, nil
}

// fill caches cfg unless the slug was invalidated after version was read.
// Writers bump the version before deleting the entry, so checking again after
// Set either catches a concurrent write here or leaves it to delete the entry.
func (s *ChatConfigService) fill(ctx context.Context, cfg *models.ChatConfig, version int64) {
	if err := s.cache.Set(ctx, cfg); err != nil {
		s.logger.WithContext(ctx).Warn("Public config cache write failed", utils.LogFields{
			"slug":  cfg.PublicSlug,
			"error": err.Error(),
		})
		return
	}

	current, err := s.cache.Version(ctx, cfg.PublicSlug)
	if err == nil && current == version {
		return
	}
	s.logger.WithContext(ctx).Debug("Public config changed while caching, dropping entry", utils.LogFields{
		"slug": cfg.PublicSlug,
	})
	s.invalidate(ctx, cfg.PublicSlug)
}

func (s *ChatConfigService) storedBySlug(ctx context.Context, slug string) (*models.ChatConfig, error) {
	cfg, err := s.repo.GetByPublicSlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, nil
		}
		return nil, NewInternalError(err)
	}
	return cfg, nil
}

func (s *ChatConfigService) invalidate(ctx context.Context, slug string) {
	if s.cache == nil || slug == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, slug); err != nil {
		s.logger.WithContext(ctx).Warn("Public config cache invalidation failed", utils.LogFields{
			"slug":  slug,
			"error": err.Error(),
		})
	}
}

func (s *ChatConfigService) load(cfg *models.ChatConfig, err error) (*models.ChatConfig, error) {
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, NewInternalError(err)
	}
	return s.open(cfg)
}

func (s *ChatConfigService) seal(apiKey string) (string, error) {
	if s.secrets == nil {
		return apiKey, nil
	}
	return s.secrets.Encrypt(apiKey)
}

func (s *ChatConfigService) open(cfg *models.ChatConfig) (*models.ChatConfig, error) {
	if s.secrets == nil {
		return cfg, nil
	}
	plain, err := s.secrets.Decrypt(cfg.APIKey)
	if err != nil {
		return nil, NewInternalError(fmt.Errorf("decrypt api key for config %d: %w", cfg.ID, err))
	}
	out := *cfg
	out.APIKey = plain
	return &out, nil
}
