package models

import (
	"time"
)

// ChatConfig is the per-organization widget configuration. APIKey holds the
// value as persisted, which is ciphertext when an encryption key is set.
type ChatConfig struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrganizationID string `gorm:"type:text;not null;uniqueIndex:chat_configs_organization_id_idx" json:"organizationId"`

	BaseURL    string `gorm:"type:text;not null" json:"baseUrl"`
	WorkflowID string `gorm:"type:text;not null" json:"workflowId"`
	APIKey     string `gorm:"type:text;not null" json:"-"`

	CompanyName     *string `gorm:"type:text" json:"companyName"`
	LogoURL         *string `gorm:"type:text" json:"logoUrl"`
	PrimaryColor    *string `gorm:"type:text" json:"primaryColor"`
	SecondaryColor  *string `gorm:"type:text" json:"secondaryColor"`
	WelcomeMessage  *string `gorm:"type:text" json:"welcomeMessage"`
	ChatTitle       *string `gorm:"type:text" json:"chatTitle"`
	PlaceholderText *string `gorm:"type:text" json:"placeholderText"`
	IsEnabled       bool    `gorm:"not null" json:"isEnabled"`

	PublicSlug string `gorm:"type:text;not null;uniqueIndex:chat_configs_public_slug_idx" json:"publicSlug"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *ChatConfig) TableName() string {
	return "chat_configs"
}

// HasAPIKey reports whether a non-empty key is stored.
func (c *ChatConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// ChatConfigView is the owner-facing representation: every column except the
// API key, which is replaced by HasAPIKey.
type ChatConfigView struct {
	ID              uint      `json:"id"`
	OrganizationID  string    `json:"organizationId"`
	BaseURL         string    `json:"baseUrl"`
	WorkflowID      string    `json:"workflowId"`
	CompanyName     *string   `json:"companyName"`
	LogoURL         *string   `json:"logoUrl"`
	PrimaryColor    *string   `json:"primaryColor"`
	SecondaryColor  *string   `json:"secondaryColor"`
	WelcomeMessage  *string   `json:"welcomeMessage"`
	ChatTitle       *string   `json:"chatTitle"`
	PlaceholderText *string   `json:"placeholderText"`
	IsEnabled       bool      `json:"isEnabled"`
	PublicSlug      string    `json:"publicSlug"`
	HasAPIKey       bool      `json:"hasApiKey"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *ChatConfig) View() *ChatConfigView {
	return &ChatConfigView{
		ID:              c.ID,
		OrganizationID:  c.OrganizationID,
		BaseURL:         c.BaseURL,
		WorkflowID:      c.WorkflowID,
		CompanyName:     c.CompanyName,
		LogoURL:         c.LogoURL,
		PrimaryColor:    c.PrimaryColor,
		SecondaryColor:  c.SecondaryColor,
		WelcomeMessage:  c.WelcomeMessage,
		ChatTitle:       c.ChatTitle,
		PlaceholderText: c.PlaceholderText,
		IsEnabled:       c.IsEnabled,
		PublicSlug:      c.PublicSlug,
		HasAPIKey:       c.HasAPIKey(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// Defaults used by the public chat page when a branding field is unset.
const (
	DefaultPrimaryColor    = "#3B82F6"
	DefaultSecondaryColor  = "#10B981"
	DefaultCompanyName     = "Support"
	DefaultChatTitle       = "Chat Support"
	DefaultWelcomeMessage  = "Hello! How can I help you today?"
	DefaultPlaceholderText = "Type your message here..."
	DefaultPageDescription = "Get help and support through our chat interface"
)

// PublicChatView is what an anonymous browser receives for a slug. It never
// carries the relay target or its credential.
type PublicChatView struct {
	ID              uint    `json:"id"`
	PublicSlug      string  `json:"publicSlug"`
	CompanyName     string  `json:"companyName"`
	LogoURL         *string `json:"logoUrl"`
	PrimaryColor    string  `json:"primaryColor"`
	SecondaryColor  string  `json:"secondaryColor"`
	WelcomeMessage  string  `json:"welcomeMessage"`
	ChatTitle       string  `json:"chatTitle"`
	PlaceholderText string  `json:"placeholderText"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
}

func (c *ChatConfig) PublicView() *PublicChatView {
	v := &PublicChatView{
		ID:              c.ID,
		PublicSlug:      c.PublicSlug,
		CompanyName:     valueOr(c.CompanyName, DefaultCompanyName),
		PrimaryColor:    valueOr(c.PrimaryColor, DefaultPrimaryColor),
		SecondaryColor:  valueOr(c.SecondaryColor, DefaultSecondaryColor),
		WelcomeMessage:  valueOr(c.WelcomeMessage, DefaultWelcomeMessage),
		ChatTitle:       valueOr(c.ChatTitle, DefaultChatTitle),
		PlaceholderText: valueOr(c.PlaceholderText, DefaultPlaceholderText),
		Title:           valueOr(c.ChatTitle, "Chat") + " - " + valueOr(c.CompanyName, "Support"),
		Description:     valueOr(c.WelcomeMessage, DefaultPageDescription),
	}
	if c.LogoURL != nil && *c.LogoURL != "" {
		v.LogoURL = c.LogoURL
	}
	return v
}

// DebugView is the row summary exposed by the debug listing.
type DebugView struct {
	ID             uint    `json:"id"`
	OrganizationID string  `json:"organizationId"`
	PublicSlug     string  `json:"publicSlug"`
	CompanyName    *string `json:"companyName"`
	IsEnabled      bool    `json:"isEnabled"`
	BaseURL        string  `json:"baseUrl"`
	WorkflowID     string  `json:"workflowId"`
	HasAPIKey      bool    `json:"hasApiKey"`
}

func (c *ChatConfig) DebugView() DebugView {
	return DebugView{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		PublicSlug:     c.PublicSlug,
		CompanyName:    c.CompanyName,
		IsEnabled:      c.IsEnabled,
		BaseURL:        c.BaseURL,
		WorkflowID:     c.WorkflowID,
		HasAPIKey:      c.HasAPIKey(),
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
