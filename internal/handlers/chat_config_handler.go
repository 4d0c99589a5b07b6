package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/internal/middleware"
	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

// ChatConfigService is the configuration lifecycle the handlers depend on.
type ChatConfigService interface {
	GetByOrganization(ctx context.Context, orgID string) (*models.ChatConfig, error)
	Upsert(ctx context.Context, orgID string, fields services.ChatConfigFields) (*models.ChatConfig, error)
	Update(ctx context.Context, orgID string, fields services.ChatConfigFields) (*models.ChatConfig, error)
	Delete(ctx context.Context, orgID string) (*models.ChatConfig, error)
	ResolvePublic(ctx context.Context, slug string) (*models.ChatConfig, error)
	ResolveChat(ctx context.Context, id uint) (*models.ChatConfig, error)
	List(ctx context.Context) ([]*models.ChatConfig, error)
}

type ChatConfigHandler struct {
	configs ChatConfigService
	relayer services.Relayer
	logger  utils.Logger
}

// SaveChatConfigRequest creates or replaces the organization's configuration
type SaveChatConfigRequest struct {
	BaseURL         string  `json:"baseUrl" binding:"required,url"`
	WorkflowID      string  `json:"workflowId" binding:"required"`
	APIKey          string  `json:"apiKey" binding:"required"`
	CompanyName     *string `json:"companyName"`
	LogoURL         *string `json:"logoUrl" binding:"omitnil,url_or_empty"`
	PrimaryColor    *string `json:"primaryColor"`
	SecondaryColor  *string `json:"secondaryColor"`
	WelcomeMessage  *string `json:"welcomeMessage"`
	ChatTitle       *string `json:"chatTitle"`
	PlaceholderText *string `json:"placeholderText"`
	IsEnabled       *bool   `json:"isEnabled"`
	PublicSlug      *string `json:"publicSlug"`
}

func (r *SaveChatConfigRequest) fields() services.ChatConfigFields {
	return services.ChatConfigFields{
		BaseURL:         &r.BaseURL,
		WorkflowID:      &r.WorkflowID,
		APIKey:          &r.APIKey,
		CompanyName:     r.CompanyName,
		LogoURL:         r.LogoURL,
		PrimaryColor:    r.PrimaryColor,
		SecondaryColor:  r.SecondaryColor,
		WelcomeMessage:  r.WelcomeMessage,
		ChatTitle:       r.ChatTitle,
		PlaceholderText: r.PlaceholderText,
		IsEnabled:       r.IsEnabled,
		PublicSlug:      r.PublicSlug,
	}
}

// UpdateChatConfigRequest is the partial form: every field is optional but
// validated when present. The public slug cannot be changed.
type UpdateChatConfigRequest struct {
	BaseURL         *string `json:"baseUrl" binding:"omitnil,url"`
	WorkflowID      *string `json:"workflowId" binding:"omitnil,min=1"`
	APIKey          *string `json:"apiKey" binding:"omitnil,min=1"`
	CompanyName     *string `json:"companyName"`
	LogoURL         *string `json:"logoUrl" binding:"omitnil,url_or_empty"`
	PrimaryColor    *string `json:"primaryColor"`
	SecondaryColor  *string `json:"secondaryColor"`
	WelcomeMessage  *string `json:"welcomeMessage"`
	ChatTitle       *string `json:"chatTitle"`
	PlaceholderText *string `json:"placeholderText"`
	IsEnabled       *bool   `json:"isEnabled"`
	PublicSlug      *string `json:"publicSlug"`
}

func (r *UpdateChatConfigRequest) fields() services.ChatConfigFields {
	return services.ChatConfigFields{
		BaseURL:         r.BaseURL,
		WorkflowID:      r.WorkflowID,
		APIKey:          r.APIKey,
		CompanyName:     r.CompanyName,
		LogoURL:         r.LogoURL,
		PrimaryColor:    r.PrimaryColor,
		SecondaryColor:  r.SecondaryColor,
		WelcomeMessage:  r.WelcomeMessage,
		ChatTitle:       r.ChatTitle,
		PlaceholderText: r.PlaceholderText,
		IsEnabled:       r.IsEnabled,
	}
}

type TestConnectionRequest struct {
	BaseURL     string `json:"baseUrl" binding:"required,url"`
	WorkflowID  string `json:"workflowId" binding:"required"`
	APIKey      string `json:"apiKey" binding:"required"`
	TestMessage string `json:"testMessage"`
}

func NewChatConfigHandler(configs ChatConfigService, relayer services.Relayer, logger utils.Logger) *ChatConfigHandler {
	return &ChatConfigHandler{
		configs: configs,
		relayer: relayer,
		logger:  logger,
	}
}

// GetConfig returns the caller's configuration without its API key
func (h *ChatConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configs.GetByOrganization(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.OK(c, cfg.View())
}

// SaveConfig creates the configuration or replaces the provided fields
func (h *ChatConfigHandler) SaveConfig(c *gin.Context) {
	var req SaveChatConfigRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	cfg, err := h.configs.Upsert(c.Request.Context(), middleware.GetOrganizationID(c), req.fields())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.OKWithMessage(c, "Chat configuration saved successfully", cfg.View())
}

// UpdateConfig applies a partial update to an existing configuration
func (h *ChatConfigHandler) UpdateConfig(c *gin.Context) {
	var req UpdateChatConfigRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	cfg, err := h.configs.Update(c.Request.Context(), middleware.GetOrganizationID(c), req.fields())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.OKWithMessage(c, "Chat configuration updated successfully", cfg.View())
}

// DeleteConfig removes the configuration and with it public access
func (h *ChatConfigHandler) DeleteConfig(c *gin.Context) {
	if _, err := h.configs.Delete(c.Request.Context(), middleware.GetOrganizationID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.OKWithMessage(c, "Chat configuration deleted successfully", nil)
}

// TestConnection relays a diagnostic message to the given target. Nothing is
// stored.
func (h *ChatConfigHandler) TestConnection(c *gin.Context) {
	var req TestConnectionRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result := h.relayer.TestConnection(c.Request.Context(), services.RelayTarget{
		BaseURL:    req.BaseURL,
		WorkflowID: req.WorkflowID,
		APIKey:     req.APIKey,
	}, req.TestMessage, "")

	if !result.Success {
		h.logger.WithContext(c.Request.Context()).Warn("Connection test failed", utils.LogFields{
			"workflow_id": req.WorkflowID,
			"error":       result.Error,
		})
		utils.Failure(c, http.StatusBadRequest, result.Message, result.Error)
		return
	}
	utils.Success(c, http.StatusOK, result.Message, result.Data)
}
