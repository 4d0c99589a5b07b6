package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/pkg/utils"
)

type PublicChatHandler struct {
	configs ChatConfigService
	logger  utils.Logger
}

func NewPublicChatHandler(configs ChatConfigService, logger utils.Logger) *PublicChatHandler {
	return &PublicChatHandler{configs: configs, logger: logger}
}

// GetChat returns the branding a public chat page renders for a slug.
// Disabled and unknown slugs both answer 404.
func (h *PublicChatHandler) GetChat(c *gin.Context) {
	cfg, err := h.configs.ResolvePublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SetCacheHeaders(c, 0)
	utils.OK(c, cfg.PublicView())
}
