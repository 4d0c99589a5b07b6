package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/internal/models"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

// DebugHandler lists every configuration. Mounted only when APP_DEBUG is set.
type DebugHandler struct {
	configs ChatConfigService
	logger  utils.Logger
}

func NewDebugHandler(configs ChatConfigService, logger utils.Logger) *DebugHandler {
	return &DebugHandler{configs: configs, logger: logger}
}

func (h *DebugHandler) ListConfigs(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	views := make([]models.DebugView, 0, len(configs))
	for _, cfg := range configs {
		views = append(views, cfg.DebugView())
	}

	h.logger.WithContext(c.Request.Context()).Debug("Listed chat configurations", utils.LogFields{
		"count": len(views),
	})
	utils.OKWithMessage(c, "All chat configurations", views)
}
