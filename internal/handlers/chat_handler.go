package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

const relayFailedMessage = "Failed to get response from AI service"

type ChatHandler struct {
	configs ChatConfigService
	relayer services.Relayer
	logger  utils.Logger
}

type SendMessageRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	ConfigID  int64  `json:"configId" binding:"required,gt=0"`
}

type SendMessageResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

func NewChatHandler(configs ChatConfigService, relayer services.Relayer, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		configs: configs,
		relayer: relayer,
		logger:  logger,
	}
}

// SendMessage relays a visitor's message to the configuration's workflow.
// No organization context is needed; the configuration id addresses it.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.configs.ResolveChat(ctx, uint(req.ConfigID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	payload, err := h.relayer.Relay(ctx, services.TargetFor(cfg), req.Message, req.SessionID)
	if err != nil {
		respondError(c, h.logger, services.NewUpstreamError(relayFailedMessage, err))
		return
	}

	utils.OK(c, SendMessageResponse{
		Response:  services.ExtractReply(payload),
		SessionID: req.SessionID,
	})
}
