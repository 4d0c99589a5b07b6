// Package server assembles the HTTP engine from configuration and
// dependencies.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/handlers"
	"github.com/axiestudio/embedded-chat/internal/middleware"
	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

const Version = "1.0.0"

// Dependencies are the collaborators the router wires together. Redis is
// optional and may be nil.
type Dependencies struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Configs handlers.ChatConfigService
	Relayer services.Relayer
	Tokens  middleware.TokenValidator
	DB      handlers.Pinger
	Redis   handlers.Pinger
}

// HandlerContainer holds all initialized handlers
type HandlerContainer struct {
	ChatConfigHandler *handlers.ChatConfigHandler
	ChatHandler       *handlers.ChatHandler
	PublicChatHandler *handlers.PublicChatHandler
	DebugHandler      *handlers.DebugHandler
	HealthHandler     *handlers.HealthHandler
}

func initializeHandlers(deps Dependencies, logger utils.Logger) *HandlerContainer {
	return &HandlerContainer{
		ChatConfigHandler: handlers.NewChatConfigHandler(deps.Configs, deps.Relayer, logger),
		ChatHandler:       handlers.NewChatHandler(deps.Configs, deps.Relayer, logger),
		PublicChatHandler: handlers.NewPublicChatHandler(deps.Configs, logger),
		DebugHandler:      handlers.NewDebugHandler(deps.Configs, logger),
		HealthHandler:     handlers.NewHealthHandler(deps.DB, deps.Redis, Version, deps.Config.App.Env),
	}
}

// NewRouter builds the gin engine with every route mounted
func NewRouter(deps Dependencies) *gin.Engine {
	handlers.RegisterValidation()

	logger := utils.NewAppLogger(deps.Logger)
	h := initializeHandlers(deps, logger)
	jwt := middleware.NewJWTMiddleware(deps.Tokens)

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(deps.Config.CORS))

	// Health endpoints
	router.GET("/health", h.HealthHandler.Health)
	router.GET("/ready", h.HealthHandler.Readiness)
	router.GET("/live", h.HealthHandler.Liveness)

	api := router.Group("/api")

	// Organization-scoped configuration
	cfgGroup := api.Group("/config")
	cfgGroup.Use(jwt.AuthRequired(), jwt.RequireOrganization())
	{
		cfgGroup.GET("", h.ChatConfigHandler.GetConfig)
		cfgGroup.POST("", h.ChatConfigHandler.SaveConfig)
		cfgGroup.PUT("", h.ChatConfigHandler.UpdateConfig)
		cfgGroup.DELETE("", h.ChatConfigHandler.DeleteConfig)
		cfgGroup.POST("/test", h.ChatConfigHandler.TestConnection)
	}

	// Public chat surface
	api.POST("/chat/send", h.ChatHandler.SendMessage)
	api.GET("/public/chat/:slug", h.PublicChatHandler.GetChat)

	if deps.Config.App.Debug {
		api.GET("/debug/configs", h.DebugHandler.ListConfigs)
	}

	router.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "Route not found", nil)
	})

	return router
}
