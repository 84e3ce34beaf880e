package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
)

// SessionManager é a visão que o handler tem da sessão de WhatsApp.
type SessionManager interface {
	Status() string
	IsConnected() bool
	QR() (string, error)
	Connect(ctx context.Context) error
	Disconnect()
}

type ConfigHandler struct {
	botConfig storage.BotConfigRepository
	session   SessionManager
	admin     gin.HandlerFunc
}

func NewConfigHandler(botConfig storage.BotConfigRepository, session SessionManager, admin gin.HandlerFunc) *ConfigHandler {
	return &ConfigHandler{botConfig: botConfig, session: session, admin: admin}
}

func (h *ConfigHandler) Register(r *gin.RouterGroup) {
	r.GET("/config", h.get)
	r.PUT("/config", h.admin, h.update)
	r.GET("/config/status", h.status)
	r.GET("/config/qr", h.qr)
	r.POST("/config/restart", h.admin, h.restart)
	r.POST("/config/disconnect", h.admin, h.disconnect)
	r.GET("/config/ai-models", h.aiModels)
}

func (h *ConfigHandler) get(c *gin.Context) {
	cfg, err := h.botConfig.Get(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

type updateConfigRequest struct {
	IsActive           *bool    `json:"isActive"`
	AIProvider         *string  `json:"aiProvider" binding:"omitempty,oneof=gemini openai anthropic"`
	AIModel            *string  `json:"aiModel"`
	AITemperature      *float64 `json:"aiTemperature" binding:"omitempty,min=0,max=2"`
	AIMaxTokens        *int     `json:"aiMaxTokens" binding:"omitempty,min=100,max=4000"`
	WelcomeMessage     *string  `json:"welcomeMessage"`
	AwayMessage        *string  `json:"awayMessage"`
	BusinessHoursStart *string  `json:"businessHoursStart"`
	BusinessHoursEnd   *string  `json:"businessHoursEnd"`
	BusinessDays       *[]int   `json:"businessDays" binding:"omitempty,dive,min=0,max=6"`
	SystemPrompt       *string  `json:"systemPrompt"`
}

func (h *ConfigHandler) update(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	cfg, err := h.botConfig.Get(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}
	if req.AIProvider != nil {
		cfg.AIProvider = *req.AIProvider
	}
	if req.AIModel != nil {
		cfg.AIModel = *req.AIModel
	}
	if req.AITemperature != nil {
		cfg.AITemperature = *req.AITemperature
	}
	if req.AIMaxTokens != nil {
		cfg.AIMaxTokens = *req.AIMaxTokens
	}
	if req.WelcomeMessage != nil {
		cfg.WelcomeMessage = *req.WelcomeMessage
	}
	if req.AwayMessage != nil {
		cfg.AwayMessage = *req.AwayMessage
	}
	if req.BusinessHoursStart != nil {
		cfg.BusinessHoursStart = *req.BusinessHoursStart
	}
	if req.BusinessHoursEnd != nil {
		cfg.BusinessHoursEnd = *req.BusinessHoursEnd
	}
	if req.BusinessDays != nil {
		cfg.BusinessDays = *req.BusinessDays
	}
	if req.SystemPrompt != nil {
		cfg.SystemPrompt = *req.SystemPrompt
	}

	updated, err := h.botConfig.Update(c.Request.Context(), cfg)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *ConfigHandler) status(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":    h.session.Status(),
		"connected": h.session.IsConnected(),
	})
}

func (h *ConfigHandler) qr(c *gin.Context) {
	qr, err := h.session.QR()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if qr == "" {
		response.ErrorWithMessage(c, http.StatusNotFound, "nenhum pareamento pendente")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"qr": qr})
}

func (h *ConfigHandler) restart(c *gin.Context) {
	h.session.Disconnect()
	if err := h.session.Connect(c.Request.Context()); err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "bot reiniciado; escaneie o novo QR code se solicitado"})
}

func (h *ConfigHandler) disconnect(c *gin.Context) {
	h.session.Disconnect()
	response.Success(c, http.StatusOK, gin.H{"message": "bot desconectado com sucesso"})
}

func (h *ConfigHandler) aiModels(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"gemini": []gin.H{
			{"id": "gemini-2.5-flash", "name": "Gemini 2.5 Flash"},
			{"id": "gemini-2.5-pro", "name": "Gemini 2.5 Pro"},
			{"id": "gemini-1.5-flash", "name": "Gemini 1.5 Flash"},
		},
		"openai": []gin.H{
			{"id": "gpt-4o", "name": "GPT-4o"},
			{"id": "gpt-4o-mini", "name": "GPT-4o Mini"},
			{"id": "gpt-4-turbo", "name": "GPT-4 Turbo"},
		},
		"anthropic": []gin.H{
			{"id": "claude-sonnet-4-20250514", "name": "Claude Sonnet 4"},
			{"id": "claude-3-5-haiku-20241022", "name": "Claude 3.5 Haiku"},
		},
	})
}
