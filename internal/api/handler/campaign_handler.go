package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/campaign"
	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type CampaignHandler struct {
	campaigns storage.CampaignRepository
	engine    *campaign.Engine
}

func NewCampaignHandler(campaigns storage.CampaignRepository, engine *campaign.Engine) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, engine: engine}
}

func (h *CampaignHandler) Register(r *gin.RouterGroup) {
	r.GET("/campaigns", h.list)
	r.GET("/campaigns/:id", h.get)
	r.POST("/campaigns", h.create)
	r.PUT("/campaigns/:id", h.update)
	r.DELETE("/campaigns/:id", h.delete)
	r.POST("/campaigns/:id/start", h.start)
	r.POST("/campaigns/:id/pause", h.pause)
	r.POST("/campaigns/:id/cancel", h.cancel)
	r.GET("/campaigns/:id/logs", h.logs)
}

func (h *CampaignHandler) list(c *gin.Context) {
	status := model.CampaignStatus(c.Query("status"))

	campaigns, err := h.campaigns.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if campaigns == nil {
		campaigns = []model.Campaign{}
	}
	response.Success(c, http.StatusOK, campaigns)
}

func (h *CampaignHandler) get(c *gin.Context) {
	cmp, err := h.campaigns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "campanha não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, cmp)
}

type campaignRequest struct {
	Name           string                   `json:"name" binding:"required"`
	Message        string                   `json:"message" binding:"required"`
	MediaURL       string                   `json:"mediaUrl"`
	TargetType     model.CampaignTargetType `json:"targetType" binding:"required,oneof=ALL TAGS SELECTED"`
	TargetTags     []string                 `json:"targetTags"`
	TargetContacts []string                 `json:"targetContacts"`
	ScheduledAt    *time.Time               `json:"scheduledAt"`
	DelayBetweenMs int                      `json:"delayBetween"`
}

func (h *CampaignHandler) create(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	if msg := validateTargets(req); msg != "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, msg)
		return
	}

	status := model.CampaignDraft
	if req.ScheduledAt != nil {
		status = model.CampaignScheduled
	}

	cmp, err := h.campaigns.Create(c.Request.Context(), model.Campaign{
		Name:           req.Name,
		Message:        req.Message,
		MediaURL:       req.MediaURL,
		TargetType:     req.TargetType,
		TargetTags:     req.TargetTags,
		TargetContacts: req.TargetContacts,
		ScheduledAt:    req.ScheduledAt,
		DelayBetweenMs: req.DelayBetweenMs,
		Status:         status,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusCreated, cmp)
}

// update só é permitido antes da campanha rodar (DRAFT ou SCHEDULED).
func (h *CampaignHandler) update(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	if msg := validateTargets(req); msg != "" {
		response.ErrorWithMessage(c, http.StatusBadRequest, msg)
		return
	}

	cmp, err := h.campaigns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "campanha não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if cmp.Status != model.CampaignDraft && cmp.Status != model.CampaignScheduled {
		response.ErrorWithMessage(c, http.StatusConflict, "campanha não pode ser editada neste estado")
		return
	}

	cmp.Name = req.Name
	cmp.Message = req.Message
	cmp.MediaURL = req.MediaURL
	cmp.TargetType = req.TargetType
	cmp.TargetTags = req.TargetTags
	cmp.TargetContacts = req.TargetContacts
	cmp.ScheduledAt = req.ScheduledAt
	cmp.DelayBetweenMs = req.DelayBetweenMs
	if req.ScheduledAt != nil {
		cmp.Status = model.CampaignScheduled
	} else {
		cmp.Status = model.CampaignDraft
	}

	updated, err := h.campaigns.Update(c.Request.Context(), cmp)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *CampaignHandler) delete(c *gin.Context) {
	cmp, err := h.campaigns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "campanha não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if cmp.Status == model.CampaignRunning {
		response.ErrorWithMessage(c, http.StatusConflict, "cancele a campanha antes de removê-la")
		return
	}

	if err := h.campaigns.Delete(c.Request.Context(), cmp.ID); err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "campanha removida com sucesso"})
}

func (h *CampaignHandler) start(c *gin.Context) {
	err := h.engine.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.ErrorWithMessage(c, http.StatusNotFound, "campanha não encontrada")
		case errors.Is(err, campaign.ErrAlreadyRunning):
			response.ErrorWithMessage(c, http.StatusConflict, "campanha já está em execução")
		case errors.Is(err, campaign.ErrInvalidState):
			response.ErrorWithMessage(c, http.StatusConflict, "campanha não pode ser iniciada neste estado")
		case errors.Is(err, campaign.ErrNoRecipients):
			response.ErrorWithMessage(c, http.StatusBadRequest, "campanha sem destinatários")
		default:
			response.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	cmp, err := h.campaigns.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, cmp)
}

func (h *CampaignHandler) pause(c *gin.Context) {
	if err := h.engine.Pause(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, campaign.ErrInvalidState) {
			response.ErrorWithMessage(c, http.StatusConflict, "campanha não está em execução")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "campanha pausada"})
}

func (h *CampaignHandler) cancel(c *gin.Context) {
	if err := h.engine.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.ErrorWithMessage(c, http.StatusNotFound, "campanha não encontrada")
		case errors.Is(err, campaign.ErrInvalidState):
			response.ErrorWithMessage(c, http.StatusConflict, "campanha não pode ser cancelada neste estado")
		default:
			response.Error(c, http.StatusInternalServerError, err)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "campanha cancelada"})
}

func (h *CampaignHandler) logs(c *gin.Context) {
	status := model.CampaignLogStatus(c.Query("status"))

	logs, err := h.campaigns.ListLogs(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []model.CampaignLog{}
	}
	response.Success(c, http.StatusOK, logs)
}

func validateTargets(req campaignRequest) string {
	switch req.TargetType {
	case model.TargetTags:
		if len(req.TargetTags) == 0 {
			return "informe ao menos uma tag para o alvo TAGS"
		}
	case model.TargetSelected:
		if len(req.TargetContacts) == 0 {
			return "informe ao menos um contato para o alvo SELECTED"
		}
	}
	return ""
}
