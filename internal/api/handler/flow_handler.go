package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type FlowHandler struct {
	flows storage.FlowRepository
}

func NewFlowHandler(flows storage.FlowRepository) *FlowHandler {
	return &FlowHandler{flows: flows}
}

func (h *FlowHandler) Register(r *gin.RouterGroup) {
	r.GET("/flows", h.list)
	r.GET("/flows/:id", h.get)
	r.POST("/flows", h.create)
	r.PUT("/flows/:id", h.update)
	r.DELETE("/flows/:id", h.delete)
	r.PUT("/flows/:id/toggle", h.toggle)
	r.POST("/flows/:id/duplicate", h.duplicate)
}

func (h *FlowHandler) list(c *gin.Context) {
	flows, err := h.flows.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if flows == nil {
		flows = []model.Flow{}
	}
	response.Success(c, http.StatusOK, flows)
}

func (h *FlowHandler) get(c *gin.Context) {
	flow, err := h.flows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "fluxo não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, flow)
}

type flowRequest struct {
	Name        string            `json:"name" binding:"required"`
	Trigger     string            `json:"trigger" binding:"required"`
	TriggerType model.TriggerType `json:"triggerType" binding:"required,oneof=EXACT CONTAINS REGEX"`
	Steps       []model.FlowStep  `json:"steps" binding:"required,min=1"`
	IsActive    *bool             `json:"isActive"`
}

func (h *FlowHandler) create(c *gin.Context) {
	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	flow, err := h.flows.Create(c.Request.Context(), model.Flow{
		Name:        req.Name,
		Trigger:     req.Trigger,
		TriggerType: req.TriggerType,
		Steps:       req.Steps,
		IsActive:    isActive,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusCreated, flow)
}

func (h *FlowHandler) update(c *gin.Context) {
	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	flow, err := h.flows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "fluxo não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	flow.Name = req.Name
	flow.Trigger = req.Trigger
	flow.TriggerType = req.TriggerType
	flow.Steps = req.Steps
	if req.IsActive != nil {
		flow.IsActive = *req.IsActive
	}

	updated, err := h.flows.Update(c.Request.Context(), flow)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *FlowHandler) delete(c *gin.Context) {
	if err := h.flows.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "fluxo não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "fluxo removido"})
}

func (h *FlowHandler) toggle(c *gin.Context) {
	flow, err := h.flows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "fluxo não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	flow.IsActive = !flow.IsActive
	updated, err := h.flows.Update(c.Request.Context(), flow)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// duplicate cria uma cópia inativa do fluxo, pronta para edição.
func (h *FlowHandler) duplicate(c *gin.Context) {
	flow, err := h.flows.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "fluxo não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	copy := model.Flow{
		Name:        flow.Name + " (cópia)",
		Trigger:     flow.Trigger,
		TriggerType: flow.TriggerType,
		Steps:       flow.Steps,
		IsActive:    false,
	}

	created, err := h.flows.Create(c.Request.Context(), copy)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusCreated, created)
}
