package handler

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type AutoReplyHandler struct {
	replies storage.AutoReplyRepository
}

func NewAutoReplyHandler(replies storage.AutoReplyRepository) *AutoReplyHandler {
	return &AutoReplyHandler{replies: replies}
}

func (h *AutoReplyHandler) Register(r *gin.RouterGroup) {
	r.GET("/auto-replies", h.list)
	r.GET("/auto-replies/:id", h.get)
	r.POST("/auto-replies", h.create)
	r.PUT("/auto-replies/:id", h.update)
	r.DELETE("/auto-replies/:id", h.delete)
	r.PUT("/auto-replies/:id/toggle", h.toggle)
}

func (h *AutoReplyHandler) list(c *gin.Context) {
	replies, err := h.replies.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if replies == nil {
		replies = []model.AutoReply{}
	}
	response.Success(c, http.StatusOK, replies)
}

func (h *AutoReplyHandler) get(c *gin.Context) {
	reply, err := h.replies.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "resposta automática não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, reply)
}

type autoReplyRequest struct {
	Trigger     string            `json:"trigger" binding:"required"`
	TriggerType model.TriggerType `json:"triggerType" binding:"required,oneof=EXACT CONTAINS REGEX"`
	Response    string            `json:"response" binding:"required"`
	IsActive    *bool             `json:"isActive"`
	Priority    int               `json:"priority"`
}

func (h *AutoReplyHandler) create(c *gin.Context) {
	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	if req.TriggerType == model.TriggerRegex {
		if _, err := regexp.Compile("(?i)" + req.Trigger); err != nil {
			response.ErrorWithMessage(c, http.StatusBadRequest, "expressão regular inválida")
			return
		}
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	reply, err := h.replies.Create(c.Request.Context(), model.AutoReply{
		Trigger:     req.Trigger,
		TriggerType: req.TriggerType,
		Response:    req.Response,
		IsActive:    isActive,
		Priority:    req.Priority,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusCreated, reply)
}

func (h *AutoReplyHandler) update(c *gin.Context) {
	var req autoReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	if req.TriggerType == model.TriggerRegex {
		if _, err := regexp.Compile("(?i)" + req.Trigger); err != nil {
			response.ErrorWithMessage(c, http.StatusBadRequest, "expressão regular inválida")
			return
		}
	}

	reply, err := h.replies.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "resposta automática não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	reply.Trigger = req.Trigger
	reply.TriggerType = req.TriggerType
	reply.Response = req.Response
	reply.Priority = req.Priority
	if req.IsActive != nil {
		reply.IsActive = *req.IsActive
	}

	updated, err := h.replies.Update(c.Request.Context(), reply)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *AutoReplyHandler) delete(c *gin.Context) {
	if err := h.replies.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "resposta automática não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "resposta automática removida"})
}

func (h *AutoReplyHandler) toggle(c *gin.Context) {
	reply, err := h.replies.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "resposta automática não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	reply.IsActive = !reply.IsActive
	updated, err := h.replies.Update(c.Request.Context(), reply)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}
