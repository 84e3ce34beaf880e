package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type ConversationHandler struct {
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
	contacts      storage.ContactRepository
}

func NewConversationHandler(conversations storage.ConversationRepository, messages storage.MessageRepository, contacts storage.ContactRepository) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages, contacts: contacts}
}

func (h *ConversationHandler) Register(r *gin.RouterGroup) {
	r.GET("/conversations", h.list)
	r.GET("/conversations/:id", h.get)
	r.GET("/conversations/:id/messages", h.listMessages)
	r.PUT("/conversations/:id/read", h.markRead)
	r.PUT("/conversations/:id/archive", h.archive)
	r.PUT("/conversations/:id/unarchive", h.unarchive)
}

func (h *ConversationHandler) list(c *gin.Context) {
	status := model.ConversationStatus(c.Query("status"))

	conversations, err := h.conversations.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	response.Success(c, http.StatusOK, conversations)
}

func (h *ConversationHandler) get(c *gin.Context) {
	conv, err := h.conversations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "conversa não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if contact, err := h.contacts.GetByID(c.Request.Context(), conv.ContactID); err == nil {
		conv.Contact = &contact
	}

	response.Success(c, http.StatusOK, conv)
}

// listMessages devolve as mensagens em ordem cronológica (mais antiga
// primeiro), prontas para renderização no chat.
func (h *ConversationHandler) listMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.messages.ListByConversation(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	// O repositório devolve em ordem decrescente de sentAt.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []model.Message{}
	}

	response.Success(c, http.StatusOK, messages)
}

func (h *ConversationHandler) markRead(c *gin.Context) {
	if err := h.conversations.ResetUnread(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "conversa não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "conversa marcada como lida"})
}

func (h *ConversationHandler) archive(c *gin.Context) {
	h.setStatus(c, model.ConversationArchived)
}

func (h *ConversationHandler) unarchive(c *gin.Context) {
	h.setStatus(c, model.ConversationActive)
}

func (h *ConversationHandler) setStatus(c *gin.Context, status model.ConversationStatus) {
	if err := h.conversations.UpdateStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "conversa não encontrada")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	conv, err := h.conversations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}
