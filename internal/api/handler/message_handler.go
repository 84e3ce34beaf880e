package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/bot"
	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

// MessageHandler cobre o envio manual a partir do dashboard. O destino pode
// ser uma conversa existente ou um telefone novo (contato e conversa são
// criados na hora).
type MessageHandler struct {
	messages      storage.MessageRepository
	conversations storage.ConversationRepository
	contacts      storage.ContactRepository
	transport     bot.Transport
	notifier      bot.Notifier
}

func NewMessageHandler(
	messages storage.MessageRepository,
	conversations storage.ConversationRepository,
	contacts storage.ContactRepository,
	transport bot.Transport,
	notifier bot.Notifier,
) *MessageHandler {
	return &MessageHandler{
		messages:      messages,
		conversations: conversations,
		contacts:      contacts,
		transport:     transport,
		notifier:      notifier,
	}
}

func (h *MessageHandler) Register(r *gin.RouterGroup) {
	r.POST("/messages/send", h.send)
	r.GET("/messages/:conversationId", h.listByConversation)
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Phone          string `json:"phone"`
	Content        string `json:"content" binding:"required"`
}

func (h *MessageHandler) send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()

	var conversation model.Conversation
	var phone string

	switch {
	case req.ConversationID != "":
		conv, err := h.conversations.GetByID(ctx, req.ConversationID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.ErrorWithMessage(c, http.StatusNotFound, "conversa não encontrada")
				return
			}
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
		contact, err := h.contacts.GetByID(ctx, conv.ContactID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
		conversation = conv
		conversation.Contact = &contact
		phone = contact.Phone

	case req.Phone != "":
		phone = onlyDigits(req.Phone)
		if phone == "" {
			response.ErrorWithMessage(c, http.StatusBadRequest, "telefone inválido")
			return
		}
		contact, err := h.contacts.FindOrCreate(ctx, phone, "", "")
		if err != nil {
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
		conv, err := h.conversations.FindOrCreateActive(ctx, contact.ID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
		conversation = conv
		conversation.Contact = &contact

	default:
		response.ErrorWithMessage(c, http.StatusBadRequest, "informe conversationId ou phone")
		return
	}

	if err := h.transport.SendText(ctx, phone, req.Content); err != nil {
		response.ErrorWithMessage(c, http.StatusBadGateway, "falha ao enviar mensagem pelo WhatsApp")
		return
	}

	msg, err := h.messages.Create(ctx, model.Message{
		ConversationID: conversation.ID,
		Content:        req.Content,
		Type:           model.MessageTypeText,
		Direction:      model.DirectionOutgoing,
		IsFromBot:      false,
		SentAt:         time.Now(),
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.conversations.TouchLastMessage(ctx, conversation.ID, msg.SentAt); err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Publish("message:new", map[string]any{
			"message":      msg,
			"conversation": conversation,
		})
	}

	response.Success(c, http.StatusOK, msg)
}

func (h *MessageHandler) listByConversation(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.messages.ListByConversation(c.Request.Context(), c.Param("conversationId"), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []model.Message{}
	}

	response.Success(c, http.StatusOK, messages)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
