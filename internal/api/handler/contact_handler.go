package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type ContactHandler struct {
	contacts      storage.ContactRepository
	conversations storage.ConversationRepository
}

func NewContactHandler(contacts storage.ContactRepository, conversations storage.ConversationRepository) *ContactHandler {
	return &ContactHandler{contacts: contacts, conversations: conversations}
}

func (h *ContactHandler) Register(r *gin.RouterGroup) {
	r.GET("/contacts", h.list)
	r.GET("/contacts/tags/list", h.listTags)
	r.GET("/contacts/:id", h.get)
	r.PUT("/contacts/:id", h.update)
	r.DELETE("/contacts/:id", h.delete)
	r.POST("/contacts/:id/block", h.block)
	r.POST("/contacts/:id/unblock", h.unblock)
}

// list filtra por busca/tag/bloqueio em memória. O volume de contatos de um
// dashboard não justifica empurrar esses filtros para o SQL dos dois drivers.
func (h *ContactHandler) list(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	tag := c.Query("tag")
	blockedParam := c.Query("blocked")

	filtered := contacts[:0:0]
	for _, contact := range contacts {
		if search != "" &&
			!strings.Contains(strings.ToLower(contact.Name), search) &&
			!strings.Contains(contact.Phone, search) {
			continue
		}
		if blockedParam != "" && contact.IsBlocked != (blockedParam == "true") {
			continue
		}
		if tag != "" && !hasTag(contact.Tags, tag) {
			continue
		}
		filtered = append(filtered, contact)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       filtered[start:end],
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": (total + limit - 1) / limit,
	})
}

func (h *ContactHandler) get(c *gin.Context) {
	contact, err := h.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "contato não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

type updateContactRequest struct {
	Name      *string   `json:"name"`
	Tags      *[]string `json:"tags"`
	IsBlocked *bool     `json:"isBlocked"`
}

func (h *ContactHandler) update(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	contact, err := h.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "contato não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Tags != nil {
		contact.Tags = *req.Tags
	}
	if req.IsBlocked != nil {
		contact.IsBlocked = *req.IsBlocked
	}

	updated, err := h.contacts.Update(c.Request.Context(), contact)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *ContactHandler) delete(c *gin.Context) {
	if err := h.contacts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "contato não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "contato removido com sucesso"})
}

// block marca o contato como bloqueado e move suas conversas ativas para
// BLOCKED, tirando-as da caixa de entrada.
func (h *ContactHandler) block(c *gin.Context) {
	h.setBlocked(c, true)
}

func (h *ContactHandler) unblock(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *ContactHandler) setBlocked(c *gin.Context, blocked bool) {
	id := c.Param("id")

	if err := h.contacts.SetBlocked(c.Request.Context(), id, blocked); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "contato não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if blocked {
		if err := h.conversations.UpdateStatusByContact(c.Request.Context(), id, model.ConversationActive, model.ConversationBlocked); err != nil {
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
	}

	contact, err := h.contacts.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

func (h *ContactHandler) listTags(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	seen := map[string]struct{}{}
	for _, contact := range contacts {
		for _, tag := range contact.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	response.Success(c, http.StatusOK, tags)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
