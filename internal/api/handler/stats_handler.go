package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type StatsHandler struct {
	contacts      storage.ContactRepository
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
}

func NewStatsHandler(contacts storage.ContactRepository, conversations storage.ConversationRepository, messages storage.MessageRepository) *StatsHandler {
	return &StatsHandler{contacts: contacts, conversations: conversations, messages: messages}
}

func (h *StatsHandler) Register(r *gin.RouterGroup) {
	r.GET("/stats/overview", h.overview)
	r.GET("/stats/messages", h.messageSeries)
}

func (h *StatsHandler) overview(c *gin.Context) {
	ctx := c.Request.Context()

	totalContacts, err := h.contacts.Count(ctx)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	activeConversations, err := h.conversations.CountByStatus(ctx, model.ConversationActive)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	totalMessages, err := h.messages.Count(ctx)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	messagesIn, err := h.messages.CountByDirection(ctx, model.DirectionIncoming)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	messagesOut, err := h.messages.CountByDirection(ctx, model.DirectionOutgoing)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	botMessages, err := h.messages.CountFromBot(ctx)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayMessages, err := h.messages.CountSince(ctx, startOfDay)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"totalContacts":       totalContacts,
		"activeConversations": activeConversations,
		"totalMessages":       totalMessages,
		"messagesIn":          messagesIn,
		"messagesOut":         messagesOut,
		"botMessages":         botMessages,
		"todayMessages":       todayMessages,
	})
}

type dailyStat struct {
	Date     string `json:"date"`
	Incoming int    `json:"incoming"`
	Outgoing int    `json:"outgoing"`
	Bot      int    `json:"bot"`
}

// messageSeries agrega mensagens por dia nos últimos N dias (default 7).
// O agrupamento é feito em memória para manter a mesma query nos dois
// drivers, sem funções de data específicas de cada banco.
func (h *StatsHandler) messageSeries(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 || days > 90 {
		days = 7
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	messages, err := h.messages.ListSince(c.Request.Context(), start)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	stats := map[string]*dailyStat{}
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		stats[key] = &dailyStat{Date: key}
	}

	for _, msg := range messages {
		day, ok := stats[msg.SentAt.Format("2006-01-02")]
		if !ok {
			continue
		}
		if msg.Direction == model.DirectionIncoming {
			day.Incoming++
		} else {
			day.Outgoing++
			if msg.IsFromBot {
				day.Bot++
			}
		}
	}

	series := make([]dailyStat, 0, len(stats))
	for _, day := range stats {
		series = append(series, *day)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	response.Success(c, http.StatusOK, series)
}
