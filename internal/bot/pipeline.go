// Package bot contém o pipeline de decisão de mensagens recebidas: a cadeia
// horário comercial → auto-resposta → fluxo → IA que decide o que o bot
// responde em cada mensagem.
package bot

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/ai"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

// Transport é o cliente WhatsApp visto pelo pipeline: entrega texto e busca
// o perfil do remetente sob demanda.
type Transport interface {
	SendText(ctx context.Context, phone, content string) error
	ContactProfile(ctx context.Context, phone string) (name, profilePic string)
}

// Notifier publica eventos para os clientes do dashboard. A entrega é
// melhor-esforço; o pipeline não depende de confirmação.
type Notifier interface {
	Publish(event string, payload any)
}

// InboundMessage é o evento de mensagem recebida já normalizado pelo
// transporte.
type InboundMessage struct {
	From     string
	Content  string
	Type     model.MessageType
	IsFromMe bool
	IsGroup  bool
	PushName string
}

const aiContextWindow = 10

// contextLimit é o tamanho da janela persistida de ConversationContext.
const contextLimit = 20

type Pipeline struct {
	contacts      storage.ContactRepository
	conversations storage.ConversationRepository
	messages      storage.MessageRepository
	botConfig     storage.BotConfigRepository
	autoReplies   storage.AutoReplyRepository
	flows         storage.FlowRepository
	contexts      storage.ContextRepository
	transport     Transport
	notifier      Notifier
	responder     ai.Responder
	log           *zap.Logger

	// injetáveis em teste
	sleep func(time.Duration)
	now   func() time.Time
}

type PipelineOptions struct {
	Contacts      storage.ContactRepository
	Conversations storage.ConversationRepository
	Messages      storage.MessageRepository
	BotConfig     storage.BotConfigRepository
	AutoReplies   storage.AutoReplyRepository
	Flows         storage.FlowRepository
	Contexts      storage.ContextRepository
	Transport     Transport
	Notifier      Notifier
	Responder     ai.Responder
	Logger        *zap.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	return &Pipeline{
		contacts:      opts.Contacts,
		conversations: opts.Conversations,
		messages:      opts.Messages,
		botConfig:     opts.BotConfig,
		autoReplies:   opts.AutoReplies,
		flows:         opts.Flows,
		contexts:      opts.Contexts,
		transport:     opts.Transport,
		notifier:      opts.Notifier,
		responder:     opts.Responder,
		log:           opts.Logger,
		sleep:         time.Sleep,
		now:           time.Now,
	}
}

// Handle processa um evento de mensagem recebida do início ao fim, parando no
// primeiro estágio que produz uma resposta ou uma decisão terminal. Falhas de
// envio nos estágios de resposta nunca desfazem a persistência da mensagem
// recebida.
func (p *Pipeline) Handle(ctx context.Context, in InboundMessage) error {
	if in.IsGroup || in.IsFromMe {
		return nil
	}

	contact, err := p.contacts.GetByPhone(ctx, in.From)
	if err != nil {
		if err != storage.ErrNotFound {
			return err
		}
		name, profilePic := in.PushName, ""
		if p.transport != nil {
			if n, pic := p.transport.ContactProfile(ctx, in.From); n != "" || pic != "" {
				if n != "" {
					name = n
				}
				profilePic = pic
			}
		}
		contact, err = p.contacts.FindOrCreate(ctx, in.From, name, profilePic)
		if err != nil {
			return err
		}
	}

	if contact.IsBlocked {
		p.log.Debug("mensagem de contato bloqueado ignorada", zap.String("phone", in.From))
		return nil
	}

	conversation, err := p.conversations.FindOrCreateActive(ctx, contact.ID)
	if err != nil {
		return err
	}

	receivedAt := p.now()
	msg, err := p.messages.Create(ctx, model.Message{
		ConversationID: conversation.ID,
		Content:        in.Content,
		Type:           in.Type,
		Direction:      model.DirectionIncoming,
		IsFromBot:      false,
		SentAt:         receivedAt,
	})
	if err != nil {
		return err
	}

	if err := p.conversations.IncrementUnread(ctx, conversation.ID, receivedAt); err != nil {
		p.log.Warn("erro ao atualizar conversa", zap.String("conversation_id", conversation.ID), zap.Error(err))
	}

	p.publishMessage(msg, conversation, &contact)

	cfg, err := p.botConfig.Get(ctx)
	if err != nil {
		p.log.Warn("erro ao carregar configuração do bot", zap.Error(err))
		return nil
	}

	if !cfg.IsActive {
		return nil
	}

	if !IsOpen(cfg.BusinessHoursStart, cfg.BusinessHoursEnd, cfg.BusinessDays, p.now()) {
		if cfg.AwayMessage != "" {
			p.humanDelay(1*time.Second, 3*time.Second)
			p.reply(ctx, conversation.ID, in.From, in.Content, cfg.AwayMessage)
		}
		return nil
	}

	if reply, ok := p.matchAutoReply(ctx, in.Content); ok {
		p.humanDelay(1*time.Second, 3*time.Second)
		p.reply(ctx, conversation.ID, in.From, in.Content, reply.Response)
		return nil
	}

	if flow, ok := p.matchFlow(ctx, in.Content); ok {
		p.humanDelay(1*time.Second, 3*time.Second)
		p.runFlow(ctx, conversation.ID, in.From, flow)
		return nil
	}

	if cfg.AIProvider != "" {
		p.aiFallback(ctx, conversation.ID, in.From, in.Content, cfg)
	}
	return nil
}

func (p *Pipeline) matchAutoReply(ctx context.Context, content string) (model.AutoReply, bool) {
	replies, err := p.autoReplies.ListActive(ctx)
	if err != nil {
		p.log.Warn("erro ao listar auto-respostas", zap.Error(err))
		return model.AutoReply{}, false
	}
	for _, reply := range replies {
		if Matches(content, reply.Trigger, reply.TriggerType) {
			return reply, true
		}
	}
	return model.AutoReply{}, false
}

func (p *Pipeline) matchFlow(ctx context.Context, content string) (model.Flow, bool) {
	flows, err := p.flows.ListActive(ctx)
	if err != nil {
		p.log.Warn("erro ao listar fluxos", zap.Error(err))
		return model.Flow{}, false
	}
	for _, flow := range flows {
		if Matches(content, flow.Trigger, flow.TriggerType) {
			return flow, true
		}
	}
	return model.Flow{}, false
}

func (p *Pipeline) aiFallback(ctx context.Context, conversationID, phone, content string, cfg model.BotConfig) {
	recent, err := p.messages.ListByConversation(ctx, conversationID, aiContextWindow)
	if err != nil {
		p.log.Warn("erro ao buscar contexto da conversa", zap.Error(err))
		return
	}

	// ListByConversation devolve em ordem decrescente; a IA recebe do mais
	// antigo para o mais recente.
	history := make([]ai.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		role := ai.RoleAssistant
		if recent[i].Direction == model.DirectionIncoming {
			role = ai.RoleUser
		}
		history = append(history, ai.Message{Role: role, Content: recent[i].Content})
	}

	response, err := p.responder.Respond(ctx, content, history, ai.GenerationConfig{
		Provider:     cfg.AIProvider,
		Model:        cfg.AIModel,
		Temperature:  cfg.AITemperature,
		MaxTokens:    cfg.AIMaxTokens,
		SystemPrompt: cfg.SystemPrompt,
	})
	if err != nil || response == "" {
		// Sem resposta da IA o cliente simplesmente não recebe nada;
		// erros internos nunca chegam ao usuário final.
		return
	}

	p.humanDelay(1500*time.Millisecond, 4*time.Second)
	p.reply(ctx, conversationID, phone, content, response)
}

// reply é o envio de resposta do bot mais a contabilidade em volta dele.
// Uma falha do transporte é registrada e engolida aqui.
func (p *Pipeline) reply(ctx context.Context, conversationID, phone, inbound, content string) {
	if err := p.sendBotMessage(ctx, conversationID, phone, content); err != nil {
		return
	}
	p.updateContext(ctx, conversationID, inbound, content)
}

// sendBotMessage entrega via transporte e registra a mensagem OUTGOING. É a
// rotina compartilhada por away-message, auto-resposta, fluxo e IA.
func (p *Pipeline) sendBotMessage(ctx context.Context, conversationID, phone, content string) error {
	if err := p.transport.SendText(ctx, phone, content); err != nil {
		p.log.Error("erro ao enviar mensagem do bot",
			zap.String("phone", phone),
			zap.Error(err),
		)
		return err
	}

	sentAt := p.now()
	msg, err := p.messages.Create(ctx, model.Message{
		ConversationID: conversationID,
		Content:        content,
		Type:           model.MessageTypeText,
		Direction:      model.DirectionOutgoing,
		IsFromBot:      true,
		SentAt:         sentAt,
	})
	if err != nil {
		p.log.Error("erro ao persistir mensagem do bot", zap.Error(err))
		return nil
	}

	if err := p.conversations.TouchLastMessage(ctx, conversationID, sentAt); err != nil {
		p.log.Warn("erro ao atualizar lastMessageAt", zap.Error(err))
	}

	conversation, err := p.conversations.GetByID(ctx, conversationID)
	if err == nil {
		p.publishMessage(msg, conversation, nil)
	}
	return nil
}

// updateContext acrescenta o turno (usuário, bot) à janela persistida,
// mantendo apenas os últimos 20 itens.
func (p *Pipeline) updateContext(ctx context.Context, conversationID, userTurn, botTurn string) {
	current, err := p.contexts.Get(ctx, conversationID)
	if err != nil && err != storage.ErrNotFound {
		p.log.Warn("erro ao carregar contexto", zap.Error(err))
		return
	}

	messages := append(current.Messages,
		model.ContextMessage{Role: ai.RoleUser, Content: userTurn},
		model.ContextMessage{Role: ai.RoleAssistant, Content: botTurn},
	)
	if len(messages) > contextLimit {
		messages = messages[len(messages)-contextLimit:]
	}

	if err := p.contexts.Upsert(ctx, conversationID, messages); err != nil {
		p.log.Warn("erro ao salvar contexto", zap.Error(err))
	}
}

func (p *Pipeline) publishMessage(msg model.Message, conversation model.Conversation, contact *model.Contact) {
	if p.notifier == nil {
		return
	}
	if contact != nil {
		conversation.Contact = contact
	}
	p.notifier.Publish("message:new", map[string]any{
		"message":      msg,
		"conversation": conversation,
	})
}

// humanDelay espera um intervalo aleatório dentro de [min, max] antes de uma
// resposta do bot, para não responder com cadência de máquina.
func (p *Pipeline) humanDelay(min, max time.Duration) {
	p.sleep(min + time.Duration(rand.Int63n(int64(max-min)+1)))
}
