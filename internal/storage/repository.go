package storage

import (
	"context"
	"time"

	"github.com/zapify/zapify/internal/storage/model"
)

// ErrNotFound é o sentinela canônico dos drivers (definido em model para que
// sqlite e postgres possam mapeá-lo sem ciclo de import com a factory).
var ErrNotFound = model.ErrNotFound

// ContactRepository resolve contatos por telefone. FindOrCreate precisa ser
// seguro sob corrida: duas primeiras mensagens simultâneas do mesmo número
// devem resultar em um único contato (conflito na constraint de phone cai em
// re-busca, nunca em erro para o chamador).
type ContactRepository interface {
	FindOrCreate(ctx context.Context, phone, name, profilePic string) (model.Contact, error)
	GetByID(ctx context.Context, id string) (model.Contact, error)
	GetByPhone(ctx context.Context, phone string) (model.Contact, error)
	List(ctx context.Context) ([]model.Contact, error)
	// ListRecipients retorna contatos não bloqueados segundo o seletor da
	// campanha: ALL (tags e ids vazios), TAGS (interseção de tags) ou
	// SELECTED (ids explícitos).
	ListRecipients(ctx context.Context, tags []string, ids []string) ([]model.Contact, error)
	Update(ctx context.Context, contact model.Contact) (model.Contact, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ConversationRepository interface {
	// FindOrCreateActive devolve a conversa ACTIVE do contato, criando uma
	// se não existir. Vale o invariante de no máximo uma ACTIVE por contato.
	FindOrCreateActive(ctx context.Context, contactID string) (model.Conversation, error)
	GetByID(ctx context.Context, id string) (model.Conversation, error)
	List(ctx context.Context, status model.ConversationStatus) ([]model.Conversation, error)
	IncrementUnread(ctx context.Context, id string, lastMessageAt time.Time) error
	ResetUnread(ctx context.Context, id string) error
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.ConversationStatus) error
	// UpdateStatusByContact muda em lote as conversas de um contato que
	// estão em `from` para `to` (usado ao bloquear o contato).
	UpdateStatusByContact(ctx context.Context, contactID string, from, to model.ConversationStatus) error
	CountByStatus(ctx context.Context, status model.ConversationStatus) (int, error)
}

// MessageRepository é append-only: mensagens nunca são alteradas.
type MessageRepository interface {
	Create(ctx context.Context, msg model.Message) (model.Message, error)
	// ListByConversation retorna as últimas `limit` mensagens em ordem
	// decrescente de sentAt (o chamador inverte para exibição).
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	CountByDirection(ctx context.Context, direction model.MessageDirection) (int, error)
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountFromBot(ctx context.Context) (int, error)
	// ListSince devolve as mensagens com sentAt >= since, para os agregados
	// diários do painel de estatísticas.
	ListSince(ctx context.Context, since time.Time) ([]model.Message, error)
}

type BotConfigRepository interface {
	// Get cria a linha "default" na primeira leitura.
	Get(ctx context.Context) (model.BotConfig, error)
	Update(ctx context.Context, cfg model.BotConfig) (model.BotConfig, error)
}

type AutoReplyRepository interface {
	Create(ctx context.Context, reply model.AutoReply) (model.AutoReply, error)
	GetByID(ctx context.Context, id string) (model.AutoReply, error)
	List(ctx context.Context) ([]model.AutoReply, error)
	// ListActive retorna respostas ativas em ordem decrescente de prioridade.
	ListActive(ctx context.Context) ([]model.AutoReply, error)
	Update(ctx context.Context, reply model.AutoReply) (model.AutoReply, error)
	Delete(ctx context.Context, id string) error
}

type FlowRepository interface {
	Create(ctx context.Context, flow model.Flow) (model.Flow, error)
	GetByID(ctx context.Context, id string) (model.Flow, error)
	List(ctx context.Context) ([]model.Flow, error)
	// ListActive retorna fluxos ativos na ordem de criação (não há
	// prioridade entre fluxos; o primeiro que casar vence).
	ListActive(ctx context.Context) ([]model.Flow, error)
	Update(ctx context.Context, flow model.Flow) (model.Flow, error)
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	Create(ctx context.Context, tpl model.Template) (model.Template, error)
	GetByID(ctx context.Context, id string) (model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Update(ctx context.Context, tpl model.Template) (model.Template, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign model.Campaign) (model.Campaign, error)
	GetByID(ctx context.Context, id string) (model.Campaign, error)
	List(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error)
	// ListDueScheduled retorna campanhas SCHEDULED com scheduledAt <= now.
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error)
	Update(ctx context.Context, campaign model.Campaign) (model.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus, startedAt, completedAt *time.Time) error
	SetTotalRecipients(ctx context.Context, id string, total int) error
	// IncrementSent/IncrementFailed são atômicos no banco para não perder
	// atualizações com loops concorrentes.
	IncrementSent(ctx context.Context, id string) error
	IncrementFailed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// CreatePendingLogs cria uma linha PENDING por contato que ainda não
	// tem log nessa campanha. Chamadas repetidas (retomada após pausa ou
	// restart do processo) não duplicam linhas.
	CreatePendingLogs(ctx context.Context, campaignID string, contacts []model.Contact) error
	ListPendingLogs(ctx context.Context, campaignID string) ([]model.CampaignLog, error)
	ListLogs(ctx context.Context, campaignID string, status model.CampaignLogStatus) ([]model.CampaignLog, error)
	MarkLogSent(ctx context.Context, logID string, at time.Time) error
	MarkLogFailed(ctx context.Context, logID string, errText string) error
}

type ContextRepository interface {
	Get(ctx context.Context, conversationID string) (model.ConversationContext, error)
	Upsert(ctx context.Context, conversationID string, messages []model.ContextMessage) error
}

type UserRepository interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
