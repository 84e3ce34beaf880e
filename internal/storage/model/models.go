package model

import (
	"errors"
	"time"
)

// ErrNotFound é retornado pelos repositórios quando o registro não existe.
var ErrNotFound = errors.New("not found")

type MessageType string

const (
	MessageTypeText     MessageType = "TEXT"
	MessageTypeImage    MessageType = "IMAGE"
	MessageTypeAudio    MessageType = "AUDIO"
	MessageTypeVideo    MessageType = "VIDEO"
	MessageTypeDocument MessageType = "DOCUMENT"
	MessageTypeSticker  MessageType = "STICKER"
)

type MessageDirection string

const (
	DirectionIncoming MessageDirection = "INCOMING"
	DirectionOutgoing MessageDirection = "OUTGOING"
)

type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "ACTIVE"
	ConversationArchived ConversationStatus = "ARCHIVED"
	ConversationBlocked  ConversationStatus = "BLOCKED"
)

type TriggerType string

const (
	TriggerExact    TriggerType = "EXACT"
	TriggerContains TriggerType = "CONTAINS"
	TriggerRegex    TriggerType = "REGEX"
)

type Contact struct {
	ID         string    `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name,omitempty"`
	ProfilePic string    `json:"profilePic,omitempty"`
	IsBlocked  bool      `json:"isBlocked"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Conversation struct {
	ID            string             `json:"id"`
	ContactID     string             `json:"contactId"`
	Contact       *Contact           `json:"contact,omitempty"`
	Status        ConversationStatus `json:"status"`
	LastMessageAt *time.Time         `json:"lastMessageAt,omitempty"`
	UnreadCount   int                `json:"unreadCount"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Message é um registro imutável: nunca é atualizada depois de criada.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversationId"`
	Content        string           `json:"content"`
	Type           MessageType      `json:"type"`
	Direction      MessageDirection `json:"direction"`
	IsFromBot      bool             `json:"isFromBot"`
	MediaURL       string           `json:"mediaUrl,omitempty"`
	SentAt         time.Time        `json:"sentAt"`
}

// BotConfig é um singleton com id fixo "default", criado sob demanda
// na primeira leitura.
type BotConfig struct {
	ID                 string    `json:"id"`
	IsActive           bool      `json:"isActive"`
	AIProvider         string    `json:"aiProvider"`
	AIModel            string    `json:"aiModel"`
	AITemperature      float64   `json:"aiTemperature"`
	AIMaxTokens        int       `json:"aiMaxTokens"`
	WelcomeMessage     string    `json:"welcomeMessage,omitempty"`
	AwayMessage        string    `json:"awayMessage,omitempty"`
	BusinessHoursStart string    `json:"businessHoursStart,omitempty"`
	BusinessHoursEnd   string    `json:"businessHoursEnd,omitempty"`
	BusinessDays       []int     `json:"businessDays"`
	SystemPrompt       string    `json:"systemPrompt,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

const BotConfigID = "default"

// DefaultBotConfig retorna o singleton com os valores iniciais usados quando
// ainda não existe linha persistida.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		ID:            BotConfigID,
		IsActive:      false,
		AIProvider:    "gemini",
		AIModel:       "gemini-2.5-flash",
		AITemperature: 0.7,
		AIMaxTokens:   500,
		BusinessDays:  []int{1, 2, 3, 4, 5},
	}
}

type AutoReply struct {
	ID          string      `json:"id"`
	Trigger     string      `json:"trigger"`
	TriggerType TriggerType `json:"triggerType"`
	Response    string      `json:"response"`
	IsActive    bool        `json:"isActive"`
	Priority    int         `json:"priority"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type Flow struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Trigger     string      `json:"trigger"`
	TriggerType TriggerType `json:"triggerType"`
	Steps       []FlowStep  `json:"steps"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FlowStep descreve um passo do fluxo. Os campos Options/NextStepID fazem
// parte do formato armazenado, mas o executor atual reproduz apenas passos
// do tipo "message", em ordem.
type FlowStep struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Content    string       `json:"content"`
	Options    []FlowOption `json:"options,omitempty"`
	NextStepID string       `json:"nextStepId,omitempty"`
	DelayMs    int          `json:"delay,omitempty"`
}

type FlowOption struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	NextStepID string `json:"nextStepId"`
}

type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Variables []string  `json:"variables"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignRunning   CampaignStatus = "RUNNING"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

type CampaignTargetType string

const (
	TargetAll      CampaignTargetType = "ALL"
	TargetTags     CampaignTargetType = "TAGS"
	TargetSelected CampaignTargetType = "SELECTED"
)

type Campaign struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Message         string             `json:"message"`
	MediaURL        string             `json:"mediaUrl,omitempty"`
	TargetType      CampaignTargetType `json:"targetType"`
	TargetTags      []string           `json:"targetTags"`
	TargetContacts  []string           `json:"targetContacts"`
	ScheduledAt     *time.Time         `json:"scheduledAt,omitempty"`
	DelayBetweenMs  int                `json:"delayBetween"`
	Status          CampaignStatus     `json:"status"`
	TotalRecipients int                `json:"totalRecipients"`
	SentCount       int                `json:"sentCount"`
	FailedCount     int                `json:"failedCount"`
	StartedAt       *time.Time         `json:"startedAt,omitempty"`
	CompletedAt     *time.Time         `json:"completedAt,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type CampaignLogStatus string

const (
	LogPending CampaignLogStatus = "PENDING"
	LogSent    CampaignLogStatus = "SENT"
	LogFailed  CampaignLogStatus = "FAILED"
)

// CampaignLog guarda uma linha por par (campanha, contato). O telefone é
// copiado no momento da criação para que o envio não dependa do contato
// continuar existindo.
type CampaignLog struct {
	ID         string            `json:"id"`
	CampaignID string            `json:"campaignId"`
	ContactID  string            `json:"contactId"`
	Phone      string            `json:"phone"`
	Status     CampaignLogStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
	SentAt     *time.Time        `json:"sentAt,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ContextMessage é um turno do histórico usado como prompt de IA.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationContext é a janela deslizante (últimos 20 turnos) mantida por
// conversa para dar memória ao bot.
type ConversationContext struct {
	ConversationID string           `json:"conversationId"`
	Messages       []ContextMessage `json:"messages"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

const (
	UserRoleAdmin    = "ADMIN"
	UserRoleOperator = "OPERATOR"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
