package queue

import (
	"context"
	"time"
)

// Event é uma mensagem recebida do WhatsApp já normalizada, aguardando
// processamento pelo pipeline do bot.
type Event struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	IsFromMe  bool      `json:"isFromMe"`
	IsGroup   bool      `json:"isGroup"`
	PushName  string    `json:"pushName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Queue interface {
	Enqueue(ctx context.Context, event Event) error
	Dequeue(ctx context.Context, timeout time.Duration) (*Event, error)
	Size(ctx context.Context) (int64, error)
	Close() error
}
