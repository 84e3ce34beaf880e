package sqlite

import (
	"context"
	"time"

	"github.com/zapify/zapify/internal/storage/model"
)

type contextRepo struct {
	db *DB
}

func NewContextRepository(db *DB) *contextRepo {
	return &contextRepo{db: db}
}

func (r *contextRepo) Get(ctx context.Context, conversationID string) (model.ConversationContext, error) {
	query := `SELECT conversation_id, messages, updated_at FROM conversation_contexts WHERE conversation_id = ?`

	var cc model.ConversationContext
	var messages, updatedAt string

	err := r.db.Conn.QueryRowContext(ctx, query, conversationID).Scan(&cc.ConversationID, &messages, &updatedAt)
	if err != nil {
		return model.ConversationContext{}, mapError(err)
	}

	cc.Messages = []model.ContextMessage{}
	decodeJSON(messages, &cc.Messages)
	cc.UpdatedAt = parseTime(updatedAt)
	return cc, nil
}

func (r *contextRepo) Upsert(ctx context.Context, conversationID string, messages []model.ContextMessage) error {
	query := `
		INSERT INTO conversation_contexts (conversation_id, messages, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET messages = excluded.messages, updated_at = excluded.updated_at
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		conversationID, encodeJSON(messages), time.Now().Format(time.RFC3339),
	)
	return err
}
