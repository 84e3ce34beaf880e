package postgres

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
	query := `SELECT conversation_id, messages, updated_at FROM conversation_contexts WHERE conversation_id = $1`

	var cc model.ConversationContext
	var messages []byte

	err := r.db.Pool.QueryRow(ctx, query, conversationID).Scan(&cc.ConversationID, &messages, &cc.UpdatedAt)
	if err != nil {
		return model.ConversationContext{}, mapError(err)
	}

	cc.Messages = []model.ContextMessage{}
	decodeJSON(messages, &cc.Messages)
	return cc, nil
}

func (r *contextRepo) Upsert(ctx context.Context, conversationID string, messages []model.ContextMessage) error {
	query := `
		INSERT INTO conversation_contexts (conversation_id, messages, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id) DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Pool.Exec(ctx, query, conversationID, encodeJSON(messages), time.Now())
	return err
}
