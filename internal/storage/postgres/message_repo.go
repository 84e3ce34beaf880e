package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zapify/zapify/internal/storage/model"
)

type messageRepo struct {
	db *DB
}

func NewMessageRepository(db *DB) *messageRepo {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	query := `
		INSERT INTO messages (id, conversation_id, content, type, direction, is_from_bot, media_url, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.Content, string(msg.Type), string(msg.Direction),
		msg.IsFromBot, nullIfEmpty(msg.MediaURL), msg.SentAt,
	)
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, conversation_id, content, type, direction, is_from_bot, COALESCE(media_url, ''), sent_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Content, &msg.Type, &msg.Direction,
			&msg.IsFromBot, &msg.MediaURL, &msg.SentAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *messageRepo) CountByDirection(ctx context.Context, direction model.MessageDirection) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE direction = $1`, string(direction)).Scan(&count)
	return count, err
}

func (r *messageRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

func (r *messageRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE sent_at >= $1`, since).Scan(&count)
	return count, err
}

func (r *messageRepo) CountFromBot(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE is_from_bot = TRUE`).Scan(&count)
	return count, err
}

func (r *messageRepo) ListSince(ctx context.Context, since time.Time) ([]model.Message, error) {
	query := `
		SELECT id, conversation_id, content, type, direction, is_from_bot, COALESCE(media_url, ''), sent_at
		FROM messages
		WHERE sent_at >= $1
		ORDER BY sent_at ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Content, &msg.Type, &msg.Direction,
			&msg.IsFromBot, &msg.MediaURL, &msg.SentAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
