package sqlite

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Conn.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.Content, string(msg.Type), string(msg.Direction),
		msg.IsFromBot, nullIfEmpty(msg.MediaURL),
		msg.SentAt.Format(time.RFC3339),
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
		WHERE conversation_id = ?
		ORDER BY sent_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var sentAt string

		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Content, &msg.Type, &msg.Direction,
			&msg.IsFromBot, &msg.MediaURL, &sentAt,
		); err != nil {
			return nil, err
		}

		msg.SentAt = parseTime(sentAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *messageRepo) CountByDirection(ctx context.Context, direction model.MessageDirection) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE direction = ?`, string(direction)).Scan(&count)
	return count, err
}

func (r *messageRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

func (r *messageRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE sent_at >= ?`, since.Format(time.RFC3339),
	).Scan(&count)
	return count, err
}

func (r *messageRepo) CountFromBot(ctx context.Context) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE is_from_bot = 1`).Scan(&count)
	return count, err
}

func (r *messageRepo) ListSince(ctx context.Context, since time.Time) ([]model.Message, error) {
	query := `
		SELECT id, conversation_id, content, type, direction, is_from_bot, COALESCE(media_url, ''), sent_at
		FROM messages
		WHERE sent_at >= ?
		ORDER BY sent_at ASC
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, since.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var sentAt string

		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Content, &msg.Type, &msg.Direction,
			&msg.IsFromBot, &msg.MediaURL, &sentAt,
		); err != nil {
			return nil, err
		}

		msg.SentAt = parseTime(sentAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
