package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zapify/zapify/internal/storage/model"
)

type conversationRepo struct {
	db *DB
}

func NewConversationRepository(db *DB) *conversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) FindOrCreateActive(ctx context.Context, contactID string) (model.Conversation, error) {
	query := `
		SELECT id, contact_id, status, last_message_at, unread_count, created_at, updated_at
		FROM conversations
		WHERE contact_id = $1 AND status = $2
	`
	conv, err := r.scanOne(r.db.Pool.QueryRow(ctx, query, contactID, string(model.ConversationActive)))
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Conversation{}, err
	}

	now := time.Now()
	conv = model.Conversation{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Status:    model.ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insert := `
		INSERT INTO conversations (id, contact_id, status, unread_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
	`
	if _, err := r.db.Pool.Exec(ctx, insert,
		conv.ID, conv.ContactID, string(conv.Status), conv.CreatedAt, conv.UpdatedAt,
	); err != nil {
		return model.Conversation{}, err
	}

	return conv, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (model.Conversation, error) {
	query := `
		SELECT id, contact_id, status, last_message_at, unread_count, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *conversationRepo) List(ctx context.Context, status model.ConversationStatus) ([]model.Conversation, error) {
	query := `
		SELECT c.id, c.contact_id, c.status, c.last_message_at, c.unread_count, c.created_at, c.updated_at,
		       ct.id, ct.phone, COALESCE(ct.name, ''), COALESCE(ct.profile_pic, ''), ct.is_blocked, ct.tags, ct.created_at, ct.updated_at
		FROM conversations c
		JOIN contacts ct ON ct.id = c.contact_id
	`
	args := []any{}
	if status != "" {
		query += ` WHERE c.status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var contact model.Contact
		var tags []byte

		if err := rows.Scan(
			&conv.ID, &conv.ContactID, &conv.Status, &conv.LastMessageAt, &conv.UnreadCount, &conv.CreatedAt, &conv.UpdatedAt,
			&contact.ID, &contact.Phone, &contact.Name, &contact.ProfilePic, &contact.IsBlocked, &tags, &contact.CreatedAt, &contact.UpdatedAt,
		); err != nil {
			return nil, err
		}

		contact.Tags = []string{}
		decodeJSON(tags, &contact.Tags)
		conv.Contact = &contact
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *conversationRepo) IncrementUnread(ctx context.Context, id string, lastMessageAt time.Time) error {
	query := `
		UPDATE conversations
		SET unread_count = unread_count + 1, last_message_at = $1, updated_at = $2
		WHERE id = $3
	`
	tag, err := r.db.Pool.Exec(ctx, query, lastMessageAt, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) ResetUnread(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE conversations SET unread_count = 0, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE conversations SET last_message_at = $1, updated_at = $2 WHERE id = $3`, at, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) UpdateStatus(ctx context.Context, id string, status model.ConversationStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE conversations SET status = $1, updated_at = $2 WHERE id = $3`, string(status), time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) UpdateStatusByContact(ctx context.Context, contactID string, from, to model.ConversationStatus) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE conversations SET status = $1, updated_at = $2 WHERE contact_id = $3 AND status = $4`,
		string(to), time.Now(), contactID, string(from),
	)
	return err
}

func (r *conversationRepo) CountByStatus(ctx context.Context, status model.ConversationStatus) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversations WHERE status = $1`, string(status)).Scan(&count)
	return count, err
}

func (r *conversationRepo) scanOne(row pgx.Row) (model.Conversation, error) {
	var conv model.Conversation
	err := row.Scan(&conv.ID, &conv.ContactID, &conv.Status, &conv.LastMessageAt, &conv.UnreadCount, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return model.Conversation{}, mapError(err)
	}
	return conv, nil
}
