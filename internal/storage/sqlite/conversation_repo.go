package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

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
		WHERE contact_id = ? AND status = ?
	`

	conv, err := r.scanOne(r.db.Conn.QueryRowContext(ctx, query, contactID, model.ConversationActive))
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
		VALUES (?, ?, ?, 0, ?, ?)
	`
	_, err = r.db.Conn.ExecContext(ctx, insert,
		conv.ID, conv.ContactID, string(conv.Status),
		conv.CreatedAt.Format(time.RFC3339), conv.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Conversation{}, err
	}

	return conv, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, id string) (model.Conversation, error) {
	query := `
		SELECT id, contact_id, status, last_message_at, unread_count, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

// List devolve as conversas com o contato embutido, ordenadas pela última
// mensagem (mais recente primeiro), como o dashboard exibe.
func (r *conversationRepo) List(ctx context.Context, status model.ConversationStatus) ([]model.Conversation, error) {
	query := `
		SELECT c.id, c.contact_id, c.status, c.last_message_at, c.unread_count, c.created_at, c.updated_at,
		       ct.id, ct.phone, COALESCE(ct.name, ''), COALESCE(ct.profile_pic, ''), ct.is_blocked, ct.tags, ct.created_at, ct.updated_at
		FROM conversations c
		JOIN contacts ct ON ct.id = c.contact_id
	`
	args := []any{}
	if status != "" {
		query += ` WHERE c.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var contact model.Contact
		var lastMessageAt sql.NullString
		var createdAt, updatedAt string
		var cTags, cCreatedAt, cUpdatedAt string

		if err := rows.Scan(
			&conv.ID, &conv.ContactID, &conv.Status, &lastMessageAt, &conv.UnreadCount, &createdAt, &updatedAt,
			&contact.ID, &contact.Phone, &contact.Name, &contact.ProfilePic, &contact.IsBlocked, &cTags, &cCreatedAt, &cUpdatedAt,
		); err != nil {
			return nil, err
		}

		if lastMessageAt.Valid {
			conv.LastMessageAt = parseTimePtr(lastMessageAt.String)
		}
		conv.CreatedAt = parseTime(createdAt)
		conv.UpdatedAt = parseTime(updatedAt)

		contact.Tags = []string{}
		decodeJSON(cTags, &contact.Tags)
		contact.CreatedAt = parseTime(cCreatedAt)
		contact.UpdatedAt = parseTime(cUpdatedAt)
		conv.Contact = &contact

		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *conversationRepo) IncrementUnread(ctx context.Context, id string, lastMessageAt time.Time) error {
	query := `
		UPDATE conversations
		SET unread_count = unread_count + 1, last_message_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().Format(time.RFC3339)
	res, err := r.db.Conn.ExecContext(ctx, query, lastMessageAt.Format(time.RFC3339), now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) ResetUnread(ctx context.Context, id string) error {
	query := `UPDATE conversations SET unread_count = 0, updated_at = ? WHERE id = ?`
	res, err := r.db.Conn.ExecContext(ctx, query, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.Conn.ExecContext(ctx, query, at.Format(time.RFC3339), time.Now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) UpdateStatus(ctx context.Context, id string, status model.ConversationStatus) error {
	query := `UPDATE conversations SET status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.Conn.ExecContext(ctx, query, string(status), time.Now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *conversationRepo) UpdateStatusByContact(ctx context.Context, contactID string, from, to model.ConversationStatus) error {
	query := `UPDATE conversations SET status = ?, updated_at = ? WHERE contact_id = ? AND status = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, string(to), time.Now().Format(time.RFC3339), contactID, string(from))
	return err
}

func (r *conversationRepo) CountByStatus(ctx context.Context, status model.ConversationStatus) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE status = ?`, string(status)).Scan(&count)
	return count, err
}

func (r *conversationRepo) scanOne(row *sql.Row) (model.Conversation, error) {
	var conv model.Conversation
	var lastMessageAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&conv.ID, &conv.ContactID, &conv.Status, &lastMessageAt, &conv.UnreadCount, &createdAt, &updatedAt)
	if err != nil {
		return model.Conversation{}, mapError(err)
	}

	if lastMessageAt.Valid {
		conv.LastMessageAt = parseTimePtr(lastMessageAt.String)
	}
	conv.CreatedAt = parseTime(createdAt)
	conv.UpdatedAt = parseTime(updatedAt)
	return conv, nil
}
