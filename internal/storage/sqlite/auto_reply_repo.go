package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/zapify/zapify/internal/storage/model"
)

type autoReplyRepo struct {
	db *DB
}

func NewAutoReplyRepository(db *DB) *autoReplyRepo {
	return &autoReplyRepo{db: db}
}

const autoReplyColumns = `id, trigger_text, trigger_type, response, is_active, priority, created_at, updated_at`

func (r *autoReplyRepo) Create(ctx context.Context, reply model.AutoReply) (model.AutoReply, error) {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	now := time.Now()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	query := `
		INSERT INTO auto_replies (id, trigger_text, trigger_type, response, is_active, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		reply.ID, reply.Trigger, string(reply.TriggerType), reply.Response,
		reply.IsActive, reply.Priority,
		reply.CreatedAt.Format(time.RFC3339), reply.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.AutoReply{}, err
	}
	return reply, nil
}

func (r *autoReplyRepo) GetByID(ctx context.Context, id string) (model.AutoReply, error) {
	query := `SELECT ` + autoReplyColumns + ` FROM auto_replies WHERE id = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

func (r *autoReplyRepo) List(ctx context.Context) ([]model.AutoReply, error) {
	query := `SELECT ` + autoReplyColumns + ` FROM auto_replies ORDER BY priority DESC, created_at ASC`
	return r.query(ctx, query)
}

func (r *autoReplyRepo) ListActive(ctx context.Context) ([]model.AutoReply, error) {
	query := `SELECT ` + autoReplyColumns + ` FROM auto_replies WHERE is_active = 1 ORDER BY priority DESC, created_at ASC`
	return r.query(ctx, query)
}

func (r *autoReplyRepo) Update(ctx context.Context, reply model.AutoReply) (model.AutoReply, error) {
	reply.UpdatedAt = time.Now()

	query := `
		UPDATE auto_replies
		SET trigger_text = ?, trigger_type = ?, response = ?, is_active = ?, priority = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.Conn.ExecContext(ctx, query,
		reply.Trigger, string(reply.TriggerType), reply.Response,
		reply.IsActive, reply.Priority, reply.UpdatedAt.Format(time.RFC3339), reply.ID,
	)
	if err != nil {
		return model.AutoReply{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.AutoReply{}, model.ErrNotFound
	}
	return r.GetByID(ctx, reply.ID)
}

func (r *autoReplyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn.ExecContext(ctx, `DELETE FROM auto_replies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *autoReplyRepo) query(ctx context.Context, query string) ([]model.AutoReply, error) {
	rows, err := r.db.Conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []model.AutoReply
	for rows.Next() {
		var reply model.AutoReply
		var createdAt, updatedAt string

		if err := rows.Scan(
			&reply.ID, &reply.Trigger, &reply.TriggerType, &reply.Response,
			&reply.IsActive, &reply.Priority, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		reply.CreatedAt = parseTime(createdAt)
		reply.UpdatedAt = parseTime(updatedAt)
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

func (r *autoReplyRepo) scanOne(row *sql.Row) (model.AutoReply, error) {
	var reply model.AutoReply
	var createdAt, updatedAt string

	err := row.Scan(
		&reply.ID, &reply.Trigger, &reply.TriggerType, &reply.Response,
		&reply.IsActive, &reply.Priority, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.AutoReply{}, mapError(err)
	}

	reply.CreatedAt = parseTime(createdAt)
	reply.UpdatedAt = parseTime(updatedAt)
	return reply, nil
}
