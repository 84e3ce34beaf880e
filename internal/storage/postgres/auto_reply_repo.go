package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Pool.Exec(ctx, query,
		reply.ID, reply.Trigger, string(reply.TriggerType), reply.Response,
		reply.IsActive, reply.Priority, reply.CreatedAt, reply.UpdatedAt,
	); err != nil {
		return model.AutoReply{}, err
	}
	return reply, nil
}

func (r *autoReplyRepo) GetByID(ctx context.Context, id string) (model.AutoReply, error) {
	query := `SELECT ` + autoReplyColumns + ` FROM auto_replies WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *autoReplyRepo) List(ctx context.Context) ([]model.AutoReply, error) {
	return r.query(ctx, `SELECT `+autoReplyColumns+` FROM auto_replies ORDER BY priority DESC, created_at ASC`)
}

func (r *autoReplyRepo) ListActive(ctx context.Context) ([]model.AutoReply, error) {
	return r.query(ctx, `SELECT `+autoReplyColumns+` FROM auto_replies WHERE is_active = true ORDER BY priority DESC, created_at ASC`)
}

func (r *autoReplyRepo) Update(ctx context.Context, reply model.AutoReply) (model.AutoReply, error) {
	reply.UpdatedAt = time.Now()

	query := `
		UPDATE auto_replies
		SET trigger_text = $1, trigger_type = $2, response = $3, is_active = $4, priority = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		reply.Trigger, string(reply.TriggerType), reply.Response,
		reply.IsActive, reply.Priority, reply.UpdatedAt, reply.ID,
	)
	if err != nil {
		return model.AutoReply{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.AutoReply{}, model.ErrNotFound
	}
	return r.GetByID(ctx, reply.ID)
}

func (r *autoReplyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM auto_replies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *autoReplyRepo) query(ctx context.Context, query string) ([]model.AutoReply, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []model.AutoReply
	for rows.Next() {
		var reply model.AutoReply
		if err := rows.Scan(
			&reply.ID, &reply.Trigger, &reply.TriggerType, &reply.Response,
			&reply.IsActive, &reply.Priority, &reply.CreatedAt, &reply.UpdatedAt,
		); err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}

func (r *autoReplyRepo) scanOne(row pgx.Row) (model.AutoReply, error) {
	var reply model.AutoReply
	err := row.Scan(
		&reply.ID, &reply.Trigger, &reply.TriggerType, &reply.Response,
		&reply.IsActive, &reply.Priority, &reply.CreatedAt, &reply.UpdatedAt,
	)
	if err != nil {
		return model.AutoReply{}, mapError(err)
	}
	return reply, nil
}
