package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zapify/zapify/internal/storage/model"
)

type flowRepo struct {
	db *DB
}

func NewFlowRepository(db *DB) *flowRepo {
	return &flowRepo{db: db}
}

const flowColumns = `id, name, trigger_text, trigger_type, steps, is_active, created_at, updated_at`

func (r *flowRepo) Create(ctx context.Context, flow model.Flow) (model.Flow, error) {
	if flow.ID == "" {
		flow.ID = uuid.New().String()
	}
	now := time.Now()
	flow.CreatedAt = now
	flow.UpdatedAt = now

	query := `
		INSERT INTO flows (id, name, trigger_text, trigger_type, steps, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Pool.Exec(ctx, query,
		flow.ID, flow.Name, flow.Trigger, string(flow.TriggerType),
		encodeJSON(flow.Steps), flow.IsActive, flow.CreatedAt, flow.UpdatedAt,
	); err != nil {
		return model.Flow{}, err
	}
	return flow, nil
}

func (r *flowRepo) GetByID(ctx context.Context, id string) (model.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *flowRepo) List(ctx context.Context) ([]model.Flow, error) {
	return r.query(ctx, `SELECT `+flowColumns+` FROM flows ORDER BY created_at ASC`)
}

func (r *flowRepo) ListActive(ctx context.Context) ([]model.Flow, error) {
	return r.query(ctx, `SELECT `+flowColumns+` FROM flows WHERE is_active = true ORDER BY created_at ASC`)
}

func (r *flowRepo) Update(ctx context.Context, flow model.Flow) (model.Flow, error) {
	flow.UpdatedAt = time.Now()

	query := `
		UPDATE flows
		SET name = $1, trigger_text = $2, trigger_type = $3, steps = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		flow.Name, flow.Trigger, string(flow.TriggerType),
		encodeJSON(flow.Steps), flow.IsActive, flow.UpdatedAt, flow.ID,
	)
	if err != nil {
		return model.Flow{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Flow{}, model.ErrNotFound
	}
	return r.GetByID(ctx, flow.ID)
}

func (r *flowRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *flowRepo) query(ctx context.Context, query string) ([]model.Flow, error) {
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []model.Flow
	for rows.Next() {
		var flow model.Flow
		var steps []byte

		if err := rows.Scan(
			&flow.ID, &flow.Name, &flow.Trigger, &flow.TriggerType,
			&steps, &flow.IsActive, &flow.CreatedAt, &flow.UpdatedAt,
		); err != nil {
			return nil, err
		}

		flow.Steps = []model.FlowStep{}
		decodeJSON(steps, &flow.Steps)
		flows = append(flows, flow)
	}
	return flows, rows.Err()
}

func (r *flowRepo) scanOne(row pgx.Row) (model.Flow, error) {
	var flow model.Flow
	var steps []byte

	err := row.Scan(
		&flow.ID, &flow.Name, &flow.Trigger, &flow.TriggerType,
		&steps, &flow.IsActive, &flow.CreatedAt, &flow.UpdatedAt,
	)
	if err != nil {
		return model.Flow{}, mapError(err)
	}

	flow.Steps = []model.FlowStep{}
	decodeJSON(steps, &flow.Steps)
	return flow, nil
}
