package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		flow.ID, flow.Name, flow.Trigger, string(flow.TriggerType),
		encodeJSON(flow.Steps), flow.IsActive,
		flow.CreatedAt.Format(time.RFC3339), flow.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Flow{}, err
	}
	return flow, nil
}

func (r *flowRepo) GetByID(ctx context.Context, id string) (model.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

func (r *flowRepo) List(ctx context.Context) ([]model.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows ORDER BY created_at ASC`
	return r.query(ctx, query)
}

// ListActive mantém a ordem de criação: entre fluxos não existe prioridade,
// o primeiro cadastrado que casar vence.
func (r *flowRepo) ListActive(ctx context.Context) ([]model.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE is_active = 1 ORDER BY created_at ASC`
	return r.query(ctx, query)
}

func (r *flowRepo) Update(ctx context.Context, flow model.Flow) (model.Flow, error) {
	flow.UpdatedAt = time.Now()

	query := `
		UPDATE flows
		SET name = ?, trigger_text = ?, trigger_type = ?, steps = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.Conn.ExecContext(ctx, query,
		flow.Name, flow.Trigger, string(flow.TriggerType),
		encodeJSON(flow.Steps), flow.IsActive, flow.UpdatedAt.Format(time.RFC3339), flow.ID,
	)
	if err != nil {
		return model.Flow{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Flow{}, model.ErrNotFound
	}
	return r.GetByID(ctx, flow.ID)
}

func (r *flowRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *flowRepo) query(ctx context.Context, query string) ([]model.Flow, error) {
	rows, err := r.db.Conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []model.Flow
	for rows.Next() {
		var flow model.Flow
		var steps, createdAt, updatedAt string

		if err := rows.Scan(
			&flow.ID, &flow.Name, &flow.Trigger, &flow.TriggerType,
			&steps, &flow.IsActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		flow.Steps = []model.FlowStep{}
		decodeJSON(steps, &flow.Steps)
		flow.CreatedAt = parseTime(createdAt)
		flow.UpdatedAt = parseTime(updatedAt)
		flows = append(flows, flow)
	}
	return flows, rows.Err()
}

func (r *flowRepo) scanOne(row *sql.Row) (model.Flow, error) {
	var flow model.Flow
	var steps, createdAt, updatedAt string

	err := row.Scan(
		&flow.ID, &flow.Name, &flow.Trigger, &flow.TriggerType,
		&steps, &flow.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Flow{}, mapError(err)
	}

	flow.Steps = []model.FlowStep{}
	decodeJSON(steps, &flow.Steps)
	flow.CreatedAt = parseTime(createdAt)
	flow.UpdatedAt = parseTime(updatedAt)
	return flow, nil
}
