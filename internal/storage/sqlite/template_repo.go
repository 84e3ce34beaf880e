package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/zapify/zapify/internal/storage/model"
)

type templateRepo struct {
	db *DB
}

func NewTemplateRepository(db *DB) *templateRepo {
	return &templateRepo{db: db}
}

const templateColumns = `id, name, content, variables, COALESCE(category, ''), is_active, created_at, updated_at`

func (r *templateRepo) Create(ctx context.Context, tpl model.Template) (model.Template, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	query := `
		INSERT INTO templates (id, name, content, variables, category, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		tpl.ID, tpl.Name, tpl.Content, encodeJSON(tpl.Variables),
		nullIfEmpty(tpl.Category), tpl.IsActive,
		tpl.CreatedAt.Format(time.RFC3339), tpl.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

func (r *templateRepo) List(ctx context.Context) ([]model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var tpl model.Template
		var variables, createdAt, updatedAt string

		if err := rows.Scan(
			&tpl.ID, &tpl.Name, &tpl.Content, &variables,
			&tpl.Category, &tpl.IsActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		tpl.Variables = []string{}
		decodeJSON(variables, &tpl.Variables)
		tpl.CreatedAt = parseTime(createdAt)
		tpl.UpdatedAt = parseTime(updatedAt)
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *templateRepo) Update(ctx context.Context, tpl model.Template) (model.Template, error) {
	tpl.UpdatedAt = time.Now()

	query := `
		UPDATE templates
		SET name = ?, content = ?, variables = ?, category = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.Conn.ExecContext(ctx, query,
		tpl.Name, tpl.Content, encodeJSON(tpl.Variables),
		nullIfEmpty(tpl.Category), tpl.IsActive, tpl.UpdatedAt.Format(time.RFC3339), tpl.ID,
	)
	if err != nil {
		return model.Template{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Template{}, model.ErrNotFound
	}
	return r.GetByID(ctx, tpl.ID)
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *templateRepo) scanOne(row *sql.Row) (model.Template, error) {
	var tpl model.Template
	var variables, createdAt, updatedAt string

	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.Content, &variables,
		&tpl.Category, &tpl.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Template{}, mapError(err)
	}

	tpl.Variables = []string{}
	decodeJSON(variables, &tpl.Variables)
	tpl.CreatedAt = parseTime(createdAt)
	tpl.UpdatedAt = parseTime(updatedAt)
	return tpl, nil
}
