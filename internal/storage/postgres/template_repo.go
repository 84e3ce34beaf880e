package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Pool.Exec(ctx, query,
		tpl.ID, tpl.Name, tpl.Content, encodeJSON(tpl.Variables),
		nullIfEmpty(tpl.Category), tpl.IsActive, tpl.CreatedAt, tpl.UpdatedAt,
	); err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *templateRepo) List(ctx context.Context) ([]model.Template, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var tpl model.Template
		var variables []byte

		if err := rows.Scan(
			&tpl.ID, &tpl.Name, &tpl.Content, &variables,
			&tpl.Category, &tpl.IsActive, &tpl.CreatedAt, &tpl.UpdatedAt,
		); err != nil {
			return nil, err
		}

		tpl.Variables = []string{}
		decodeJSON(variables, &tpl.Variables)
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *templateRepo) Update(ctx context.Context, tpl model.Template) (model.Template, error) {
	tpl.UpdatedAt = time.Now()

	query := `
		UPDATE templates
		SET name = $1, content = $2, variables = $3, category = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		tpl.Name, tpl.Content, encodeJSON(tpl.Variables),
		nullIfEmpty(tpl.Category), tpl.IsActive, tpl.UpdatedAt, tpl.ID,
	)
	if err != nil {
		return model.Template{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Template{}, model.ErrNotFound
	}
	return r.GetByID(ctx, tpl.ID)
}

func (r *templateRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *templateRepo) scanOne(row pgx.Row) (model.Template, error) {
	var tpl model.Template
	var variables []byte

	err := row.Scan(
		&tpl.ID, &tpl.Name, &tpl.Content, &variables,
		&tpl.Category, &tpl.IsActive, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return model.Template{}, mapError(err)
	}

	tpl.Variables = []string{}
	decodeJSON(variables, &tpl.Variables)
	return tpl, nil
}
