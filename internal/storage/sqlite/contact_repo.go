package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zapify/zapify/internal/storage/model"
)

type contactRepo struct {
	db *DB
}

func NewContactRepository(db *DB) *contactRepo {
	return &contactRepo{db: db}
}

const contactColumns = `id, phone, COALESCE(name, ''), COALESCE(profile_pic, ''), is_blocked, tags, created_at, updated_at`

func (r *contactRepo) FindOrCreate(ctx context.Context, phone, name, profilePic string) (model.Contact, error) {
	contact, err := r.GetByPhone(ctx, phone)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Contact{}, err
	}

	now := time.Now()
	contact = model.Contact{
		ID:         uuid.New().String(),
		Phone:      phone,
		Name:       name,
		ProfilePic: profilePic,
		Tags:       []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		INSERT INTO contacts (id, phone, name, profile_pic, is_blocked, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
	`

	_, err = r.db.Conn.ExecContext(ctx, query,
		contact.ID, contact.Phone, nullIfEmpty(contact.Name), nullIfEmpty(contact.ProfilePic),
		encodeJSON(contact.Tags), contact.CreatedAt.Format(time.RFC3339), contact.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// Corrida entre duas primeiras mensagens do mesmo número: a
		// constraint de phone falha e a re-busca resolve.
		if strings.Contains(err.Error(), "UNIQUE") {
			return r.GetByPhone(ctx, phone)
		}
		return model.Contact{}, err
	}

	return contact, nil
}

func (r *contactRepo) GetByID(ctx context.Context, id string) (model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

func (r *contactRepo) GetByPhone(ctx context.Context, phone string) (model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, phone))
}

func (r *contactRepo) List(ctx context.Context) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *contactRepo) ListRecipients(ctx context.Context, tags []string, ids []string) ([]model.Contact, error) {
	if len(ids) > 0 {
		placeholders := strings.Repeat("?,", len(ids))
		placeholders = placeholders[:len(placeholders)-1]
		query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_blocked = 0 AND id IN (` + placeholders + `)`

		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		rows, err := r.db.Conn.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return r.scanAll(rows)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_blocked = 0`
	rows, err := r.db.Conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts, err := r.scanAll(rows)
	if err != nil || len(tags) == 0 {
		return contacts, err
	}

	// Filtro de tags em memória: as tags são uma coluna TEXT com JSON e o
	// volume de contatos não justifica json_each aqui.
	var filtered []model.Contact
	for _, c := range contacts {
		if hasAnyTag(c.Tags, tags) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func hasAnyTag(contactTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range contactTags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func (r *contactRepo) Update(ctx context.Context, contact model.Contact) (model.Contact, error) {
	contact.UpdatedAt = time.Now()

	query := `
		UPDATE contacts
		SET name = ?, profile_pic = ?, is_blocked = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Conn.ExecContext(ctx, query,
		nullIfEmpty(contact.Name), nullIfEmpty(contact.ProfilePic), contact.IsBlocked,
		encodeJSON(contact.Tags), contact.UpdatedAt.Format(time.RFC3339), contact.ID,
	)
	if err != nil {
		return model.Contact{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Contact{}, model.ErrNotFound
	}

	return r.GetByID(ctx, contact.ID)
}

func (r *contactRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	query := `UPDATE contacts SET is_blocked = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.Conn.ExecContext(ctx, query, blocked, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *contactRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

func (r *contactRepo) scanOne(row *sql.Row) (model.Contact, error) {
	var c model.Contact
	var tags, createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.Phone, &c.Name, &c.ProfilePic, &c.IsBlocked, &tags, &createdAt, &updatedAt)
	if err != nil {
		return model.Contact{}, mapError(err)
	}

	c.Tags = []string{}
	decodeJSON(tags, &c.Tags)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func (r *contactRepo) scanAll(rows *sql.Rows) ([]model.Contact, error) {
	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var tags, createdAt, updatedAt string

		if err := rows.Scan(&c.ID, &c.Phone, &c.Name, &c.ProfilePic, &c.IsBlocked, &tags, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		c.Tags = []string{}
		decodeJSON(tags, &c.Tags)
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
