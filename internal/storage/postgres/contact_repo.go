package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
		VALUES ($1, $2, $3, $4, false, $5, $6, $7)
		ON CONFLICT (phone) DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		contact.ID, contact.Phone, nullIfEmpty(contact.Name), nullIfEmpty(contact.ProfilePic),
		encodeJSON(contact.Tags), contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return model.Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		// Corrida entre duas primeiras mensagens do mesmo número.
		return r.GetByPhone(ctx, phone)
	}

	return contact, nil
}

func (r *contactRepo) GetByID(ctx context.Context, id string) (model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *contactRepo) GetByPhone(ctx context.Context, phone string) (model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, phone))
}

func (r *contactRepo) List(ctx context.Context) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *contactRepo) ListRecipients(ctx context.Context, tags []string, ids []string) ([]model.Contact, error) {
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		args := make([]any, len(ids))
		for i, id := range ids {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_blocked = false AND id IN (` + strings.Join(placeholders, ",") + `)`

		rows, err := r.db.Pool.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return r.scanAll(rows)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_blocked = false`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts, err := r.scanAll(rows)
	if err != nil || len(tags) == 0 {
		return contacts, err
	}

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
		SET name = $1, profile_pic = $2, is_blocked = $3, tags = $4, updated_at = $5
		WHERE id = $6
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		nullIfEmpty(contact.Name), nullIfEmpty(contact.ProfilePic), contact.IsBlocked,
		encodeJSON(contact.Tags), contact.UpdatedAt, contact.ID,
	)
	if err != nil {
		return model.Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Contact{}, model.ErrNotFound
	}

	return r.GetByID(ctx, contact.ID)
}

func (r *contactRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	query := `UPDATE contacts SET is_blocked = $1, updated_at = $2 WHERE id = $3`
	tag, err := r.db.Pool.Exec(ctx, query, blocked, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *contactRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *contactRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}

func (r *contactRepo) scanOne(row pgx.Row) (model.Contact, error) {
	var c model.Contact
	var tags []byte

	err := row.Scan(&c.ID, &c.Phone, &c.Name, &c.ProfilePic, &c.IsBlocked, &tags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Contact{}, mapError(err)
	}

	c.Tags = []string{}
	decodeJSON(tags, &c.Tags)
	return c, nil
}

func (r *contactRepo) scanAll(rows pgx.Rows) ([]model.Contact, error) {
	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var tags []byte

		if err := rows.Scan(&c.ID, &c.Phone, &c.Name, &c.ProfilePic, &c.IsBlocked, &tags, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}

		c.Tags = []string{}
		decodeJSON(tags, &c.Tags)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
