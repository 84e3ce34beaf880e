package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zapify/zapify/internal/storage/model"
)

type campaignRepo struct {
	db *DB
}

func NewCampaignRepository(db *DB) *campaignRepo {
	return &campaignRepo{db: db}
}

const campaignColumns = `id, name, message, COALESCE(media_url, ''), target_type, target_tags, target_contacts,
	scheduled_at, delay_between_ms, status, total_recipients, sent_count, failed_count,
	started_at, completed_at, created_at, updated_at`

func (r *campaignRepo) Create(ctx context.Context, campaign model.Campaign) (model.Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	if campaign.Status == "" {
		campaign.Status = model.CampaignDraft
	}
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	query := `
		INSERT INTO campaigns (id, name, message, media_url, target_type, target_tags, target_contacts,
		                       scheduled_at, delay_between_ms, status, total_recipients, sent_count, failed_count,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, 0, $11, $12)
	`
	if _, err := r.db.Pool.Exec(ctx, query,
		campaign.ID, campaign.Name, campaign.Message, nullIfEmpty(campaign.MediaURL),
		string(campaign.TargetType), encodeJSON(campaign.TargetTags), encodeJSON(campaign.TargetContacts),
		campaign.ScheduledAt, campaign.DelayBetweenMs, string(campaign.Status),
		campaign.CreatedAt, campaign.UpdatedAt,
	); err != nil {
		return model.Campaign{}, err
	}
	return campaign, nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *campaignRepo) List(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *campaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, string(model.CampaignScheduled), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *campaignRepo) Update(ctx context.Context, campaign model.Campaign) (model.Campaign, error) {
	campaign.UpdatedAt = time.Now()

	query := `
		UPDATE campaigns
		SET name = $1, message = $2, media_url = $3, target_type = $4, target_tags = $5, target_contacts = $6,
		    scheduled_at = $7, delay_between_ms = $8, status = $9, updated_at = $10
		WHERE id = $11
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		campaign.Name, campaign.Message, nullIfEmpty(campaign.MediaURL),
		string(campaign.TargetType), encodeJSON(campaign.TargetTags), encodeJSON(campaign.TargetContacts),
		campaign.ScheduledAt, campaign.DelayBetweenMs, string(campaign.Status),
		campaign.UpdatedAt, campaign.ID,
	)
	if err != nil {
		return model.Campaign{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Campaign{}, model.ErrNotFound
	}
	return r.GetByID(ctx, campaign.ID)
}

func (r *campaignRepo) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus, startedAt, completedAt *time.Time) error {
	query := `UPDATE campaigns SET status = $1, updated_at = $2`
	args := []any{string(status), time.Now()}
	n := 2

	if startedAt != nil {
		n++
		query += fmt.Sprintf(`, started_at = $%d`, n)
		args = append(args, *startedAt)
	}
	if completedAt != nil {
		n++
		query += fmt.Sprintf(`, completed_at = $%d`, n)
		args = append(args, *completedAt)
	}
	n++
	query += fmt.Sprintf(` WHERE id = $%d`, n)
	args = append(args, id)

	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) SetTotalRecipients(ctx context.Context, id string, total int) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE campaigns SET total_recipients = $1, updated_at = $2 WHERE id = $3`, total, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) IncrementSent(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE campaigns SET sent_count = sent_count + 1, updated_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (r *campaignRepo) IncrementFailed(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE campaigns SET failed_count = failed_count + 1, updated_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CreatePendingLogs é idempotente: a constraint (campaign_id, contact_id) com
// ON CONFLICT DO NOTHING garante uma linha por destinatário mesmo em retomadas.
func (r *campaignRepo) CreatePendingLogs(ctx context.Context, campaignID string, contacts []model.Contact) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO campaign_logs (id, campaign_id, contact_id, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (campaign_id, contact_id) DO NOTHING
	`
	now := time.Now()
	for _, contact := range contacts {
		if _, err := tx.Exec(ctx, query,
			uuid.New().String(), campaignID, contact.ID, contact.Phone,
			string(model.LogPending), now,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *campaignRepo) ListPendingLogs(ctx context.Context, campaignID string) ([]model.CampaignLog, error) {
	return r.queryLogs(ctx, campaignID, model.LogPending)
}

func (r *campaignRepo) ListLogs(ctx context.Context, campaignID string, status model.CampaignLogStatus) ([]model.CampaignLog, error) {
	return r.queryLogs(ctx, campaignID, status)
}

func (r *campaignRepo) MarkLogSent(ctx context.Context, logID string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE campaign_logs SET status = $1, sent_at = $2 WHERE id = $3`, string(model.LogSent), at, logID)
	return err
}

func (r *campaignRepo) MarkLogFailed(ctx context.Context, logID string, errText string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE campaign_logs SET status = $1, error = $2 WHERE id = $3`, string(model.LogFailed), errText, logID)
	return err
}

func (r *campaignRepo) queryLogs(ctx context.Context, campaignID string, status model.CampaignLogStatus) ([]model.CampaignLog, error) {
	query := `
		SELECT id, campaign_id, contact_id, phone, status, COALESCE(error, ''), sent_at, created_at
		FROM campaign_logs
		WHERE campaign_id = $1
	`
	args := []any{campaignID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.CampaignLog
	for rows.Next() {
		var logEntry model.CampaignLog
		if err := rows.Scan(
			&logEntry.ID, &logEntry.CampaignID, &logEntry.ContactID, &logEntry.Phone,
			&logEntry.Status, &logEntry.Error, &logEntry.SentAt, &logEntry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, logEntry)
	}
	return logs, rows.Err()
}

func (r *campaignRepo) scanOne(row pgx.Row) (model.Campaign, error) {
	var c model.Campaign
	var targetTags, targetContacts []byte

	err := row.Scan(
		&c.ID, &c.Name, &c.Message, &c.MediaURL, &c.TargetType, &targetTags, &targetContacts,
		&c.ScheduledAt, &c.DelayBetweenMs, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
		&c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Campaign{}, mapError(err)
	}

	c.TargetTags = []string{}
	decodeJSON(targetTags, &c.TargetTags)
	c.TargetContacts = []string{}
	decodeJSON(targetContacts, &c.TargetContacts)
	return c, nil
}

func (r *campaignRepo) scanAll(rows pgx.Rows) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var targetTags, targetContacts []byte

		if err := rows.Scan(
			&c.ID, &c.Name, &c.Message, &c.MediaURL, &c.TargetType, &targetTags, &targetContacts,
			&c.ScheduledAt, &c.DelayBetweenMs, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
			&c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}

		c.TargetTags = []string{}
		decodeJSON(targetTags, &c.TargetTags)
		c.TargetContacts = []string{}
		decodeJSON(targetContacts, &c.TargetContacts)
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
