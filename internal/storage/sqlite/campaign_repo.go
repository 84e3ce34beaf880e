package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Message, nullIfEmpty(campaign.MediaURL),
		string(campaign.TargetType), encodeJSON(campaign.TargetTags), encodeJSON(campaign.TargetContacts),
		formatTimePtr(campaign.ScheduledAt), campaign.DelayBetweenMs, string(campaign.Status),
		campaign.CreatedAt.Format(time.RFC3339), campaign.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return model.Campaign{}, err
	}
	return campaign, nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`
	return r.scanOne(r.db.Conn.QueryRowContext(ctx, query, id))
}

func (r *campaignRepo) List(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *campaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
		WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY scheduled_at ASC`

	rows, err := r.db.Conn.QueryContext(ctx, query, string(model.CampaignScheduled), now.Format(time.RFC3339))
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
		SET name = ?, message = ?, media_url = ?, target_type = ?, target_tags = ?, target_contacts = ?,
		    scheduled_at = ?, delay_between_ms = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.Conn.ExecContext(ctx, query,
		campaign.Name, campaign.Message, nullIfEmpty(campaign.MediaURL),
		string(campaign.TargetType), encodeJSON(campaign.TargetTags), encodeJSON(campaign.TargetContacts),
		formatTimePtr(campaign.ScheduledAt), campaign.DelayBetweenMs, string(campaign.Status),
		campaign.UpdatedAt.Format(time.RFC3339), campaign.ID,
	)
	if err != nil {
		return model.Campaign{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Campaign{}, model.ErrNotFound
	}
	return r.GetByID(ctx, campaign.ID)
}

func (r *campaignRepo) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus, startedAt, completedAt *time.Time) error {
	query := `UPDATE campaigns SET status = ?, updated_at = ?`
	args := []any{string(status), time.Now().Format(time.RFC3339)}

	if startedAt != nil {
		query += `, started_at = ?`
		args = append(args, startedAt.Format(time.RFC3339))
	}
	if completedAt != nil {
		query += `, completed_at = ?`
		args = append(args, completedAt.Format(time.RFC3339))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.db.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) SetTotalRecipients(ctx context.Context, id string, total int) error {
	query := `UPDATE campaigns SET total_recipients = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.Conn.ExecContext(ctx, query, total, time.Now().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *campaignRepo) IncrementSent(ctx context.Context, id string) error {
	query := `UPDATE campaigns SET sent_count = sent_count + 1, updated_at = ? WHERE id = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *campaignRepo) IncrementFailed(ctx context.Context, id string) error {
	query := `UPDATE campaigns SET failed_count = failed_count + 1, updated_at = ? WHERE id = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CreatePendingLogs cria uma linha PENDING por contato que ainda não tem log
// nessa campanha. A cláusula NOT EXISTS torna a chamada idempotente: retomar
// uma campanha pausada (ou reiniciar o processo) não duplica destinatários.
func (r *campaignRepo) CreatePendingLogs(ctx context.Context, campaignID string, contacts []model.Contact) error {
	tx, err := r.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_logs (id, campaign_id, contact_id, phone, status, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM campaign_logs WHERE campaign_id = ? AND contact_id = ?
		)
	`
	now := time.Now().Format(time.RFC3339)
	for _, contact := range contacts {
		if _, err := tx.ExecContext(ctx, query,
			uuid.New().String(), campaignID, contact.ID, contact.Phone,
			string(model.LogPending), now,
			campaignID, contact.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *campaignRepo) ListPendingLogs(ctx context.Context, campaignID string) ([]model.CampaignLog, error) {
	return r.queryLogs(ctx, campaignID, model.LogPending)
}

func (r *campaignRepo) ListLogs(ctx context.Context, campaignID string, status model.CampaignLogStatus) ([]model.CampaignLog, error) {
	return r.queryLogs(ctx, campaignID, status)
}

func (r *campaignRepo) MarkLogSent(ctx context.Context, logID string, at time.Time) error {
	query := `UPDATE campaign_logs SET status = ?, sent_at = ? WHERE id = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, string(model.LogSent), at.Format(time.RFC3339), logID)
	return err
}

func (r *campaignRepo) MarkLogFailed(ctx context.Context, logID string, errText string) error {
	query := `UPDATE campaign_logs SET status = ?, error = ? WHERE id = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, string(model.LogFailed), errText, logID)
	return err
}

func (r *campaignRepo) queryLogs(ctx context.Context, campaignID string, status model.CampaignLogStatus) ([]model.CampaignLog, error) {
	query := `
		SELECT id, campaign_id, contact_id, phone, status, COALESCE(error, ''), sent_at, created_at
		FROM campaign_logs
		WHERE campaign_id = ?
	`
	args := []any{campaignID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.CampaignLog
	for rows.Next() {
		var logEntry model.CampaignLog
		var sentAt sql.NullString
		var createdAt string

		if err := rows.Scan(
			&logEntry.ID, &logEntry.CampaignID, &logEntry.ContactID, &logEntry.Phone,
			&logEntry.Status, &logEntry.Error, &sentAt, &createdAt,
		); err != nil {
			return nil, err
		}

		if sentAt.Valid {
			logEntry.SentAt = parseTimePtr(sentAt.String)
		}
		logEntry.CreatedAt = parseTime(createdAt)
		logs = append(logs, logEntry)
	}
	return logs, rows.Err()
}

func (r *campaignRepo) scanOne(row *sql.Row) (model.Campaign, error) {
	var c model.Campaign
	var targetTags, targetContacts string
	var scheduledAt, startedAt, completedAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&c.ID, &c.Name, &c.Message, &c.MediaURL, &c.TargetType, &targetTags, &targetContacts,
		&scheduledAt, &c.DelayBetweenMs, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Campaign{}, mapError(err)
	}

	r.decode(&c, targetTags, targetContacts, scheduledAt, startedAt, completedAt, createdAt, updatedAt)
	return c, nil
}

func (r *campaignRepo) scanAll(rows *sql.Rows) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		var targetTags, targetContacts string
		var scheduledAt, startedAt, completedAt sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(
			&c.ID, &c.Name, &c.Message, &c.MediaURL, &c.TargetType, &targetTags, &targetContacts,
			&scheduledAt, &c.DelayBetweenMs, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
			&startedAt, &completedAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		r.decode(&c, targetTags, targetContacts, scheduledAt, startedAt, completedAt, createdAt, updatedAt)
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepo) decode(c *model.Campaign, targetTags, targetContacts string, scheduledAt, startedAt, completedAt sql.NullString, createdAt, updatedAt string) {
	c.TargetTags = []string{}
	decodeJSON(targetTags, &c.TargetTags)
	c.TargetContacts = []string{}
	decodeJSON(targetContacts, &c.TargetContacts)

	if scheduledAt.Valid {
		c.ScheduledAt = parseTimePtr(scheduledAt.String)
	}
	if startedAt.Valid {
		c.StartedAt = parseTimePtr(startedAt.String)
	}
	if completedAt.Valid {
		c.CompletedAt = parseTimePtr(completedAt.String)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
