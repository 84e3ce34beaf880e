package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/zapify/zapify/internal/storage/model"
)

type botConfigRepo struct {
	db *DB
}

func NewBotConfigRepository(db *DB) *botConfigRepo {
	return &botConfigRepo{db: db}
}

// Get devolve a configuração do bot, criando a linha "default" na primeira
// leitura.
func (r *botConfigRepo) Get(ctx context.Context) (model.BotConfig, error) {
	cfg, err := r.fetch(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.BotConfig{}, err
	}

	cfg = model.DefaultBotConfig()
	cfg.UpdatedAt = time.Now()

	insert := `
		INSERT INTO bot_config (id, is_active, ai_provider, ai_model, ai_temperature, ai_max_tokens,
		                        welcome_message, away_message, business_hours_start, business_hours_end,
		                        business_days, system_prompt, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Conn.ExecContext(ctx, insert,
		cfg.ID, cfg.IsActive, cfg.AIProvider, cfg.AIModel, cfg.AITemperature, cfg.AIMaxTokens,
		nullIfEmpty(cfg.WelcomeMessage), nullIfEmpty(cfg.AwayMessage),
		nullIfEmpty(cfg.BusinessHoursStart), nullIfEmpty(cfg.BusinessHoursEnd),
		encodeJSON(cfg.BusinessDays), nullIfEmpty(cfg.SystemPrompt),
		cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// Corrida na primeira leitura: outro caminho inseriu antes.
		if existing, fetchErr := r.fetch(ctx); fetchErr == nil {
			return existing, nil
		}
		return model.BotConfig{}, err
	}

	return cfg, nil
}

func (r *botConfigRepo) Update(ctx context.Context, cfg model.BotConfig) (model.BotConfig, error) {
	// Garante que a linha existe antes do update.
	if _, err := r.Get(ctx); err != nil {
		return model.BotConfig{}, err
	}

	cfg.ID = model.BotConfigID
	cfg.UpdatedAt = time.Now()

	query := `
		UPDATE bot_config
		SET is_active = ?, ai_provider = ?, ai_model = ?, ai_temperature = ?, ai_max_tokens = ?,
		    welcome_message = ?, away_message = ?, business_hours_start = ?, business_hours_end = ?,
		    business_days = ?, system_prompt = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Conn.ExecContext(ctx, query,
		cfg.IsActive, cfg.AIProvider, cfg.AIModel, cfg.AITemperature, cfg.AIMaxTokens,
		nullIfEmpty(cfg.WelcomeMessage), nullIfEmpty(cfg.AwayMessage),
		nullIfEmpty(cfg.BusinessHoursStart), nullIfEmpty(cfg.BusinessHoursEnd),
		encodeJSON(cfg.BusinessDays), nullIfEmpty(cfg.SystemPrompt),
		cfg.UpdatedAt.Format(time.RFC3339), cfg.ID,
	)
	if err != nil {
		return model.BotConfig{}, err
	}

	return cfg, nil
}

func (r *botConfigRepo) fetch(ctx context.Context) (model.BotConfig, error) {
	query := `
		SELECT id, is_active, ai_provider, ai_model, ai_temperature, ai_max_tokens,
		       COALESCE(welcome_message, ''), COALESCE(away_message, ''),
		       COALESCE(business_hours_start, ''), COALESCE(business_hours_end, ''),
		       business_days, COALESCE(system_prompt, ''), updated_at
		FROM bot_config
		WHERE id = ?
	`

	var cfg model.BotConfig
	var businessDays, updatedAt string

	err := r.db.Conn.QueryRowContext(ctx, query, model.BotConfigID).Scan(
		&cfg.ID, &cfg.IsActive, &cfg.AIProvider, &cfg.AIModel, &cfg.AITemperature, &cfg.AIMaxTokens,
		&cfg.WelcomeMessage, &cfg.AwayMessage, &cfg.BusinessHoursStart, &cfg.BusinessHoursEnd,
		&businessDays, &cfg.SystemPrompt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BotConfig{}, model.ErrNotFound
		}
		return model.BotConfig{}, err
	}

	cfg.BusinessDays = []int{}
	decodeJSON(businessDays, &cfg.BusinessDays)
	cfg.UpdatedAt = parseTime(updatedAt)
	return cfg, nil
}
