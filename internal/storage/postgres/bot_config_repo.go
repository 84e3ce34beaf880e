package postgres

import (
	"context"
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, insert,
		cfg.ID, cfg.IsActive, cfg.AIProvider, cfg.AIModel, cfg.AITemperature, cfg.AIMaxTokens,
		nullIfEmpty(cfg.WelcomeMessage), nullIfEmpty(cfg.AwayMessage),
		nullIfEmpty(cfg.BusinessHoursStart), nullIfEmpty(cfg.BusinessHoursEnd),
		encodeJSON(cfg.BusinessDays), nullIfEmpty(cfg.SystemPrompt), cfg.UpdatedAt,
	)
	if err != nil {
		return model.BotConfig{}, err
	}
	if tag.RowsAffected() == 0 {
		return r.fetch(ctx)
	}
	return cfg, nil
}

func (r *botConfigRepo) Update(ctx context.Context, cfg model.BotConfig) (model.BotConfig, error) {
	if _, err := r.Get(ctx); err != nil {
		return model.BotConfig{}, err
	}

	cfg.ID = model.BotConfigID
	cfg.UpdatedAt = time.Now()

	query := `
		UPDATE bot_config
		SET is_active = $1, ai_provider = $2, ai_model = $3, ai_temperature = $4, ai_max_tokens = $5,
		    welcome_message = $6, away_message = $7, business_hours_start = $8, business_hours_end = $9,
		    business_days = $10, system_prompt = $11, updated_at = $12
		WHERE id = $13
	`
	if _, err := r.db.Pool.Exec(ctx, query,
		cfg.IsActive, cfg.AIProvider, cfg.AIModel, cfg.AITemperature, cfg.AIMaxTokens,
		nullIfEmpty(cfg.WelcomeMessage), nullIfEmpty(cfg.AwayMessage),
		nullIfEmpty(cfg.BusinessHoursStart), nullIfEmpty(cfg.BusinessHoursEnd),
		encodeJSON(cfg.BusinessDays), nullIfEmpty(cfg.SystemPrompt), cfg.UpdatedAt, cfg.ID,
	); err != nil {
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
		WHERE id = $1
	`
	var cfg model.BotConfig
	var businessDays []byte

	err := r.db.Pool.QueryRow(ctx, query, model.BotConfigID).Scan(
		&cfg.ID, &cfg.IsActive, &cfg.AIProvider, &cfg.AIModel, &cfg.AITemperature, &cfg.AIMaxTokens,
		&cfg.WelcomeMessage, &cfg.AwayMessage, &cfg.BusinessHoursStart, &cfg.BusinessHoursEnd,
		&businessDays, &cfg.SystemPrompt, &cfg.UpdatedAt,
	)
	if err != nil {
		return model.BotConfig{}, mapError(err)
	}

	cfg.BusinessDays = []int{}
	decodeJSON(businessDays, &cfg.BusinessDays)
	return cfg, nil
}
