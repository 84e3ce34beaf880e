package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/storage"
)

// Scheduler promove campanhas SCHEDULED vencidas a RUNNING. Roda a cada
// minuto; a granularidade de agendamento do dashboard também é de minutos.
type Scheduler struct {
	campaigns storage.CampaignRepository
	engine    *Engine
	log       *zap.Logger
	cron      *cron.Cron
}

func NewScheduler(campaigns storage.CampaignRepository, engine *Engine, log *zap.Logger) *Scheduler {
	return &Scheduler{
		campaigns: campaigns,
		engine:    engine,
		log:       log,
		cron:      cron.New(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler de campanhas iniciado")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler de campanhas encerrado")
}

func (s *Scheduler) tick() {
	ctx := context.Background()

	due, err := s.campaigns.ListDueScheduled(ctx, time.Now())
	if err != nil {
		s.log.Error("scheduler: erro ao listar campanhas agendadas", zap.Error(err))
		return
	}

	for _, campaign := range due {
		if err := s.engine.Start(ctx, campaign.ID); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				continue
			}
			s.log.Error("scheduler: erro ao iniciar campanha agendada",
				zap.String("campaign_id", campaign.ID),
				zap.Error(err),
			)
		}
	}
}
