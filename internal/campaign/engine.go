// Package campaign executa campanhas de disparo em massa: uma goroutine por
// campanha RUNNING, com pausa, cancelamento e retomada sem duplicar envios.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

var (
	ErrAlreadyRunning = errors.New("campanha já está em execução")
	ErrNoRecipients   = errors.New("campanha sem destinatários")
	ErrInvalidState   = errors.New("transição de status inválida")
)

// Sender entrega uma mensagem de campanha para um telefone.
type Sender interface {
	SendText(ctx context.Context, phone, content string) error
}

// Notifier publica o progresso para o dashboard (melhor-esforço).
type Notifier interface {
	Publish(event string, payload any)
}

type runState struct {
	mu        sync.Mutex
	paused    bool
	cancelled bool
}

func (s *runState) pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *runState) cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *runState) snapshot() (paused, cancelled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused, s.cancelled
}

type Engine struct {
	campaigns storage.CampaignRepository
	contacts  storage.ContactRepository
	sender    Sender
	notifier  Notifier
	log       *zap.Logger

	mu   sync.Mutex
	runs map[string]*runState

	// injetável em teste
	sleep func(time.Duration)
}

func NewEngine(campaigns storage.CampaignRepository, contacts storage.ContactRepository, sender Sender, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{
		campaigns: campaigns,
		contacts:  contacts,
		sender:    sender,
		notifier:  notifier,
		log:       log,
		runs:      make(map[string]*runState),
		sleep:     time.Sleep,
	}
}

// Start valida o status, materializa os logs PENDING e dispara o loop de
// envio em background. Retomar uma campanha PAUSED passa por aqui de novo:
// CreatePendingLogs é idempotente e o loop só vê o que ainda está PENDING.
func (e *Engine) Start(ctx context.Context, id string) error {
	campaign, err := e.campaigns.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch campaign.Status {
	case model.CampaignDraft, model.CampaignScheduled, model.CampaignPaused:
	default:
		return fmt.Errorf("%w: %s não pode iniciar", ErrInvalidState, campaign.Status)
	}

	recipients, err := e.resolveRecipients(ctx, campaign)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	if err := e.campaigns.SetTotalRecipients(ctx, id, len(recipients)); err != nil {
		return err
	}
	if err := e.campaigns.CreatePendingLogs(ctx, id, recipients); err != nil {
		return err
	}

	e.mu.Lock()
	if _, running := e.runs[id]; running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	state := &runState{}
	e.runs[id] = state
	e.mu.Unlock()

	now := time.Now()
	startedAt := campaign.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	if err := e.campaigns.UpdateStatus(ctx, id, model.CampaignRunning, startedAt, nil); err != nil {
		e.unregister(id)
		return err
	}

	e.log.Info("campanha iniciada",
		zap.String("campaign_id", id),
		zap.String("name", campaign.Name),
		zap.Int("recipients", len(recipients)),
	)

	// O loop vive além da requisição HTTP que o disparou.
	go e.run(context.Background(), campaign, state)
	return nil
}

// Pause persiste PAUSED imediatamente; o loop para antes do próximo envio.
func (e *Engine) Pause(ctx context.Context, id string) error {
	e.mu.Lock()
	state, running := e.runs[id]
	e.mu.Unlock()
	if !running {
		return fmt.Errorf("%w: campanha não está em execução", ErrInvalidState)
	}

	state.pause()
	if err := e.campaigns.UpdateStatus(ctx, id, model.CampaignPaused, nil, nil); err != nil {
		return err
	}

	e.log.Info("campanha pausada", zap.String("campaign_id", id))
	e.publish("campaign:paused", map[string]any{"campaignId": id})
	return nil
}

// Cancel persiste CANCELLED imediatamente, mesmo que o loop demore a
// observar o flag (o status no banco nunca espera o delay entre envios).
func (e *Engine) Cancel(ctx context.Context, id string) error {
	campaign, err := e.campaigns.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch campaign.Status {
	case model.CampaignCompleted, model.CampaignCancelled:
		return fmt.Errorf("%w: campanha já finalizada", ErrInvalidState)
	}

	e.mu.Lock()
	state, running := e.runs[id]
	e.mu.Unlock()
	if running {
		state.cancel()
	}

	if err := e.campaigns.UpdateStatus(ctx, id, model.CampaignCancelled, nil, nil); err != nil {
		return err
	}

	e.log.Info("campanha cancelada", zap.String("campaign_id", id))
	e.publish("campaign:cancelled", map[string]any{"campaignId": id})
	return nil
}

func (e *Engine) resolveRecipients(ctx context.Context, campaign model.Campaign) ([]model.Contact, error) {
	switch campaign.TargetType {
	case model.TargetTags:
		return e.contacts.ListRecipients(ctx, campaign.TargetTags, nil)
	case model.TargetSelected:
		return e.contacts.ListRecipients(ctx, nil, campaign.TargetContacts)
	default:
		return e.contacts.ListRecipients(ctx, nil, nil)
	}
}

func (e *Engine) run(ctx context.Context, campaign model.Campaign, state *runState) {
	defer e.unregister(campaign.ID)

	logs, err := e.campaigns.ListPendingLogs(ctx, campaign.ID)
	if err != nil {
		e.log.Error("erro ao listar destinatários pendentes",
			zap.String("campaign_id", campaign.ID), zap.Error(err))
		return
	}

	delay := time.Duration(campaign.DelayBetweenMs) * time.Millisecond

	for i, logEntry := range logs {
		if paused, cancelled := state.snapshot(); paused || cancelled {
			// Pause/Cancel já persistiram o status.
			e.log.Info("loop de campanha interrompido",
				zap.String("campaign_id", campaign.ID),
				zap.Bool("cancelled", cancelled),
			)
			return
		}

		e.sendOne(ctx, campaign, logEntry)

		e.publish("campaign:progress", map[string]any{
			"campaignId": campaign.ID,
			"processed":  i + 1,
			"total":      len(logs),
		})

		// Delay fixo entre envios; sem delay após o último.
		if delay > 0 && i < len(logs)-1 {
			e.sleep(delay)
		}
	}

	now := time.Now()
	if err := e.campaigns.UpdateStatus(ctx, campaign.ID, model.CampaignCompleted, nil, &now); err != nil {
		e.log.Error("erro ao finalizar campanha", zap.String("campaign_id", campaign.ID), zap.Error(err))
		return
	}

	e.log.Info("campanha concluída", zap.String("campaign_id", campaign.ID))
	e.publish("campaign:completed", map[string]any{"campaignId": campaign.ID})
}

// sendOne processa um destinatário. Falha de envio marca o log como FAILED e
// o loop segue: um número inválido não derruba a campanha inteira.
func (e *Engine) sendOne(ctx context.Context, campaign model.Campaign, logEntry model.CampaignLog) {
	content := campaign.Message
	if contact, err := e.contacts.GetByID(ctx, logEntry.ContactID); err == nil {
		content = RenderMessage(campaign.Message, contact.Name)
	}

	if err := e.sender.SendText(ctx, logEntry.Phone, content); err != nil {
		e.log.Warn("falha no envio da campanha",
			zap.String("campaign_id", campaign.ID),
			zap.String("phone", logEntry.Phone),
			zap.Error(err),
		)
		if err := e.campaigns.MarkLogFailed(ctx, logEntry.ID, err.Error()); err != nil {
			e.log.Error("erro ao marcar log como FAILED", zap.Error(err))
		}
		if err := e.campaigns.IncrementFailed(ctx, campaign.ID); err != nil {
			e.log.Error("erro ao incrementar failed_count", zap.Error(err))
		}
		return
	}

	if err := e.campaigns.MarkLogSent(ctx, logEntry.ID, time.Now()); err != nil {
		e.log.Error("erro ao marcar log como SENT", zap.Error(err))
	}
	if err := e.campaigns.IncrementSent(ctx, campaign.ID); err != nil {
		e.log.Error("erro ao incrementar sent_count", zap.Error(err))
	}
}

func (e *Engine) unregister(id string) {
	e.mu.Lock()
	delete(e.runs, id)
	e.mu.Unlock()
}

func (e *Engine) publish(event string, payload any) {
	if e.notifier != nil {
		e.notifier.Publish(event, payload)
	}
}
