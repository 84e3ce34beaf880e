package campaign

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/storage/model"
)

func (f *fakeCampaignRepo) ListDueScheduled(_ context.Context, now time.Time) ([]model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.campaign.Status == model.CampaignScheduled && f.campaign.ScheduledAt != nil && !f.campaign.ScheduledAt.After(now) {
		return []model.Campaign{f.campaign}, nil
	}
	return nil, nil
}

func TestSchedulerTickStartsDueCampaign(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	repo := &fakeCampaignRepo{campaign: model.Campaign{
		ID:          "camp-1",
		Message:     "oi",
		TargetType:  model.TargetAll,
		Status:      model.CampaignScheduled,
		ScheduledAt: &past,
	}}
	contacts := &fakeContactRepo{contacts: contactsN(2)}
	sender := &fakeSender{}
	notifier := newEventNotifier()
	engine := newTestEngine(repo, contacts, sender, notifier)
	scheduler := NewScheduler(repo, engine, zap.NewNop())

	scheduler.tick()
	notifier.wait(t, "campaign:completed")

	campaign, _ := repo.snapshot()
	if campaign.Status != model.CampaignCompleted {
		t.Errorf("status = %s, want COMPLETED", campaign.Status)
	}
	if got := len(sender.delivered()); got != 2 {
		t.Errorf("envios = %d, want 2", got)
	}
}

func TestSchedulerTickIgnoresFutureCampaign(t *testing.T) {
	future := time.Now().Add(time.Hour)
	repo := &fakeCampaignRepo{campaign: model.Campaign{
		ID:          "camp-1",
		Status:      model.CampaignScheduled,
		ScheduledAt: &future,
	}}
	sender := &fakeSender{}
	engine := newTestEngine(repo, &fakeContactRepo{}, sender, newEventNotifier())
	scheduler := NewScheduler(repo, engine, zap.NewNop())

	scheduler.tick()

	campaign, _ := repo.snapshot()
	if campaign.Status != model.CampaignScheduled {
		t.Errorf("status = %s, want SCHEDULED inalterado", campaign.Status)
	}
	if got := len(sender.delivered()); got != 0 {
		t.Errorf("envios = %d, want 0", got)
	}
}
