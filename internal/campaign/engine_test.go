package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

type fakeCampaignRepo struct {
	storage.CampaignRepository

	mu       sync.Mutex
	campaign model.Campaign
	logs     []model.CampaignLog
	nextLog  int
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id string) (model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.campaign.ID {
		return model.Campaign{}, storage.ErrNotFound
	}
	return f.campaign, nil
}

func (f *fakeCampaignRepo) SetTotalRecipients(_ context.Context, _ string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign.TotalRecipients = total
	return nil
}

func (f *fakeCampaignRepo) CreatePendingLogs(_ context.Context, campaignID string, contacts []model.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range contacts {
		exists := false
		for _, l := range f.logs {
			if l.ContactID == c.ID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		f.nextLog++
		f.logs = append(f.logs, model.CampaignLog{
			ID:         fmt.Sprintf("log-%d", f.nextLog),
			CampaignID: campaignID,
			ContactID:  c.ID,
			Phone:      c.Phone,
			Status:     model.LogPending,
		})
	}
	return nil
}

func (f *fakeCampaignRepo) ListPendingLogs(_ context.Context, _ string) ([]model.CampaignLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []model.CampaignLog
	for _, l := range f.logs {
		if l.Status == model.LogPending {
			pending = append(pending, l)
		}
	}
	return pending, nil
}

func (f *fakeCampaignRepo) UpdateStatus(_ context.Context, _ string, status model.CampaignStatus, startedAt, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign.Status = status
	if startedAt != nil {
		f.campaign.StartedAt = startedAt
	}
	if completedAt != nil {
		f.campaign.CompletedAt = completedAt
	}
	return nil
}

func (f *fakeCampaignRepo) MarkLogSent(_ context.Context, logID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		if f.logs[i].ID == logID {
			f.logs[i].Status = model.LogSent
			f.logs[i].SentAt = &at
		}
	}
	return nil
}

func (f *fakeCampaignRepo) MarkLogFailed(_ context.Context, logID, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		if f.logs[i].ID == logID {
			f.logs[i].Status = model.LogFailed
			f.logs[i].Error = errText
		}
	}
	return nil
}

func (f *fakeCampaignRepo) IncrementSent(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign.SentCount++
	return nil
}

func (f *fakeCampaignRepo) IncrementFailed(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaign.FailedCount++
	return nil
}

func (f *fakeCampaignRepo) snapshot() (model.Campaign, []model.CampaignLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	logs := make([]model.CampaignLog, len(f.logs))
	copy(logs, f.logs)
	return f.campaign, logs
}

type fakeContactRepo struct {
	storage.ContactRepository
	contacts []model.Contact
}

func (f *fakeContactRepo) ListRecipients(_ context.Context, _ []string, _ []string) ([]model.Contact, error) {
	return f.contacts, nil
}

func (f *fakeContactRepo) GetByID(_ context.Context, id string) (model.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Contact{}, storage.ErrNotFound
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []string // "phone|content"
	failFor map[string]bool
}

func (f *fakeSender) SendText(_ context.Context, phone, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[phone] {
		return errors.New("número inexistente")
	}
	f.sent = append(f.sent, phone+"|"+content)
	return nil
}

func (f *fakeSender) delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

// eventNotifier sinaliza eventos terminais para o teste esperar o loop.
type eventNotifier struct {
	mu     sync.Mutex
	events []string
	done   chan string
}

func newEventNotifier() *eventNotifier {
	return &eventNotifier{done: make(chan string, 4)}
}

func (n *eventNotifier) Publish(event string, _ any) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	if event == "campaign:completed" || event == "campaign:cancelled" || event == "campaign:paused" {
		n.done <- event
	}
}

func (n *eventNotifier) wait(t *testing.T, event string) {
	t.Helper()
	select {
	case got := <-n.done:
		if got != event {
			t.Fatalf("evento terminal = %q, want %q", got, event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout esperando %q", event)
	}
}

func contactsN(n int) []model.Contact {
	out := make([]model.Contact, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.Contact{
			ID:    fmt.Sprintf("c%d", i+1),
			Phone: fmt.Sprintf("551199999%04d", i),
			Name:  fmt.Sprintf("Contato %d", i+1),
		})
	}
	return out
}

func newTestEngine(repo *fakeCampaignRepo, contacts *fakeContactRepo, sender *fakeSender, notifier *eventNotifier) *Engine {
	e := NewEngine(repo, contacts, sender, notifier, zap.NewNop())
	e.sleep = func(time.Duration) {}
	return e
}

func TestEngineStartCompletesCampaign(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: model.Campaign{
		ID:         "camp-1",
		Name:       "Promo",
		Message:    "Olá {{nome}}!",
		TargetType: model.TargetAll,
		Status:     model.CampaignDraft,
	}}
	contacts := &fakeContactRepo{contacts: contactsN(3)}
	sender := &fakeSender{}
	notifier := newEventNotifier()
	engine := newTestEngine(repo, contacts, sender, notifier)

	if err := engine.Start(context.Background(), "camp-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	notifier.wait(t, "campaign:completed")

	campaign, logs := repo.snapshot()
	if campaign.Status != model.CampaignCompleted {
		t.Errorf("status = %s, want COMPLETED", campaign.Status)
	}
	if campaign.TotalRecipients != 3 || campaign.SentCount != 3 || campaign.FailedCount != 0 {
		t.Errorf("contadores = total %d / sent %d / failed %d", campaign.TotalRecipients, campaign.SentCount, campaign.FailedCount)
	}
	if campaign.StartedAt == nil || campaign.CompletedAt == nil {
		t.Error("startedAt/completedAt deveriam estar preenchidos")
	}
	for _, l := range logs {
		if l.Status != model.LogSent {
			t.Errorf("log %s = %s, want SENT", l.ID, l.Status)
		}
	}

	delivered := sender.delivered()
	if len(delivered) != 3 {
		t.Fatalf("envios = %d, want 3", len(delivered))
	}
	if delivered[0] != "5511999990000|Olá Contato 1!" {
		t.Errorf("primeiro envio = %q (placeholder não substituído?)", delivered[0])
	}
}

func TestEngineStartPartialFailureStillCompletes(t *testing.T) {
	all := contactsN(5)
	repo := &fakeCampaignRepo{campaign: model.Campaign{
		ID: "camp-1", Message: "oi", TargetType: model.TargetAll, Status: model.CampaignDraft,
	}}
	contacts := &fakeContactRepo{contacts: all}
	sender := &fakeSender{failFor: map[string]bool{all[2].Phone: true}}
	notifier := newEventNotifier()
	engine := newTestEngine(repo, contacts, sender, notifier)

	if err := engine.Start(context.Background(), "camp-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	notifier.wait(t, "campaign:completed")

	campaign, logs := repo.snapshot()
	if campaign.Status != model.CampaignCompleted {
		t.Errorf("status = %s, want COMPLETED", campaign.Status)
	}
	if campaign.SentCount != 4 || campaign.FailedCount != 1 {
		t.Errorf("sent/failed = %d/%d, want 4/1", campaign.SentCount, campaign.FailedCount)
	}
	for _, l := range logs {
		if l.ContactID == all[2].ID {
			if l.Status != model.LogFailed || l.Error == "" {
				t.Errorf("log do contato com falha = %+v", l)
			}
		} else if l.Status != model.LogSent {
			t.Errorf("log %s = %s, want SENT", l.ID, l.Status)
		}
	}
}

func TestEngineStartRejectsInvalidStatus(t *testing.T) {
	for _, status := range []model.CampaignStatus{model.CampaignRunning, model.CampaignCompleted, model.CampaignCancelled} {
		repo := &fakeCampaignRepo{campaign: model.Campaign{ID: "camp-1", Status: status}}
		engine := newTestEngine(repo, &fakeContactRepo{}, &fakeSender{}, newEventNotifier())

		err := engine.Start(context.Background(), "camp-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("Start com status %s: err = %v, want ErrInvalidState", status, err)
		}
	}
}

func TestEngineStartNoRecipients(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: model.Campaign{ID: "camp-1", Status: model.CampaignDraft, TargetType: model.TargetAll}}
	engine := newTestEngine(repo, &fakeContactRepo{}, &fakeSender{}, newEventNotifier())

	if err := engine.Start(context.Background(), "camp-1"); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}

func TestEnginePauseRequiresRunningLoop(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: model.Campaign{ID: "camp-1", Status: model.CampaignDraft}}
	engine := newTestEngine(repo, &fakeContactRepo{}, &fakeSender{}, newEventNotifier())

	if err := engine.Pause(context.Background(), "camp-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestEngineCancelPersistsImmediately(t *testing.T) {
	repo := &fakeCampaignRepo{campaign: model.Campaign{ID: "camp-1", Status: model.CampaignRunning}}
	notifier := newEventNotifier()
	engine := newTestEngine(repo, &fakeContactRepo{}, &fakeSender{}, notifier)

	// sem loop registrado: cancelar ainda persiste o status (processo pode
	// ter reiniciado com a campanha RUNNING órfã no banco)
	if err := engine.Cancel(context.Background(), "camp-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	campaign, _ := repo.snapshot()
	if campaign.Status != model.CampaignCancelled {
		t.Errorf("status = %s, want CANCELLED", campaign.Status)
	}
	notifier.wait(t, "campaign:cancelled")
}

func TestEngineCancelRejectsFinishedCampaign(t *testing.T) {
	for _, status := range []model.CampaignStatus{model.CampaignCompleted, model.CampaignCancelled} {
		repo := &fakeCampaignRepo{campaign: model.Campaign{ID: "camp-1", Status: status}}
		engine := newTestEngine(repo, &fakeContactRepo{}, &fakeSender{}, newEventNotifier())

		if err := engine.Cancel(context.Background(), "camp-1"); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Cancel com status %s: err = %v, want ErrInvalidState", status, err)
		}
	}
}

func TestEngineResumeSkipsAlreadySent(t *testing.T) {
	all := contactsN(4)
	repo := &fakeCampaignRepo{campaign: model.Campaign{
		ID: "camp-1", Message: "oi", TargetType: model.TargetAll, Status: model.CampaignPaused, SentCount: 2,
	}}
	// dois já enviados numa execução anterior
	repo.logs = []model.CampaignLog{
		{ID: "log-1", CampaignID: "camp-1", ContactID: all[0].ID, Phone: all[0].Phone, Status: model.LogSent},
		{ID: "log-2", CampaignID: "camp-1", ContactID: all[1].ID, Phone: all[1].Phone, Status: model.LogSent},
	}
	repo.nextLog = 2

	contacts := &fakeContactRepo{contacts: all}
	sender := &fakeSender{}
	notifier := newEventNotifier()
	engine := newTestEngine(repo, contacts, sender, notifier)

	if err := engine.Start(context.Background(), "camp-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	notifier.wait(t, "campaign:completed")

	campaign, logs := repo.snapshot()
	if len(logs) != 4 {
		t.Fatalf("logs = %d, want 4 (retomada não duplica)", len(logs))
	}
	if got := len(sender.delivered()); got != 2 {
		t.Errorf("envios na retomada = %d, want 2 (só os pendentes)", got)
	}
	if campaign.SentCount != 4 {
		t.Errorf("sentCount = %d, want 4", campaign.SentCount)
	}
	if campaign.TotalRecipients != 4 {
		t.Errorf("totalRecipients = %d, want 4", campaign.TotalRecipients)
	}
}
