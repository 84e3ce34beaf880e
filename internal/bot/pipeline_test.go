package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/ai"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

// Os fakes embutem a interface e implementam só o que o pipeline usa; um
// método não previsto estoura com nil pointer e aponta direto o problema.

type fakeContacts struct {
	storage.ContactRepository
	byPhone map[string]model.Contact
	created []model.Contact
}

func (f *fakeContacts) GetByPhone(_ context.Context, phone string) (model.Contact, error) {
	c, ok := f.byPhone[phone]
	if !ok {
		return model.Contact{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeContacts) FindOrCreate(_ context.Context, phone, name, profilePic string) (model.Contact, error) {
	c := model.Contact{ID: "c-" + phone, Phone: phone, Name: name, ProfilePic: profilePic}
	f.created = append(f.created, c)
	return c, nil
}

type fakeConversations struct {
	storage.ConversationRepository
	active model.Conversation
	unread int
}

func (f *fakeConversations) FindOrCreateActive(_ context.Context, contactID string) (model.Conversation, error) {
	if f.active.ID == "" {
		f.active = model.Conversation{ID: "conv-1", ContactID: contactID, Status: model.ConversationActive}
	}
	return f.active, nil
}

func (f *fakeConversations) GetByID(_ context.Context, id string) (model.Conversation, error) {
	if id != f.active.ID {
		return model.Conversation{}, storage.ErrNotFound
	}
	return f.active, nil
}

func (f *fakeConversations) IncrementUnread(_ context.Context, _ string, _ time.Time) error {
	f.unread++
	return nil
}

func (f *fakeConversations) TouchLastMessage(_ context.Context, _ string, _ time.Time) error {
	return nil
}

type fakeMessages struct {
	storage.MessageRepository
	created []model.Message
	history []model.Message
}

func (f *fakeMessages) Create(_ context.Context, msg model.Message) (model.Message, error) {
	msg.ID = "m-" + time.Now().Format("150405.000000000")
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeMessages) ListByConversation(_ context.Context, _ string, _ int) ([]model.Message, error) {
	return f.history, nil
}

type fakeBotConfig struct {
	storage.BotConfigRepository
	cfg model.BotConfig
}

func (f *fakeBotConfig) Get(_ context.Context) (model.BotConfig, error) { return f.cfg, nil }

type fakeAutoReplies struct {
	storage.AutoReplyRepository
	active []model.AutoReply
}

func (f *fakeAutoReplies) ListActive(_ context.Context) ([]model.AutoReply, error) {
	return f.active, nil
}

type fakeFlows struct {
	storage.FlowRepository
	active []model.Flow
}

func (f *fakeFlows) ListActive(_ context.Context) ([]model.Flow, error) { return f.active, nil }

type fakeContexts struct {
	storage.ContextRepository
	saved []model.ContextMessage
}

func (f *fakeContexts) Get(_ context.Context, _ string) (model.ConversationContext, error) {
	return model.ConversationContext{}, storage.ErrNotFound
}

func (f *fakeContexts) Upsert(_ context.Context, _ string, messages []model.ContextMessage) error {
	f.saved = messages
	return nil
}

type fakeTransport struct {
	sent    []string
	sendErr error
}

func (f *fakeTransport) SendText(_ context.Context, _, content string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, content)
	return nil
}

func (f *fakeTransport) ContactProfile(_ context.Context, _ string) (string, string) {
	return "", ""
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Publish(event string, _ any) { f.events = append(f.events, event) }

type fakeResponder struct {
	response string
	err      error
	calls    int
}

func (f *fakeResponder) Respond(_ context.Context, _ string, _ []ai.Message, _ ai.GenerationConfig) (string, error) {
	f.calls++
	return f.response, f.err
}

type pipelineFixture struct {
	contacts      *fakeContacts
	conversations *fakeConversations
	messages      *fakeMessages
	botConfig     *fakeBotConfig
	autoReplies   *fakeAutoReplies
	flows         *fakeFlows
	contexts      *fakeContexts
	transport     *fakeTransport
	notifier      *fakeNotifier
	responder     *fakeResponder
	pipeline      *Pipeline
}

func newFixture(cfg model.BotConfig) *pipelineFixture {
	f := &pipelineFixture{
		contacts:      &fakeContacts{byPhone: map[string]model.Contact{}},
		conversations: &fakeConversations{},
		messages:      &fakeMessages{},
		botConfig:     &fakeBotConfig{cfg: cfg},
		autoReplies:   &fakeAutoReplies{},
		flows:         &fakeFlows{},
		contexts:      &fakeContexts{},
		transport:     &fakeTransport{},
		notifier:      &fakeNotifier{},
		responder:     &fakeResponder{},
	}
	f.pipeline = NewPipeline(PipelineOptions{
		Contacts:      f.contacts,
		Conversations: f.conversations,
		Messages:      f.messages,
		BotConfig:     f.botConfig,
		AutoReplies:   f.autoReplies,
		Flows:         f.flows,
		Contexts:      f.contexts,
		Transport:     f.transport,
		Notifier:      f.notifier,
		Responder:     f.responder,
		Logger:        zap.NewNop(),
	})
	f.pipeline.sleep = func(time.Duration) {}
	f.pipeline.now = func() time.Time {
		// quarta-feira, 14h (dentro do horário comercial padrão dos testes)
		return time.Date(2026, 3, 4, 14, 0, 0, 0, time.Local)
	}
	return f
}

func activeConfig() model.BotConfig {
	return model.BotConfig{
		ID:                 model.BotConfigID,
		IsActive:           true,
		AIProvider:         "gemini",
		AIModel:            "gemini-2.5-flash",
		BusinessHoursStart: "09:00",
		BusinessHoursEnd:   "18:00",
		BusinessDays:       []int{1, 2, 3, 4, 5},
		AwayMessage:        "Estamos fora do horário de atendimento.",
	}
}

func inbound(content string) InboundMessage {
	return InboundMessage{
		From:     "5511999990000",
		Content:  content,
		Type:     model.MessageTypeText,
		PushName: "Maria",
	}
}

func TestPipelineIgnoresGroupAndOwnMessages(t *testing.T) {
	f := newFixture(activeConfig())

	in := inbound("oi")
	in.IsGroup = true
	if err := f.pipeline.Handle(context.Background(), in); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	in = inbound("oi")
	in.IsFromMe = true
	if err := f.pipeline.Handle(context.Background(), in); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.messages.created) != 0 {
		t.Errorf("mensagens persistidas = %d, want 0", len(f.messages.created))
	}
	if len(f.contacts.created) != 0 {
		t.Errorf("contatos criados = %d, want 0", len(f.contacts.created))
	}
}

func TestPipelineBlockedContactIsDropped(t *testing.T) {
	f := newFixture(activeConfig())
	f.contacts.byPhone["5511999990000"] = model.Contact{ID: "c1", Phone: "5511999990000", IsBlocked: true}

	if err := f.pipeline.Handle(context.Background(), inbound("oi")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.messages.created) != 0 {
		t.Errorf("mensagens persistidas = %d, want 0", len(f.messages.created))
	}
	if len(f.transport.sent) != 0 {
		t.Errorf("envios = %d, want 0", len(f.transport.sent))
	}
	if len(f.notifier.events) != 0 {
		t.Errorf("eventos publicados = %v, want nenhum", f.notifier.events)
	}
}

func TestPipelineCreatesContactFromPushName(t *testing.T) {
	f := newFixture(activeConfig())

	if err := f.pipeline.Handle(context.Background(), inbound("olá")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.contacts.created) != 1 {
		t.Fatalf("contatos criados = %d, want 1", len(f.contacts.created))
	}
	if got := f.contacts.created[0].Name; got != "Maria" {
		t.Errorf("nome do contato = %q, want %q", got, "Maria")
	}
	if f.conversations.unread != 1 {
		t.Errorf("incrementos de não lidas = %d, want 1", f.conversations.unread)
	}
	if len(f.notifier.events) == 0 || f.notifier.events[0] != "message:new" {
		t.Errorf("eventos = %v, want message:new primeiro", f.notifier.events)
	}
}

func TestPipelineAwayMessageOutsideBusinessHours(t *testing.T) {
	f := newFixture(activeConfig())
	f.pipeline.now = func() time.Time {
		return time.Date(2026, 3, 4, 22, 0, 0, 0, time.Local)
	}

	if err := f.pipeline.Handle(context.Background(), inbound("oi")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.transport.sent) != 1 {
		t.Fatalf("envios = %d, want 1", len(f.transport.sent))
	}
	if f.transport.sent[0] != "Estamos fora do horário de atendimento." {
		t.Errorf("conteúdo enviado = %q", f.transport.sent[0])
	}
	if f.responder.calls != 0 {
		t.Errorf("IA chamada %d vezes fora do horário, want 0", f.responder.calls)
	}
}

func TestPipelineInactiveBotOnlyPersists(t *testing.T) {
	cfg := activeConfig()
	cfg.IsActive = false
	f := newFixture(cfg)

	if err := f.pipeline.Handle(context.Background(), inbound("oi")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.messages.created) != 1 {
		t.Errorf("mensagens persistidas = %d, want 1 (só a recebida)", len(f.messages.created))
	}
	if len(f.transport.sent) != 0 {
		t.Errorf("envios = %d, want 0", len(f.transport.sent))
	}
}

func TestPipelineAutoReplyWinsOverFlowAndAI(t *testing.T) {
	f := newFixture(activeConfig())
	f.autoReplies.active = []model.AutoReply{
		{ID: "ar1", Trigger: "preço", TriggerType: model.TriggerContains, Response: "Tabela de preços: ..."},
	}
	f.flows.active = []model.Flow{
		{ID: "fl1", Trigger: "preço", TriggerType: model.TriggerContains, Steps: []model.FlowStep{
			{ID: "s1", Type: "message", Content: "não deveria rodar"},
		}},
	}

	if err := f.pipeline.Handle(context.Background(), inbound("qual o preço?")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.transport.sent) != 1 || f.transport.sent[0] != "Tabela de preços: ..." {
		t.Fatalf("envios = %v, want só a auto-resposta", f.transport.sent)
	}
	if f.responder.calls != 0 {
		t.Errorf("IA chamada %d vezes, want 0", f.responder.calls)
	}
	// a resposta também registra a mensagem OUTGOING e alimenta o contexto
	if len(f.messages.created) != 2 {
		t.Errorf("mensagens persistidas = %d, want 2", len(f.messages.created))
	}
	if len(f.contexts.saved) != 2 {
		t.Errorf("turnos de contexto = %d, want 2", len(f.contexts.saved))
	}
}

func TestPipelineFlowRunsAllMessageSteps(t *testing.T) {
	f := newFixture(activeConfig())
	f.flows.active = []model.Flow{
		{ID: "fl1", Trigger: "menu", TriggerType: model.TriggerExact, Steps: []model.FlowStep{
			{ID: "s1", Type: "message", Content: "Bem-vindo!"},
			{ID: "s2", Type: "wait", Content: "ignorado"},
			{ID: "s3", Type: "message", Content: "Escolha uma opção:"},
		}},
	}

	if err := f.pipeline.Handle(context.Background(), inbound("menu")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := []string{"Bem-vindo!", "Escolha uma opção:"}
	if len(f.transport.sent) != len(want) {
		t.Fatalf("envios = %v, want %v", f.transport.sent, want)
	}
	for i := range want {
		if f.transport.sent[i] != want[i] {
			t.Errorf("envio[%d] = %q, want %q", i, f.transport.sent[i], want[i])
		}
	}
	if f.responder.calls != 0 {
		t.Errorf("IA chamada %d vezes, want 0", f.responder.calls)
	}
}

func TestPipelineFlowStopsOnSendFailure(t *testing.T) {
	f := newFixture(activeConfig())
	f.flows.active = []model.Flow{
		{ID: "fl1", Trigger: "menu", TriggerType: model.TriggerExact, Steps: []model.FlowStep{
			{ID: "s1", Type: "message", Content: "primeiro"},
			{ID: "s2", Type: "message", Content: "segundo"},
		}},
	}
	f.transport.sendErr = errors.New("conexão caiu")

	if err := f.pipeline.Handle(context.Background(), inbound("menu")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.transport.sent) != 0 {
		t.Errorf("envios = %v, want nenhum", f.transport.sent)
	}
	// só a mensagem recebida fica registrada
	if len(f.messages.created) != 1 {
		t.Errorf("mensagens persistidas = %d, want 1", len(f.messages.created))
	}
}

func TestPipelineAIFallback(t *testing.T) {
	f := newFixture(activeConfig())
	f.responder.response = "Posso ajudar com isso!"
	f.messages.history = []model.Message{
		{Content: "resposta anterior", Direction: model.DirectionOutgoing},
		{Content: "pergunta anterior", Direction: model.DirectionIncoming},
	}

	if err := f.pipeline.Handle(context.Background(), inbound("tenho uma dúvida")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if f.responder.calls != 1 {
		t.Fatalf("IA chamada %d vezes, want 1", f.responder.calls)
	}
	found := false
	for _, sent := range f.transport.sent {
		if sent == "Posso ajudar com isso!" {
			found = true
		}
	}
	if !found {
		t.Errorf("resposta da IA não enviada; envios = %v", f.transport.sent)
	}
}

func TestPipelineAIErrorStaysSilent(t *testing.T) {
	f := newFixture(activeConfig())
	f.responder.err = errors.New("quota excedida")

	if err := f.pipeline.Handle(context.Background(), inbound("tenho uma dúvida")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(f.transport.sent) != 0 {
		t.Errorf("envios = %v, want nenhum (erro de IA é silencioso)", f.transport.sent)
	}
	if len(f.messages.created) != 1 {
		t.Errorf("mensagens persistidas = %d, want 1", len(f.messages.created))
	}
}
