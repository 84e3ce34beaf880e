// Package whatsmeow gerencia a sessão única de WhatsApp do dashboard:
// pareamento por QR code, recebimento de mensagens (enfileiradas para o
// pipeline do bot) e envio de texto.
package whatsmeow

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"           // driver PostgreSQL para as sessões do WhatsMeow
	_ "github.com/mattn/go-sqlite3" // driver SQLite para as sessões do WhatsMeow
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/zapify/zapify/internal/pkg/queue"
)

type noopLogger struct{}

func (n *noopLogger) Debugf(msg string, args ...interface{}) {}
func (n *noopLogger) Infof(msg string, args ...interface{})  {}
func (n *noopLogger) Warnf(msg string, args ...interface{})  {}
func (n *noopLogger) Errorf(msg string, args ...interface{}) {}
func (n *noopLogger) Sub(module string) waLog.Logger         { return n }

const (
	StatusDisconnected = "disconnected"
	StatusConnecting   = "connecting"
	StatusQRCode       = "qr"
	StatusConnected    = "connected"
)

// Notifier publica mudanças de status e o QR code para o dashboard.
type Notifier interface {
	Publish(event string, payload any)
}

type Manager struct {
	client  *whatsmeow.Client
	inbound queue.Queue

	mu        sync.RWMutex
	status    string
	currentQR string

	storageDriver string
	sessionDir    string
	pgConnString  string

	notifier Notifier
	log      *zap.Logger
}

func NewManager(storageDriver, sessionDir, pgConnString string, inbound queue.Queue, notifier Notifier, log *zap.Logger) *Manager {
	if storageDriver != "postgres" {
		if sessionDir == "" {
			sessionDir = "./data/session"
			log.Warn("sessionDir não definido, usando diretório padrão", zap.String("dir", sessionDir))
		}
		os.MkdirAll(sessionDir, 0755)
	}

	return &Manager{
		inbound:       inbound,
		status:        StatusDisconnected,
		storageDriver: storageDriver,
		sessionDir:    sessionDir,
		pgConnString:  pgConnString,
		notifier:      notifier,
		log:           log,
	}
}

// Connect abre (ou restaura) a sessão. Sem credenciais salvas o pareamento
// por QR code é iniciado e o código fica disponível em QR() e via notifier.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.client != nil && m.client.IsConnected() {
		m.mu.Unlock()
		return fmt.Errorf("whatsmeow: sessão já conectada")
	}
	m.mu.Unlock()

	clientLog := &noopLogger{}
	var container *sqlstore.Container
	var err error

	if m.storageDriver == "postgres" && m.pgConnString != "" {
		container, err = sqlstore.New(ctx, "postgres", m.pgConnString, clientLog)
	} else {
		dbPath := filepath.Join(m.sessionDir, "session.db")
		dsn := fmt.Sprintf("file:%s?_foreign_keys=on", dbPath)
		container, err = sqlstore.New(ctx, "sqlite3", dsn, clientLog)
	}
	if err != nil {
		return fmt.Errorf("whatsmeow: criar store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("whatsmeow: obter device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, clientLog)
	client.EnableAutoReconnect = true
	client.AddEventHandler(m.handleEvent)

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	m.setStatus(StatusConnecting)

	if deviceStore.ID == nil {
		// Sessão nova: o canal QR precisa ser criado antes do Connect.
		qrChan, err := client.GetQRChannel(context.Background())
		if err != nil {
			return fmt.Errorf("whatsmeow: obter canal QR: %w", err)
		}
		if err := client.Connect(); err != nil {
			return fmt.Errorf("whatsmeow: conectar: %w", err)
		}
		go m.monitorQRChannel(qrChan)
		m.log.Info("sessão aguardando pareamento por QR code")
		return nil
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("whatsmeow: conectar: %w", err)
	}

	m.log.Info("sessão restaurada", zap.String("jid", deviceStore.ID.String()))
	return nil
}

func (m *Manager) monitorQRChannel(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			m.mu.Lock()
			m.currentQR = evt.Code
			m.mu.Unlock()
			m.setStatus(StatusQRCode)
			m.log.Info("QR code recebido", zap.Duration("timeout", evt.Timeout))

			if png, err := qrcode.Encode(evt.Code, qrcode.Medium, 256); err == nil && m.notifier != nil {
				m.notifier.Publish("bot:qr", map[string]any{
					"qr": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
				})
			}

		case "success":
			m.mu.Lock()
			m.currentQR = ""
			m.mu.Unlock()
			m.log.Info("pareamento concluído com sucesso")

		default:
			m.log.Warn("canal QR encerrado", zap.String("event", evt.Event))
		}
	}
}

// QR retorna o QR code atual como data URL PNG, ou vazio se não há
// pareamento pendente.
func (m *Manager) QR() (string, error) {
	m.mu.RLock()
	code := m.currentQR
	m.mu.RUnlock()

	if code == "" {
		return "", nil
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("whatsmeow: gerar QR: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (m *Manager) Status() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	return client != nil && client.IsLoggedIn()
}

func (m *Manager) Disconnect() {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
	m.setStatus(StatusDisconnected)
}

// SendText entrega uma mensagem de texto para o telefone informado.
func (m *Manager) SendText(ctx context.Context, phone, content string) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil || !client.IsLoggedIn() {
		return fmt.Errorf("whatsmeow: sessão não conectada")
	}

	jid, err := m.resolveJID(ctx, client, phone)
	if err != nil {
		return fmt.Errorf("whatsmeow: resolver JID: %w", err)
	}

	_, err = client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(content),
	})
	if err != nil {
		return fmt.Errorf("whatsmeow: enviar mensagem: %w", err)
	}
	return nil
}

// ContactProfile busca nome e foto do contato no store da sessão.
// Falhas devolvem vazio: perfil é informação de enriquecimento, nunca
// bloqueia o pipeline.
func (m *Manager) ContactProfile(ctx context.Context, phone string) (string, string) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil || !client.IsLoggedIn() {
		return "", ""
	}

	jid, err := m.resolveJID(ctx, client, phone)
	if err != nil {
		return "", ""
	}

	var name, profilePic string

	if info, err := client.Store.Contacts.GetContact(ctx, jid); err == nil {
		if info.FullName != "" {
			name = info.FullName
		} else if info.PushName != "" {
			name = info.PushName
		}
	}

	if pic, err := client.GetProfilePictureInfo(ctx, jid, nil); err == nil && pic != nil {
		profilePic = pic.URL
	}

	return name, profilePic
}

// resolveJID normaliza o telefone para um JID. Para números brasileiros (55)
// o nono dígito nem sempre existe no WhatsApp; IsOnWhatsApp decide entre as
// duas formas.
func (m *Manager) resolveJID(ctx context.Context, client *whatsmeow.Client, phone string) (types.JID, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return types.EmptyJID, fmt.Errorf("telefone vazio")
	}

	if strings.Contains(phone, "@") {
		return types.ParseJID(phone)
	}

	phone = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if !strings.HasPrefix(phone, "55") {
		return types.ParseJID(phone + "@s.whatsapp.net")
	}

	candidates := []string{phone}
	if len(phone) == 13 {
		candidates = append(candidates, phone[:4]+phone[5:])
	} else if len(phone) == 12 {
		candidates = append(candidates, phone[:4]+"9"+phone[4:])
	}

	resp, err := client.IsOnWhatsApp(ctx, candidates)
	if err != nil {
		m.log.Warn("falha ao consultar IsOnWhatsApp, usando número original",
			zap.String("phone", phone), zap.Error(err))
		return types.ParseJID(phone + "@s.whatsapp.net")
	}

	for _, item := range resp {
		if item.JID.User != "" {
			return item.JID, nil
		}
	}
	return types.ParseJID(phone + "@s.whatsapp.net")
}

func (m *Manager) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		m.enqueueMessage(v)

	case *events.Connected:
		m.log.Info("sessão conectada")
		m.setStatus(StatusConnected)

	case *events.PairSuccess:
		m.log.Info("pareamento concluído", zap.String("jid", v.ID.String()))
		m.setStatus(StatusConnected)

	case *events.Disconnected:
		m.log.Warn("sessão desconectada")
		m.setStatus(StatusDisconnected)

	case *events.LoggedOut:
		m.log.Warn("sessão deslogada", zap.String("reason", v.Reason.String()))
		m.setStatus(StatusDisconnected)

	case *events.ConnectFailure:
		m.log.Error("falha de conexão",
			zap.String("reason", v.Reason.String()),
			zap.String("message", v.Message),
		)
		m.setStatus(StatusDisconnected)
	}
}

func (m *Manager) enqueueMessage(evt *events.Message) {
	content, msgType := extractContent(evt.Message)
	if content == "" && msgType == "TEXT" {
		return
	}

	event := queue.Event{
		ID:        evt.Info.ID,
		From:      evt.Info.Sender.User,
		Content:   content,
		Type:      msgType,
		IsFromMe:  evt.Info.IsFromMe,
		IsGroup:   evt.Info.IsGroup,
		PushName:  evt.Info.PushName,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.inbound.Enqueue(ctx, event); err != nil {
		m.log.Error("erro ao enfileirar mensagem recebida",
			zap.String("from", event.From),
			zap.Error(err),
		)
	}
}

// extractContent mapeia o payload do WhatsMeow para (conteúdo, tipo). Para
// mídia o conteúdo é a legenda, quando houver.
func extractContent(msg *waE2E.Message) (string, string) {
	if msg == nil {
		return "", "TEXT"
	}

	if text := msg.GetConversation(); text != "" {
		return text, "TEXT"
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText(), "TEXT"
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption(), "IMAGE"
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		return vid.GetCaption(), "VIDEO"
	}
	if msg.GetAudioMessage() != nil {
		return "", "AUDIO"
	}
	if doc := msg.GetDocumentMessage(); doc != nil {
		return doc.GetCaption(), "DOCUMENT"
	}
	if msg.GetStickerMessage() != nil {
		return "", "STICKER"
	}
	return "", "TEXT"
}

func (m *Manager) setStatus(status string) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.mu.Unlock()

	if changed && m.notifier != nil {
		m.notifier.Publish("bot:status", map[string]any{"status": status})
	}
}
