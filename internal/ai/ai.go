// Package ai implementa o gateway de resposta por IA: uma interface única
// sobre os três provedores suportados (gemini, openai, anthropic), cada um
// falando sua própria API HTTP.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/config"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message é um turno do histórico conversacional, na ordem cronológica
// (mais recente por último).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationConfig vem do BotConfig persistido e é lida a cada chamada.
type GenerationConfig struct {
	Provider     string
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Responder gera uma resposta de texto a partir da mensagem e do histórico.
// Implementações não fazem retry; um erro significa "sem resposta" e o
// chamador decide seguir em silêncio.
type Responder interface {
	Respond(ctx context.Context, message string, history []Message, cfg GenerationConfig) (string, error)
}

var ErrUnknownProvider = errors.New("ai: provedor desconhecido")

// DefaultSystemPrompt é usado quando o BotConfig não define um prompt próprio.
const DefaultSystemPrompt = `Voce e um assistente virtual de atendimento ao cliente via WhatsApp.

Diretrizes:
- Seja educado, profissional e prestativo
- Responda de forma clara e objetiva
- Use linguagem adequada para WhatsApp (mensagens curtas e diretas)
- Se nao souber algo, seja honesto e ofereca alternativas
- Evite respostas muito longas
- Use emojis com moderacao quando apropriado
- Sempre tente ajudar o cliente a resolver sua duvida ou problema`

// Gateway despacha para o backend configurado. As credenciais vêm do
// ambiente; o provedor/modelo vêm da configuração persistida do bot.
type Gateway struct {
	gemini    *GeminiClient
	openai    *OpenAIClient
	anthropic *AnthropicClient
	log       *zap.Logger
}

func NewGateway(cfg config.AIConfig, log *zap.Logger) *Gateway {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	return &Gateway{
		gemini:    NewGeminiClient(cfg.GeminiAPIKey, httpClient),
		openai:    NewOpenAIClient(cfg.OpenAIAPIKey, httpClient),
		anthropic: NewAnthropicClient(cfg.AnthropicAPIKey, httpClient),
		log:       log,
	}
}

func (g *Gateway) Respond(ctx context.Context, message string, history []Message, cfg GenerationConfig) (string, error) {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	var (
		text string
		err  error
	)
	switch cfg.Provider {
	case "gemini":
		text, err = g.gemini.Respond(ctx, message, history, cfg)
	case "openai":
		text, err = g.openai.Respond(ctx, message, history, cfg)
	case "anthropic":
		text, err = g.anthropic.Respond(ctx, message, history, cfg)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if err != nil {
		g.log.Warn("ia: falha ao gerar resposta",
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}
