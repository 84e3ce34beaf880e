package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel = "gemini-2.5-flash"
)

// GeminiClient fala com a API generateContent do Google Gemini.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey string, httpClient *http.Client) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
		httpClient: httpClient,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// resolveGeminiModel corrige identificadores de modelos descontinuados para
// o padrão atual, para que configurações antigas gravadas no banco continuem
// funcionando sem intervenção.
func resolveGeminiModel(model string) string {
	model = strings.TrimSpace(model)
	switch model {
	case "", "gemini-pro", "gemini-1.5-flash", "gemini-1.5-pro", "gemini-2.0-flash":
		return geminiDefaultModel
	}
	return model
}

// normalizeHistory aplica as exigências do Gemini sobre o histórico: papéis
// estritamente alternados, começando com user e terminando com model.
// Turnos consecutivos do mesmo papel são fundidos, entradas iniciais que não
// sejam do usuário são descartadas e um turno final do usuário é removido
// (a mensagem nova o substitui). O slice de entrada não é modificado.
func normalizeHistory(history []Message) []geminiContent {
	var out []geminiContent
	lastRole := ""

	for _, msg := range history {
		role := "model"
		if msg.Role == RoleUser {
			role = "user"
		}

		if role == lastRole && len(out) > 0 {
			last := &out[len(out)-1]
			last.Parts[0].Text += "\n" + msg.Content
			continue
		}

		out = append(out, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
		lastRole = role
	}

	for len(out) > 0 && out[0].Role != "user" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1].Role == "user" {
		out = out[:len(out)-1]
	}

	return out
}

func (c *GeminiClient) Respond(ctx context.Context, message string, history []Message, cfg GenerationConfig) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("gemini: GEMINI_API_KEY não configurada")
	}

	model := resolveGeminiModel(cfg.Model)

	// O Gemini não tem papel de sistema dedicado nesta rota; as instruções
	// vão inline na mensagem do usuário.
	fullMessage := message
	if cfg.SystemPrompt != "" {
		fullMessage = fmt.Sprintf("[Instrucoes: %s]\n\nUsuario: %s", cfg.SystemPrompt, message)
	}

	contents := normalizeHistory(history)
	contents = append(contents, geminiContent{
		Role:  "user",
		Parts: []geminiPart{{Text: fullMessage}},
	})

	reqBody := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: requisição: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: ler resposta: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini: unmarshal: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini: API %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: resposta vazia")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
