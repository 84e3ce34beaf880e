package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveGeminiModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-flash"},
		{"gemini-1.5-flash", "gemini-2.5-flash"},
		{"gemini-1.5-pro", "gemini-2.5-flash"},
		{"gemini-2.0-flash", "gemini-2.5-flash"},
		{"  gemini-pro  ", "gemini-2.5-flash"},
		{"gemini-2.5-pro", "gemini-2.5-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		if got := resolveGeminiModel(tt.in); got != tt.want {
			t.Errorf("resolveGeminiModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeHistory(t *testing.T) {
	t.Run("funde turnos consecutivos do mesmo papel", func(t *testing.T) {
		got := normalizeHistory([]Message{
			{Role: RoleUser, Content: "oi"},
			{Role: RoleUser, Content: "tem horário amanhã?"},
			{Role: RoleAssistant, Content: "Olá!"},
			{Role: RoleAssistant, Content: "Temos sim."},
			{Role: RoleUser, Content: "às 10h"},
		})

		// o último turno do usuário sai (a mensagem nova o substitui)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %+v", len(got), got)
		}
		if got[0].Role != "user" || got[0].Parts[0].Text != "oi\ntem horário amanhã?" {
			t.Errorf("turno 0 = %+v", got[0])
		}
		if got[1].Role != "model" || got[1].Parts[0].Text != "Olá!\nTemos sim." {
			t.Errorf("turno 1 = %+v", got[1])
		}
	})

	t.Run("descarta turno inicial do assistente", func(t *testing.T) {
		got := normalizeHistory([]Message{
			{Role: RoleAssistant, Content: "mensagem de boas-vindas"},
			{Role: RoleUser, Content: "oi"},
			{Role: RoleAssistant, Content: "como posso ajudar?"},
		})
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %+v", len(got), got)
		}
		if got[0].Role != "user" {
			t.Errorf("primeiro papel = %q, want user", got[0].Role)
		}
		if got[len(got)-1].Role != "model" {
			t.Errorf("último papel = %q, want model", got[len(got)-1].Role)
		}
	})

	t.Run("histórico vazio", func(t *testing.T) {
		if got := normalizeHistory(nil); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}

func TestGeminiRespond(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "Claro, "}, {"text": "posso ajudar."}}}},
			},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", srv.Client())
	client.baseURL = srv.URL

	got, err := client.Respond(context.Background(), "oi", []Message{
		{Role: RoleUser, Content: "primeira"},
		{Role: RoleAssistant, Content: "resposta"},
	}, GenerationConfig{Model: "gemini-pro", Temperature: 0.5, MaxTokens: 300, SystemPrompt: "seja breve"})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got != "Claro, posso ajudar." {
		t.Errorf("resposta = %q", got)
	}

	// histórico normalizado + mensagem nova com instruções inline
	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d, want 3: %+v", len(captured.Contents), captured.Contents)
	}
	last := captured.Contents[2]
	if last.Role != "user" {
		t.Errorf("papel da mensagem nova = %q, want user", last.Role)
	}
	if captured.GenerationConfig.MaxOutputTokens != 300 {
		t.Errorf("maxOutputTokens = %d, want 300", captured.GenerationConfig.MaxOutputTokens)
	}
}

func TestGeminiRespondAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 429, "message": "quota exceeded"},
		})
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", srv.Client())
	client.baseURL = srv.URL

	if _, err := client.Respond(context.Background(), "oi", nil, GenerationConfig{}); err == nil {
		t.Fatal("esperava erro da API, veio nil")
	}
}

func TestGeminiRespondWithoutKey(t *testing.T) {
	client := NewGeminiClient("", http.DefaultClient)
	if _, err := client.Respond(context.Background(), "oi", nil, GenerationConfig{}); err == nil {
		t.Fatal("esperava erro sem API key, veio nil")
	}
}
