package bot

import (
	"testing"

	"github.com/zapify/zapify/internal/storage/model"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		trigger     string
		triggerType model.TriggerType
		want        bool
	}{
		{"exact igual", "oi", "oi", model.TriggerExact, true},
		{"exact ignora caixa e espaços", "  OI  ", "oi", model.TriggerExact, true},
		{"exact não casa substring", "oi tudo bem", "oi", model.TriggerExact, false},
		{"contains no meio do texto", "quero ver o catálogo de vocês", "catálogo", model.TriggerContains, true},
		{"contains ignora caixa", "CATÁLOGO por favor", "catálogo", model.TriggerContains, true},
		{"contains ausente", "bom dia", "catálogo", model.TriggerContains, false},
		{"regex simples", "pedido 1234", `pedido \d+`, model.TriggerRegex, true},
		{"regex case-insensitive", "PEDIDO 99", `pedido \d+`, model.TriggerRegex, true},
		{"regex sem casar", "cadê meu pedido", `^pedido \d+$`, model.TriggerRegex, false},
		{"regex inválida não casa", "qualquer coisa", `pedido (\d+`, model.TriggerRegex, false},
		{"tipo desconhecido", "oi", "oi", model.TriggerType("FUZZY"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.text, tt.trigger, tt.triggerType); got != tt.want {
				t.Errorf("Matches(%q, %q, %s) = %v, want %v", tt.text, tt.trigger, tt.triggerType, got, tt.want)
			}
		})
	}
}
