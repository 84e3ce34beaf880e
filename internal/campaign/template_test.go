package campaign

import "testing"

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		contact string
		want    string
	}{
		{"substitui o placeholder", "Olá {{nome}}, tudo bem?", "Maria", "Olá Maria, tudo bem?"},
		{"placeholder em caixa alta", "Oi {{NOME}}!", "João", "Oi João!"},
		{"placeholder com espaços", "Oi {{ nome }}!", "João", "Oi João!"},
		{"múltiplas ocorrências", "{{nome}}, confirma? {{nome}}?", "Ana", "Ana, confirma? Ana?"},
		{"contato sem nome mantém o literal", "Olá {{nome}}, tudo bem?", "", "Olá {{nome}}, tudo bem?"},
		{"mensagem sem placeholder", "Promoção válida até sexta.", "Maria", "Promoção válida até sexta."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderMessage(tt.message, tt.contact); got != tt.want {
				t.Errorf("RenderMessage(%q, %q) = %q, want %q", tt.message, tt.contact, got, tt.want)
			}
		})
	}
}
