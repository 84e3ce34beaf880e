package handler

import (
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"sem variáveis", "Promoção válida até sexta.", []string{}},
		{"uma variável", "Olá {{nome}}!", []string{"nome"}},
		{"múltiplas na ordem de aparição", "Oi {{nome}}, seu pedido {{pedido}} sai em {{prazo}} dias.", []string{"nome", "pedido", "prazo"}},
		{"repetida conta uma vez", "{{nome}}, confirma? {{nome}}?", []string{"nome"}},
		{"chaves sem fechar são ignoradas", "Oi {{nome, tudo bem?", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractVariables(tt.content); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractVariables(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
