package bot

import (
	"testing"
	"time"
)

func TestIsOpen(t *testing.T) {
	weekdays := []int{1, 2, 3, 4, 5}

	// 2026-03-04 é uma quarta-feira; 2026-03-07 um sábado.
	at := func(day string, hour, min int) time.Time {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatalf("data inválida no teste: %v", err)
		}
		return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.Local)
	}

	tests := []struct {
		name       string
		start, end string
		days       []int
		now        time.Time
		want       bool
	}{
		{"sem horário configurado sempre aberto", "", "", nil, at("2026-03-07", 3, 0), true},
		{"só início configurado também é aberto", "09:00", "", weekdays, at("2026-03-07", 3, 0), true},
		{"dentro do horário em dia útil", "09:00", "18:00", weekdays, at("2026-03-04", 14, 30), true},
		{"borda inicial inclusiva", "09:00", "18:00", weekdays, at("2026-03-04", 9, 0), true},
		{"borda final inclusiva", "09:00", "18:00", weekdays, at("2026-03-04", 18, 0), true},
		{"um minuto antes de abrir", "09:00", "18:00", weekdays, at("2026-03-04", 8, 59), false},
		{"um minuto depois de fechar", "09:00", "18:00", weekdays, at("2026-03-04", 18, 1), false},
		{"dia fora da escala", "09:00", "18:00", weekdays, at("2026-03-07", 14, 0), false},
		{"lista de dias vazia fecha tudo", "09:00", "18:00", nil, at("2026-03-04", 14, 0), false},
		{"janela invertida nunca abre", "18:00", "09:00", weekdays, at("2026-03-04", 20, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(tt.start, tt.end, tt.days, tt.now); got != tt.want {
				t.Errorf("IsOpen(%q, %q, %v, %s) = %v, want %v", tt.start, tt.end, tt.days, tt.now.Format(time.RFC3339), got, tt.want)
			}
		})
	}
}
