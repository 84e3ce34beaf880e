package bot

import (
	"fmt"
	"time"
)

// IsOpen decide se o atendimento automático está dentro do horário
// configurado. Sem horário de início ou fim configurado não há restrição e o
// resultado é sempre aberto.
//
// A comparação usa apenas HH:MM no fuso local de `now`, com as bordas
// inclusivas. Janelas que cruzam a meia-noite (início > fim) não são
// suportadas: nesse caso nenhum minuto satisfaz o intervalo e o resultado é
// sempre fechado.
func IsOpen(startTime, endTime string, activeDays []int, now time.Time) bool {
	if startTime == "" || endTime == "" {
		return true
	}

	weekday := int(now.Weekday())
	active := false
	for _, d := range activeDays {
		if d == weekday {
			active = true
			break
		}
	}
	if !active {
		return false
	}

	current := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	return current >= startTime && current <= endTime
}
