package bot

import (
	"regexp"
	"strings"

	"github.com/zapify/zapify/internal/storage/model"
)

// Matches verifica se o texto recebido casa com o gatilho armazenado.
//
// EXACT e CONTAINS comparam texto e gatilho normalizados (minúsculas, sem
// espaços nas bordas). REGEX compila o gatilho como expressão
// case-insensitive e testa contra o texto original; um padrão inválido
// gravado no banco conta como não-casado em vez de derrubar o pipeline.
func Matches(text, trigger string, triggerType model.TriggerType) bool {
	normalizedText := strings.ToLower(strings.TrimSpace(text))
	normalizedTrigger := strings.ToLower(strings.TrimSpace(trigger))

	switch triggerType {
	case model.TriggerExact:
		return normalizedText == normalizedTrigger
	case model.TriggerContains:
		return strings.Contains(normalizedText, normalizedTrigger)
	case model.TriggerRegex:
		re, err := regexp.Compile("(?i)" + trigger)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	default:
		return false
	}
}
