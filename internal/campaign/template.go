package campaign

import "regexp"

var nameVar = regexp.MustCompile(`(?i)\{\{\s*nome\s*\}\}`)

// RenderMessage substitui {{nome}} (qualquer caixa) pelo nome do contato.
// Contato sem nome mantém o literal no texto: trocar por vazio produziria
// saudações quebradas como "Olá , tudo bem?".
func RenderMessage(message, name string) string {
	if name == "" {
		return message
	}
	return nameVar.ReplaceAllString(message, name)
}
