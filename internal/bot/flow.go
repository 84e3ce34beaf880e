package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/storage/model"
)

// runFlow executa os passos de um fluxo em sequência. Passos que não são
// mensagem de texto são pulados; a primeira falha de envio interrompe o
// fluxo (melhor parar do que entregar a conversa pela metade e fora de
// ordem).
func (p *Pipeline) runFlow(ctx context.Context, conversationID, phone string, flow model.Flow) {
	for _, step := range flow.Steps {
		if step.Type != "message" || step.Content == "" {
			continue
		}
		if step.DelayMs > 0 {
			p.sleep(time.Duration(step.DelayMs) * time.Millisecond)
		}
		if err := p.sendBotMessage(ctx, conversationID, phone, step.Content); err != nil {
			p.log.Warn("fluxo interrompido por falha de envio",
				zap.String("flow_id", flow.ID),
				zap.String("step_id", step.ID),
			)
			return
		}
	}
	p.log.Debug("fluxo executado", zap.String("flow_id", flow.ID), zap.String("phone", phone))
}
