package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zapify/zapify/internal/pkg/queue"
	"github.com/zapify/zapify/internal/storage/model"
)

// Worker consome a fila de mensagens recebidas e entrega uma por vez ao
// pipeline. O processamento é sequencial de propósito: os delays
// "humanos" das respostas precisam valer entre mensagens, não só dentro de
// uma.
type Worker struct {
	queue    queue.Queue
	pipeline *Pipeline
	log      *zap.Logger
}

func NewWorker(q queue.Queue, pipeline *Pipeline, log *zap.Logger) *Worker {
	return &Worker{
		queue:    q,
		pipeline: pipeline,
		log:      log,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("bot worker: iniciado")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("bot worker: encerrando")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *Worker) processNext(ctx context.Context) {
	event, err := w.queue.Dequeue(ctx, 5*time.Second)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Error("bot worker: erro ao desenfileirar", zap.Error(err))
		return
	}

	if event == nil {
		return // Timeout, sem eventos
	}

	w.log.Debug("bot worker: processando mensagem",
		zap.String("id", event.ID),
		zap.String("from", event.From),
	)

	in := InboundMessage{
		From:     event.From,
		Content:  event.Content,
		Type:     model.MessageType(event.Type),
		IsFromMe: event.IsFromMe,
		IsGroup:  event.IsGroup,
		PushName: event.PushName,
	}
	if in.Type == "" {
		in.Type = model.MessageTypeText
	}

	if err := w.pipeline.Handle(ctx, in); err != nil {
		w.log.Error("bot worker: falha no processamento",
			zap.String("id", event.ID),
			zap.String("from", event.From),
			zap.Error(err),
		)
	}
}
