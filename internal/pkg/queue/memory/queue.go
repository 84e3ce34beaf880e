// Fila em memória para a operação padrão sem Redis. As mensagens pendentes
// vivem só no processo: um restart descarta o que ainda não foi processado.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zapify/zapify/internal/pkg/queue"
)

var (
	errClosed = errors.New("fila fechada")
	errFull   = errors.New("fila cheia")
)

type MemoryQueue struct {
	events chan queue.Event
	mu     sync.RWMutex
	closed bool
}

func NewQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &MemoryQueue{
		events: make(chan queue.Event, bufferSize),
	}
}

// Enqueue nunca bloqueia: com o buffer cheio a mensagem é recusada e o
// chamador decide o que logar.
func (q *MemoryQueue) Enqueue(ctx context.Context, event queue.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errClosed
	}

	select {
	case q.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errFull
	}
}

// Dequeue devolve (nil, nil) no timeout, o mesmo contrato da variante Redis.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*queue.Event, error) {
	select {
	case event, ok := <-q.events:
		if !ok {
			return nil, errClosed
		}
		return &event, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Size(ctx context.Context) (int64, error) {
	return int64(len(q.events)), nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.events)
		q.closed = true
	}
	return nil
}
