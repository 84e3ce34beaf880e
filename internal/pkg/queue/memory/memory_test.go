package memory

import (
	"context"
	"testing"
	"time"

	"github.com/zapify/zapify/internal/pkg/queue"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewQueue(10)
	defer q.Close()
	ctx := context.Background()

	want := queue.Event{ID: "m1", From: "5511999990000", Content: "oi", Type: "TEXT"}
	if err := q.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	size, err := q.Size(ctx)
	if err != nil || size != 1 {
		t.Fatalf("Size = %d (err %v), want 1", size, err)
	}

	got, err := q.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got == nil || got.ID != want.ID || got.Content != want.Content {
		t.Errorf("evento = %+v, want %+v", got, want)
	}
}

func TestMemoryQueueDequeueTimeout(t *testing.T) {
	q := NewQueue(10)
	defer q.Close()

	got, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got != nil {
		t.Errorf("evento = %+v, want nil no timeout", got)
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewQueue(1)
	defer q.Close()
	ctx := context.Background()

	if err := q.Enqueue(ctx, queue.Event{ID: "m1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, queue.Event{ID: "m2"}); err == nil {
		t.Error("fila cheia deveria recusar o enqueue")
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewQueue(10)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close repetido é seguro
	if err := q.Close(); err != nil {
		t.Fatalf("segundo Close: %v", err)
	}
	if err := q.Enqueue(context.Background(), queue.Event{ID: "m1"}); err == nil {
		t.Error("enqueue após Close deveria falhar")
	}
}
