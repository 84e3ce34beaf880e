package memory

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllowWithinLimit(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "k1", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("requisição %d bloqueada dentro do limite", i+1)
		}
		if want := 3 - (i + 1); res.Remaining != want {
			t.Errorf("remaining = %d, want %d", res.Remaining, want)
		}
	}

	res, err := l.Allow(ctx, "k1", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Error("quarta requisição deveria ser bloqueada")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("retryAfter = %v, want > 0", res.RetryAfter)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "a", 1, time.Minute); !res.Allowed {
		t.Fatal("primeira requisição da chave a bloqueada")
	}
	if res, _ := l.Allow(ctx, "a", 1, time.Minute); res.Allowed {
		t.Error("chave a deveria estar no limite")
	}
	if res, _ := l.Allow(ctx, "b", 1, time.Minute); !res.Allowed {
		t.Error("chave b não deveria ser afetada pela chave a")
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewLimiter()
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "k1", 1, 20*time.Millisecond); !res.Allowed {
		t.Fatal("primeira requisição bloqueada")
	}
	if res, _ := l.Allow(ctx, "k1", 1, 20*time.Millisecond); res.Allowed {
		t.Fatal("segunda requisição deveria ser bloqueada")
	}

	time.Sleep(30 * time.Millisecond)

	if res, _ := l.Allow(ctx, "k1", 1, 20*time.Millisecond); !res.Allowed {
		t.Error("janela expirada deveria liberar de novo")
	}
}
