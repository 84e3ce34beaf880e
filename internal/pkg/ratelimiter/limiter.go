// Package ratelimiter define o contrato de janela-fixa usado pelo middleware
// da API. Implementações: memória (processo único) e Redis (compartilhada).
package ratelimiter

import (
	"context"
	"time"
)

// Result descreve a decisão para uma chave em uma janela. Reset e RetryAfter
// alimentam os headers X-RateLimit-* e Retry-After da API.
type Result struct {
	Allowed    bool
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

type Limiter interface {
	// Allow contabiliza uma requisição da chave e decide se ela passa.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
