package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

// Key identifica o cliente (IP, header, etc.).
type Key string

// Limiter decide se uma tentativa é permitida no instante `now`.
//
// Toda chamada conta como uma tentativa avaliada: a implementação atualiza
// o próprio estado mesmo quando nega.
// A implementação pode ser janela fixa, token-bucket, etc.
type Limiter interface {
	Allow(now time.Time) Decision
}

// LimiterStore obtém um limiter por chave (ex: IP, API key, usuário).
// A implementação pode manter cache, TTL, limite de chaves, etc.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool

	// Limit é a cota da janela; Remaining quantas tentativas ainda cabem nela.
	// Ambos zerados quando a implementação não expõe cota.
	Limit     int
	Remaining int
	// ResetAt é quando a cota volta a ficar disponível (zero se desconhecido).
	ResetAt time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Window é o estado de uma janela fixa por chave: contador + instante de reset.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Expired informa se a janela já terminou em `now`.
func (w Window) Expired(now time.Time) bool {
	return !now.Before(w.ResetAt)
}
