package application

import (
	"time"

	"vedabeam-landing/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

// Decide avalia uma tentativa da chave no instante `now`.
// Quando o limiter não informa RetryAfter, usa o padrão do Service.
func (s Service) Decide(key domain.Key, now time.Time) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	dec := lim.Allow(now)
	if dec.Allowed {
		dec.RetryAfter = 0
		return dec
	}
	if dec.RetryAfter <= 0 {
		dec.RetryAfter = s.RetryAfter
	}
	return dec
}
