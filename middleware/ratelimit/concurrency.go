package ratelimit

import (
	"net/http"
	"time"

	"vedabeam-landing/middleware/ratelimit/application"
	"vedabeam-landing/middleware/ratelimit/domain"
	"vedabeam-landing/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// OnReject escreve a resposta quando não há vaga; padrão é http.Error.
	OnReject http.HandlerFunc
	// Pool permite compartilhar o semáforo (ex: para expor a ocupação).
	// nil cria um ChanPool de capacidade Max.
	Pool domain.SlotPool
}

// ConcurrencyMiddleware limita quantas requisições são atendidas ao mesmo tempo.
// Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.OnReject == nil {
		status := opts.RejectStatus
		opts.OnReject = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(status), status)
		}
	}

	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				opts.OnReject(w, r)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
