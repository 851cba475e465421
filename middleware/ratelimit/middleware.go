package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"vedabeam-landing/middleware/ratelimit/application"
	"vedabeam-landing/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

// RejectFunc escreve a resposta quando a tentativa é bloqueada.
// Retry-After e X-RateLimit-* já estão definidos quando ela é chamada.
type RejectFunc func(w http.ResponseWriter, r *http.Request, dec domain.Decision)

type Options struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	OnReject            RejectFunc
	// Now é o relógio das decisões; nil usa time.Now.
	Now func() time.Time
}

type ctxKey struct{}

// ClientKey devolve a chave do cliente calculada pelo middleware para esta requisição.
func ClientKey(ctx context.Context) (string, bool) {
	k, ok := ctx.Value(ctxKey{}).(string)
	return k, ok
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For é o cliente original
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func defaultReject(status int) RejectFunc {
	return func(w http.ResponseWriter, _ *http.Request, _ domain.Decision) {
		http.Error(w, http.StatusText(status), status)
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.OnReject == nil {
		opts.OnReject = defaultReject(opts.RejectStatus)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			now := opts.Now()

			dec := svc.Decide(domain.Key(key), now)
			if opts.Stats != nil {
				// best-effort: erro de estatística não derruba a requisição
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    r.URL.Path,
					At:      now,
				})
			}

			if opts.AddRateLimitHeaders {
				setQuotaHeaders(w.Header(), key, dec)
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
				opts.OnReject(w, r, dec)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, key)))
		})
	}
}

func setQuotaHeaders(h http.Header, key string, dec domain.Decision) {
	h.Set("X-RateLimit-Key", key)
	if dec.Limit <= 0 {
		return
	}
	h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
	if !dec.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", formatInt(int(dec.ResetAt.Unix())))
	}
}
