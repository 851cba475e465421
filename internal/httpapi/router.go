package httpapi

import (
	"net/http"
	"time"

	"vedabeam-landing/internal/config"
	"vedabeam-landing/internal/waitlist"
	"vedabeam-landing/middleware/ratelimit"
	"vedabeam-landing/middleware/ratelimit/domain"
	"vedabeam-landing/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps são as dependências do roteador, criadas uma vez na subida do processo.
type Deps struct {
	Config  config.Config
	Logger  *zap.Logger
	Signups *waitlist.Service
	// Limiter nil desliga o rate limit de inscrições.
	Limiter domain.LimiterStore
	Stats   domain.StatsStore
	// Site atende o que não é API (landing page).
	Site http.Handler

	Now       func() time.Time
	StartedAt time.Time
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = d.Now()
	}
	if d.Site == nil {
		d.Site = http.NotFoundHandler()
	}
	production := d.Config.IsProduction()

	var slots domain.SlotPool
	if d.Config.Concurrency.Max > 0 {
		slots = infra.NewChanPool(d.Config.Concurrency.Max)
	}

	h := &Handler{
		cfg:       d.Config,
		logger:    d.Logger,
		signups:   d.Signups,
		stats:     d.Stats,
		slots:     slots,
		now:       d.Now,
		startedAt: d.StartedAt,
		clientIP:  ratelimit.DefaultKeyFunc("", d.Config.RateLimit.TrustXFF),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.GetHead)
	r.Use(AccessLog(d.Logger))
	r.Use(Recoverer(d.Logger, production))
	r.Use(ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            d.Config.Concurrency.Max,
		AcquireTimeout: d.Config.Concurrency.Timeout,
		Pool:           slots,
		OnReject: func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, apiResponse{Message: msgBusy})
		},
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.With(signupLimiter(d)).Post("/waitlist", h.Waitlist)

		r.NotFound(h.APINotFound)
		r.MethodNotAllowed(h.APINotFound)
	})

	r.NotFound(d.Site.ServeHTTP)
	r.MethodNotAllowed(d.Site.ServeHTTP)
	return r
}

func signupLimiter(d Deps) func(http.Handler) http.Handler {
	rl := d.Config.RateLimit
	if !rl.Enabled || d.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(ratelimit.Options{
		Store:               d.Limiter,
		Stats:               d.Stats,
		KeyHeader:           rl.KeyHeader,
		TrustXForwardedFor:  rl.TrustXFF,
		AddRateLimitHeaders: rl.AddHeaders,
		Now:                 d.Now,
		OnReject: func(w http.ResponseWriter, r *http.Request, dec domain.Decision) {
			d.Logger.Warn("waitlist rate limit exceeded",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.Time("reset_at", dec.ResetAt),
			)
			writeJSON(w, http.StatusTooManyRequests, apiResponse{Message: msgTooManySignups})
		},
	})
}
