package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"runtime"
	"time"

	"vedabeam-landing/internal/config"
	"vedabeam-landing/internal/waitlist"
	"vedabeam-landing/middleware/ratelimit"
	"vedabeam-landing/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

const (
	ServiceName = "vedabeam-pitch-onepager"
	APIName     = "VedaBeam Pitch One-Pager API"
	Version     = "1.0.0"

	maxBodyBytes = 10 << 10
	statsTimeout = 500 * time.Millisecond
)

// Handler reúne os endpoints da API.
type Handler struct {
	cfg       config.Config
	logger    *zap.Logger
	signups   *waitlist.Service
	stats     domain.StatsStore
	slots     domain.SlotPool
	now       func() time.Time
	startedAt time.Time
	clientIP  ratelimit.KeyFunc
}

type signupBody struct {
	Email *string `json:"email"`
	Name  string  `json:"name"`
}

// Waitlist trata POST /api/waitlist. O rate limit já passou quando chega aqui.
func (h *Handler) Waitlist(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSignup(w, r)
	if err != nil {
		h.rejectSignup(w, waitlist.BodyError(err.Error()))
		return
	}

	_, err = h.signups.Join(r.Context(), in, h.metadata(r))
	var verr *waitlist.ValidationError
	switch {
	case errors.As(err, &verr):
		h.rejectSignup(w, verr)
		return
	case err != nil:
		h.logger.Error("waitlist signup failed",
			zap.Error(err),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
		writeInternalError(w, h.cfg.IsProduction(), err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: msgWelcome})
}

func (h *Handler) rejectSignup(w http.ResponseWriter, verr *waitlist.ValidationError) {
	writeJSON(w, http.StatusBadRequest, apiResponse{
		Message: msgInvalidEmail,
		Errors:  verr.Fields,
	})
}

func (h *Handler) metadata(r *http.Request) waitlist.Metadata {
	ip, ok := ratelimit.ClientKey(r.Context())
	if !ok || h.cfg.RateLimit.KeyHeader != "" {
		// a chave do rate limit pode vir de um header; para o log queremos o IP
		ip = h.clientIP(r)
	}
	return waitlist.Metadata{
		ClientIdentity: ip,
		UserAgent:      r.UserAgent(),
		Referrer:       r.Referer(),
		RequestID:      RequestIDFromContext(r.Context()),
	}
}

// decodeSignup aceita JSON (padrão) ou formulário urlencoded.
// Corpo vazio equivale a {}.
func decodeSignup(w http.ResponseWriter, r *http.Request) (waitlist.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return waitlist.Input{}, errors.New("malformed form body")
		}
		in := waitlist.Input{Name: r.PostForm.Get("name")}
		if _, ok := r.PostForm["email"]; ok {
			email := r.PostForm.Get("email")
			in.Email = &email
		}
		return in, nil
	}

	var body signupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return waitlist.Input{}, errors.New("request body too large")
		}
		return waitlist.Input{}, errors.New("malformed JSON body")
	}
	return waitlist.Input{Email: body.Email, Name: body.Name}, nil
}

type memoryStats struct {
	Alloc     uint64 `json:"alloc"`
	HeapAlloc uint64 `json:"heapAlloc"`
	Sys       uint64 `json:"sys"`
	NumGC     uint32 `json:"numGC"`
}

type healthResponse struct {
	Status      string      `json:"status"`
	Service     string      `json:"service"`
	Version     string      `json:"version"`
	Timestamp   string      `json:"timestamp"`
	Uptime      float64     `json:"uptime"`
	Environment string      `json:"environment"`
	Memory      memoryStats `json:"memory"`
	Port        int         `json:"port"`
}

// Health trata GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	uptime := now.Sub(h.startedAt).Seconds()
	if uptime < 0 {
		uptime = 0
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Service:     ServiceName,
		Version:     Version,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Uptime:      uptime,
		Environment: h.cfg.Env,
		Memory: memoryStats{
			Alloc:     ms.Alloc,
			HeapAlloc: ms.HeapAlloc,
			Sys:       ms.Sys,
			NumGC:     ms.NumGC,
		},
		Port: h.cfg.Port,
	})
}

type rateLimitStatus struct {
	Enabled       bool   `json:"enabled"`
	Algorithm     string `json:"algorithm,omitempty"`
	Max           int    `json:"max,omitempty"`
	WindowSeconds int64  `json:"windowSeconds,omitempty"`
	Allowed       *int64 `json:"allowed,omitempty"`
	Denied        *int64 `json:"denied,omitempty"`
}

// concurrencyStatus só aparece com o limite de concorrência ligado.
type concurrencyStatus struct {
	Max      int `json:"max"`
	InFlight int `json:"inFlight"`
}

type statusResponse struct {
	API         string             `json:"api"`
	Version     string             `json:"version"`
	Status      string             `json:"status"`
	Endpoints   map[string]string  `json:"endpoints"`
	RateLimit   rateLimitStatus    `json:"rateLimit"`
	Concurrency *concurrencyStatus `json:"concurrency,omitempty"`
}

// Status trata GET /api/status. Sempre responde 200: falha ao ler as
// estatísticas só omite os contadores.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rl := rateLimitStatus{Enabled: h.cfg.RateLimit.Enabled}
	if rl.Enabled {
		rl.Algorithm = h.cfg.RateLimit.Algorithm
		rl.Max = h.cfg.RateLimit.Max
		rl.WindowSeconds = int64(h.cfg.RateLimit.Window.Seconds())
	}

	if reader, ok := h.stats.(domain.StatsReader); ok {
		ctx, cancel := context.WithTimeout(r.Context(), statsTimeout)
		totals, err := reader.Totals(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("failed to read rate limit stats", zap.Error(err))
		} else {
			rl.Allowed, rl.Denied = &totals.Allowed, &totals.Denied
		}
	}

	var cc *concurrencyStatus
	if h.slots != nil {
		// inclui a própria requisição de status
		cc = &concurrencyStatus{Max: h.cfg.Concurrency.Max, InFlight: h.slots.InUse()}
	}

	writeJSON(w, http.StatusOK, statusResponse{
		API:     APIName,
		Version: Version,
		Status:  "operational",
		Endpoints: map[string]string{
			"health":   "GET /health",
			"status":   "GET /api/status",
			"waitlist": "POST /api/waitlist",
		},
		RateLimit:   rl,
		Concurrency: cc,
	})
}

// APINotFound responde 404 para qualquer rota desconhecida sob /api.
func (h *Handler) APINotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{Error: msgAPINotFound, Path: r.URL.Path})
}
