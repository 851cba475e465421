// Package config resolve a configuração do servidor uma única vez, a partir
// de variáveis de ambiente, num Config injetado no resto da aplicação.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"
)

type Config struct {
	Host     string
	Port     int
	Env      string
	LogLevel string

	ShutdownTimeout time.Duration

	RateLimit   RateLimit
	Concurrency Concurrency
	Stats       Stats
}

type RateLimit struct {
	Enabled    bool
	Algorithm  string
	Max        int
	Window     time.Duration
	MaxKeys    int
	KeyHeader  string
	TrustXFF   bool
	AddHeaders bool
}

type Concurrency struct {
	Max     int
	Timeout time.Duration
}

// Stats configura o Redis das estatísticas de rate limit.
// Desligado, as estatísticas ficam em memória.
type Stats struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	Bucket        string
	TrackKeys     bool
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// Addr é o endereço de escuta host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("log_level", "")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("rate_enabled", true)
	v.SetDefault("rate_algorithm", AlgorithmFixedWindow)
	v.SetDefault("rate_max", 5)
	v.SetDefault("rate_window", 15*time.Minute)
	v.SetDefault("rate_max_keys", 10000)
	v.SetDefault("rate_key_header", "")
	v.SetDefault("trust_xff", false)
	v.SetDefault("add_ratelimit_headers", true)

	v.SetDefault("concurrency_max", 100)
	v.SetDefault("concurrency_timeout", time.Second)

	v.SetDefault("rate_stats_enabled", false)
	v.SetDefault("rate_stats_redis_addr", "")
	v.SetDefault("rate_stats_redis_password", "")
	v.SetDefault("rate_stats_redis_db", 0)
	v.SetDefault("rate_stats_prefix", "waitlist:ratelimit")
	v.SetDefault("rate_stats_ttl", 24*time.Hour)
	v.SetDefault("rate_stats_bucket", "minute")
	v.SetDefault("rate_stats_track_keys", false)
}

// Load lê o ambiente do processo.
func Load() (Config, error) {
	return load(viper.New())
}

// FromMap monta a configuração a partir de pares chave/valor no formato das
// variáveis de ambiente (ex: "RATE_MAX"), sem ler o ambiente do processo.
func FromMap(values map[string]string) (Config, error) {
	v := viper.New()
	for k, val := range values {
		v.Set(strings.ToLower(k), val)
	}
	if env := values["APP_ENV"]; env != "" {
		v.Set("env", env)
	} else if env := values["NODE_ENV"]; env != "" {
		v.Set("env", env)
	}
	return build(v)
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	// APP_ENV tem prioridade; NODE_ENV é aceito pelos deploys antigos.
	if err := v.BindEnv("env", "APP_ENV", "NODE_ENV"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	return build(v)
}

func build(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		Env:             strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		LogLevel:        v.GetString("log_level"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		RateLimit: RateLimit{
			Enabled:    v.GetBool("rate_enabled"),
			Algorithm:  strings.ToLower(strings.TrimSpace(v.GetString("rate_algorithm"))),
			Max:        v.GetInt("rate_max"),
			Window:     v.GetDuration("rate_window"),
			MaxKeys:    v.GetInt("rate_max_keys"),
			KeyHeader:  v.GetString("rate_key_header"),
			TrustXFF:   v.GetBool("trust_xff"),
			AddHeaders: v.GetBool("add_ratelimit_headers"),
		},
		Concurrency: Concurrency{
			Max:     v.GetInt("concurrency_max"),
			Timeout: v.GetDuration("concurrency_timeout"),
		},
		Stats: Stats{
			Enabled:       v.GetBool("rate_stats_enabled"),
			RedisAddr:     v.GetString("rate_stats_redis_addr"),
			RedisPassword: v.GetString("rate_stats_redis_password"),
			RedisDB:       v.GetInt("rate_stats_redis_db"),
			Prefix:        v.GetString("rate_stats_prefix"),
			TTL:           v.GetDuration("rate_stats_ttl"),
			Bucket:        v.GetString("rate_stats_bucket"),
			TrackKeys:     v.GetBool("rate_stats_track_keys"),
		},
	}
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("PORT must be between 1 and 65535"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Algorithm {
		case AlgorithmFixedWindow, AlgorithmTokenBucket:
		default:
			errs = append(errs, fmt.Errorf("invalid RATE_ALGORITHM %q", c.RateLimit.Algorithm))
		}
		if c.RateLimit.Max <= 0 {
			errs = append(errs, errors.New("RATE_MAX must be > 0"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_WINDOW must be > 0"))
		}
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}
	if c.Concurrency.Timeout < 0 {
		errs = append(errs, errors.New("CONCURRENCY_TIMEOUT must be >= 0"))
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		errs = append(errs, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true"))
	}
	return errors.Join(errs...)
}
