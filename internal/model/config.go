package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Consistency modes
const (
	ConsistencyAuto      = "auto"      // lookup when an API key is configured, simulated otherwise
	ConsistencySimulated = "simulated" // seeded placeholder agreement per evidence item
	ConsistencyNeutral   = "neutral"   // always 0.5
	ConsistencyLookup    = "lookup"    // fact-check lookup, API key required
)

// Config holds every TruthCore setting. Zero values are never used directly;
// start from DefaultConfig and overlay file/env/flag values.
type Config struct {
	Scoring       ScoringConfig       `yaml:"scoring" mapstructure:"scoring"`
	FactCheck     FactCheckConfig     `yaml:"fact_check" mapstructure:"fact_check"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	RateLimiting  RateLimitConfig     `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Transcription TranscriptionConfig `yaml:"transcription" mapstructure:"transcription"`
	Sources       SourcesConfig       `yaml:"sources" mapstructure:"sources"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// ScoringConfig controls the combiner and the consistency strategy
type ScoringConfig struct {
	Weights         Weights `yaml:"weights" mapstructure:"weights"`
	ConsistencyMode string  `yaml:"consistency_mode" mapstructure:"consistency_mode"`
	Seed            uint64  `yaml:"seed" mapstructure:"seed"` // 0 seeds from the clock
}

// FactCheckConfig configures the claim-search lookup service
type FactCheckConfig struct {
	APIKey             string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	LanguageCode       string        `yaml:"language_code" mapstructure:"language_code"`
	PageSize           int           `yaml:"page_size" mapstructure:"page_size"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"` // Bounds the whole lookup, retries included
	MaxRetries         int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff     time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff         time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BreakerMaxFailures uint32        `yaml:"breaker_max_failures" mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout" mapstructure:"breaker_timeout"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// HTTPConfig holds outbound HTTP settings shared by all clients
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls memoisation of lookup results (memory only)
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// RateLimitConfig limits outbound lookup requests per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// TranscriptionConfig configures speech-to-text for media claims
type TranscriptionConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// SourcesConfig drives URL-to-label resolution
type SourcesConfig struct {
	Reputable  []string          `yaml:"reputable" mapstructure:"reputable"`
	Unreliable []string          `yaml:"unreliable" mapstructure:"unreliable"`
	DomainMap  map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> label
}

// ServerConfig configures the REST boundary
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	Passphrase   string        `yaml:"passphrase,omitempty" mapstructure:"passphrase"` // Empty disables the gate
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// LoggingConfig selects log level and format
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights:         DefaultWeights(),
			ConsistencyMode: ConsistencyAuto,
		},
		FactCheck: FactCheckConfig{
			BaseURL:            "https://factchecktools.googleapis.com",
			Timeout:            10 * time.Second,
			MaxRetries:         2,
			InitialBackoff:     250 * time.Millisecond,
			MaxBackoff:         2 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			MaxBodyBytes:       1 << 20,
		},
		HTTP: HTTPConfig{
			UserAgent: "TruthCore/0.1 (+https://github.com/ppiankov/truthcore)",
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             1 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Transcription: TranscriptionConfig{
			Provider: "",
			Model:    "whisper-1",
			Timeout:  120,
		},
		Sources: SourcesConfig{
			Reputable: []string{
				"apnews.com", "reuters.com", "bbc.co.uk", "bbc.com", "nytimes.com",
				"nature.com", "who.int", "nasa.gov",
			},
			Unreliable: []string{},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Validate fails fast on settings that would make scoring undefined
func (c *Config) Validate() error {
	w := c.Scoring.Weights
	sum := 0.0
	for name, v := range map[string]float64{
		"lineage":      w.Lineage,
		"consistency":  w.Consistency,
		"reliability":  w.Reliability,
		"manipulation": w.Manipulation,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: scoring.weights.%s must be a finite non-negative number, got %v", ErrInvalidConfig, name, v)
		}
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("%w: scoring.weights sum to zero", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Scoring.ConsistencyMode) {
	case ConsistencyAuto, ConsistencySimulated, ConsistencyNeutral:
	case ConsistencyLookup:
		if c.FactCheck.APIKey == "" {
			return fmt.Errorf("%w: consistency_mode %q requires fact_check.api_key", ErrInvalidConfig, ConsistencyLookup)
		}
	default:
		return fmt.Errorf("%w: unknown scoring.consistency_mode %q", ErrInvalidConfig, c.Scoring.ConsistencyMode)
	}

	if c.FactCheck.Timeout <= 0 {
		return fmt.Errorf("%w: fact_check.timeout must be positive", ErrInvalidConfig)
	}

	return nil
}
