package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config is the full run configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
	Similarity  SimilarityConfig  `yaml:"similarity" json:"similarity"`
	Output      OutputConfig      `yaml:"output" json:"output"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
}

// HTTPConfig controls outbound requests.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy,omitempty"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy,omitempty"`
	InsecureTLS  bool          `yaml:"insecure_tls" json:"insecure_tls"`
}

// CacheConfig controls the raw-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Backend   string        `yaml:"backend" json:"backend"` // disk or sqlite
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig bounds the worker pool. PerSource additionally caps
// concurrent requests against a single database, on top of each adapter's
// declared maximum.
type ConcurrencyConfig struct {
	Workers   int `yaml:"workers" json:"workers"`
	PerSource int `yaml:"per_source" json:"per_source"`
}

// RateLimitConfig is the default per-source request rate.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// SimilarityConfig controls expansion of input compounds to structurally
// similar neighbors.
type SimilarityConfig struct {
	Expand    bool    `yaml:"expand" json:"expand"`
	Threshold float64 `yaml:"threshold" json:"threshold"` // in [0,1]
}

// OutputConfig controls table and report rendering.
type OutputConfig struct {
	Dir     string `yaml:"dir" json:"dir"`
	Format  string `yaml:"format" json:"format"` // csv or tsv
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// LLMConfig configures the optional run-report narrative. Disabled unless a
// provider is set; it never changes table contents.
type LLMConfig struct {
	Provider string        `yaml:"provider" json:"provider,omitempty"`
	Model    string        `yaml:"model" json:"model,omitempty"`
	APIKey   string        `yaml:"-" json:"-"`
	BaseURL  string        `yaml:"base_url" json:"base_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Athanor/0.3 (+https://github.com/okarpov/athanor)",
			MaxBodyBytes: 8_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "disk",
			Dir:       defaultCacheDir(),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:   runtime.NumCPU(),
			PerSource: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Similarity: SimilarityConfig{
			Expand:    false,
			Threshold: 0.9,
		},
		Output: OutputConfig{
			Dir:    "./athanor-out",
			Format: "csv",
		},
		LLM: LLMConfig{
			Timeout: 30 * time.Second,
		},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".athanor-cache"
	}
	return filepath.Join(home, ".athanor", "cache")
}
