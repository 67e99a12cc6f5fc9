package model

import "time"

// Config is the complete citecheck configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Attribution  AttributionConfig  `yaml:"attribution" mapstructure:"attribution"`
	Clustering   ClusteringConfig   `yaml:"clustering" mapstructure:"clustering"`
	Guard        GuardConfig        `yaml:"guard" mapstructure:"guard"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the verification source HTTP client.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the verification record cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Disk layer location; empty disables the disk layer
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AttributionConfig controls context-window attribution.
type AttributionConfig struct {
	CacheSize         int `yaml:"cache_size" mapstructure:"cache_size"` // LRU hard cap
	MinNameLength     int `yaml:"min_name_length" mapstructure:"min_name_length"`
	MaxNameLength     int `yaml:"max_name_length" mapstructure:"max_name_length"`
	ForwardYearWindow int `yaml:"forward_year_window" mapstructure:"forward_year_window"` // Chars scanned past the span for a year
}

// ClusteringConfig controls parallel-citation cluster building.
type ClusteringConfig struct {
	ProximityChars int `yaml:"proximity_chars" mapstructure:"proximity_chars"` // Secondary-rule proximity corroboration
}

// GuardConfig controls the data separation guard.
type GuardConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// VerificationConfig controls the external verification orchestrator.
type VerificationConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	APIToken          string        `yaml:"api_token" mapstructure:"api_token"`
	CoverageThreshold float64       `yaml:"coverage_threshold" mapstructure:"coverage_threshold"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RequestsPerMinute int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	BatchSize         int           `yaml:"batch_size" mapstructure:"batch_size"`
	SearchRetries     int           `yaml:"search_retries" mapstructure:"search_retries"`
	CallTimeout       time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"` // Per external call
	TierTimeout       time.Duration `yaml:"tier_timeout" mapstructure:"tier_timeout"` // Per tier
	JobTimeout        time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`   // Overall job deadline
	Workers           int           `yaml:"workers" mapstructure:"workers"`           // Tier 2/3 concurrency
	JobStoreSize      int           `yaml:"job_store_size" mapstructure:"job_store_size"`
}

// ConcurrencyConfig controls document-level parallelism.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "citecheck/0.1 (+https://github.com/mvickers/citecheck)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Attribution: AttributionConfig{
			CacheSize:         4096,
			MinNameLength:     10,
			MaxNameLength:     200,
			ForwardYearWindow: 80,
		},
		Clustering: ClusteringConfig{
			ProximityChars: 400,
		},
		Guard: GuardConfig{
			SimilarityThreshold: 0.85,
		},
		Verification: VerificationConfig{
			Enabled:           false,
			BaseURL:           "https://www.courtlistener.com/api/rest/v4",
			CoverageThreshold: 0.70,
			CacheTTL:          1 * time.Hour,
			RequestsPerMinute: 60,
			BatchSize:         20,
			SearchRetries:     2,
			CallTimeout:       15 * time.Second,
			TierTimeout:       2 * time.Minute,
			JobTimeout:        10 * time.Minute,
			Workers:           4,
			JobStoreSize:      128,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
