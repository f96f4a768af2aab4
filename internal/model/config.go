package model

import "time"

// Config is the full engine configuration, assembled from defaults, the
// config file, TTENGINE_* environment variables, and CLI flags.
type Config struct {
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// EngineConfig holds the mapping pipeline knobs.
type EngineConfig struct {
	QueriesPerClaim       int  `yaml:"queries_per_claim" mapstructure:"queries_per_claim"`
	SearchResultsPerClaim int  `yaml:"search_results_per_claim" mapstructure:"search_results_per_claim"`
	PicksPerClaim         int  `yaml:"picks_per_claim" mapstructure:"picks_per_claim"`
	MaxConcurrency        int  `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RefineQueriesWithLLM  bool `yaml:"refine_queries_with_llm" mapstructure:"refine_queries_with_llm"`
	PickWithLLM           bool `yaml:"pick_with_llm" mapstructure:"pick_with_llm"`
	StrictDomainFilter    bool `yaml:"strict_domain_filter" mapstructure:"strict_domain_filter"`

	// PreferDomains is the default allowlist of fact-check-grade sources.
	// Advisory unless StrictDomainFilter is set.
	PreferDomains []string `yaml:"prefer_domains" mapstructure:"prefer_domains"`
	AvoidDomains  []string `yaml:"avoid_domains" mapstructure:"avoid_domains"`

	// CallTimeout bounds each individual LLM/search/fetch call so a hung
	// backend cannot starve a worker slot.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to config files
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// SearchConfig holds search backend configuration.
type SearchConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // tavily, "" = disabled
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig holds full-text fetcher configuration.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool         `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig holds the idempotency cache settings.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultPreferDomains are the fact-check-grade sources queried first:
// wire services, encyclopedias, and dedicated fact-checking outlets.
func DefaultPreferDomains() []string {
	return []string{
		"reuters.com",
		"apnews.com",
		"bbc.com",
		"wikipedia.org",
		"britannica.com",
		"snopes.com",
		"factcheck.org",
		"politifact.com",
		"fullfact.org",
	}
}

// DefaultConfig returns sensible defaults for all sections.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			QueriesPerClaim:       4,
			SearchResultsPerClaim: 8,
			PicksPerClaim:         3,
			MaxConcurrency:        4,
			RefineQueriesWithLLM:  true,
			PickWithLLM:           true,
			StrictDomainFilter:    false,
			PreferDomains:         DefaultPreferDomains(),
			CallTimeout:           30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 2000,
		},
		Search: SearchConfig{
			Provider:          "tavily",
			Timeout:           15,
			RequestsPerSecond: 4,
			Burst:             8,
		},
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "TruthTrollers/0.1 (+https://github.com/reedko/truthtrollers-engine)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr: ":8787",
		},
	}
}
