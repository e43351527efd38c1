// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the default User-Agent header. Sites may override it per request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SiteConfig overrides the built-in settings of one conference site.
// Zero values keep the site's defaults.
type SiteConfig struct {
	// Name is the site identifier (aaai, usenix, ndss, ccs).
	Name Source `json:"name" yaml:"name" mapstructure:"name"`

	// Year is stamped on every record from this site.
	Year string `json:"year" yaml:"year" mapstructure:"year"`

	// StartURLs replaces the site's default start pages.
	StartURLs []string `json:"start_urls" yaml:"start_urls" mapstructure:"start_urls"`

	// AllowedDomains restricts which hosts the crawler may visit.
	AllowedDomains []string `json:"allowed_domains" yaml:"allowed_domains" mapstructure:"allowed_domains"`

	// Headers are merged over the site's default request headers.
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
}

// CrawlConfig holds settings for the crawl stage.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// OutDir receives one <site>_papers.json file per crawled site.
	OutDir string `json:"out_dir" yaml:"out_dir" mapstructure:"out_dir"`

	// Parallelism is the number of concurrent requests. Values <= 1 crawl
	// synchronously, one request at a time.
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`

	// Delay is the pause between requests to the same domain.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Sites holds per-site overrides keyed by site name.
	Sites map[string]SiteConfig `json:"sites" yaml:"sites" mapstructure:"sites"`
}

// Provider names the Generative AI API used for annotation.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
)

// AIConfig holds settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: openai (any compatible endpoint,
	// DashScope by default), claude, or gemini.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "qwen3-235b-a22b").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Stream requests a streamed completion. Some DashScope models refuse
	// non-streaming calls.
	Stream bool `json:"stream" yaml:"stream" mapstructure:"stream"`

	// MaxRetries is the number of extra attempts for a failed call (default 0).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single API call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AnnotationConfig holds settings for the annotation stage.
type AnnotationConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// InputFile is the JSON array of papers to annotate.
	InputFile string `json:"input" yaml:"input" mapstructure:"input"`

	// LabelsFile is the plain-text theme label vocabulary.
	LabelsFile string `json:"labels" yaml:"labels" mapstructure:"labels"`

	// OutFull receives the full annotated records.
	OutFull string `json:"out_full" yaml:"out_full" mapstructure:"out_full"`

	// OutKeywords receives the title/keywords/theme_label projection.
	OutKeywords string `json:"out_keywords" yaml:"out_keywords" mapstructure:"out_keywords"`
}

// CatalogConfig holds settings for the local paper catalog.
type CatalogConfig struct {
	// Dir contains papers.db and the export files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all stage configurations.
type Config struct {
	Crawl    CrawlConfig      `json:"crawl" yaml:"crawl" mapstructure:"crawl"`
	Annotate AnnotationConfig `json:"annotate" yaml:"annotate" mapstructure:"annotate"`
	Catalog  CatalogConfig    `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Log      LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
