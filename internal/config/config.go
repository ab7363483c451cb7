// Package config reads the process settings from the environment and the
// feed and label catalog from an optional YAML file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jdholdren/newscat/internal/newscat"
)

type Config struct {
	StorePath      string `env:"NEWSCAT_STORE, default=classified_articles.json"`
	CatalogPath    string `env:"NEWSCAT_CATALOG"`
	RetentionDays  int    `env:"NEWSCAT_RETENTION_DAYS, default=7"`
	FreshOnCorrupt bool   `env:"NEWSCAT_FRESH_ON_CORRUPT, default=false"`

	FeedTimeout      time.Duration `env:"NEWSCAT_FEED_TIMEOUT, default=0s"`
	FeedRetries      uint64        `env:"NEWSCAT_FEED_RETRIES, default=0"`
	FetchConcurrency int           `env:"NEWSCAT_FETCH_CONCURRENCY, default=0"`
	UserAgent        string        `env:"NEWSCAT_USER_AGENT, default=newscat/1.0"`

	// Which classifier to use: keyword, claude or gemini
	Classifier          string `env:"NEWSCAT_CLASSIFIER, default=keyword"`
	ClassifierModel     string `env:"NEWSCAT_CLASSIFIER_MODEL"`
	ClassifierRetries   uint64 `env:"NEWSCAT_CLASSIFIER_RETRIES, default=2"`
	ClassifierCacheSize int    `env:"NEWSCAT_CLASSIFIER_CACHE_SIZE, default=1024"`
	SeenPolicy          string `env:"NEWSCAT_SEEN_POLICY, default=after-success"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`

	Port            int           `env:"PORT, default=4444"`
	CorsOrigin      string        `env:"CORS_ORIGIN, default=*"`
	RefreshInterval time.Duration `env:"NEWSCAT_REFRESH_INTERVAL, default=15m"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	Debug        bool   `env:"DEBUG, default=false"`
}

// Load processes the environment seen through lookuper, the OS environment
// when nil, and validates the result.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.StorePath == "" {
		errs = append(errs, errors.New("NEWSCAT_STORE must not be empty"))
	}
	if c.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("NEWSCAT_RETENTION_DAYS must not be negative, got %d", c.RetentionDays))
	}
	if c.FetchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("NEWSCAT_FETCH_CONCURRENCY must not be negative, got %d", c.FetchConcurrency))
	}
	switch c.Classifier {
	case "keyword":
	case "claude":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the claude classifier"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini classifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown classifier %q", c.Classifier))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("NEWSCAT_REFRESH_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

type (
	// Catalog is what gets fetched and the labels it gets sorted into.
	Catalog struct {
		Sources []Source `yaml:"sources"`
		Labels  []Label  `yaml:"labels"`
	}

	// Source is a feed to fetch. Name stands in for the feed's title when it has none.
	Source struct {
		Name    string `yaml:"name"`
		URL     string `yaml:"url"`
		Enabled *bool  `yaml:"enabled,omitempty"`
	}

	// Label is a candidate category. Keywords only matter to the keyword classifier.
	Label struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords,omitempty"`
	}
)

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() Catalog {
	var c Catalog
	for _, url := range newscat.DefaultFeeds {
		c.Sources = append(c.Sources, Source{URL: url})
	}
	for _, name := range newscat.DefaultLabels {
		c.Labels = append(c.Labels, Label{Name: name})
	}

	return c
}

// LoadCatalog reads the catalog at path. An empty path gives the default
// catalog. Sections missing from the file fall back to their defaults.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	byts, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Catalog{}, fmt.Errorf("catalog file %s does not exist", path)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("error reading catalog: %s", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(byts, &c); err != nil {
		return Catalog{}, fmt.Errorf("error parsing catalog %s: %s", path, err)
	}

	defaults := DefaultCatalog()
	if len(c.Sources) == 0 {
		c.Sources = defaults.Sources
	}
	if len(c.Labels) == 0 {
		c.Labels = defaults.Labels
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func (c Catalog) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			errs = append(errs, fmt.Errorf("source %d has no url", i))
		}
	}
	for i, l := range c.Labels {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		if name == "" {
			errs = append(errs, fmt.Errorf("label %d has no name", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("label %q is listed twice", l.Name))
		}
		seen[name] = true
	}

	return errors.Join(errs...)
}

// URLs lists the enabled feed urls in file order.
func (c Catalog) URLs() []string {
	var urls []string
	for _, s := range c.Sources {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}
		urls = append(urls, strings.TrimSpace(s.URL))
	}

	return urls
}

// Names maps each named source's url to its name.
func (c Catalog) Names() map[string]string {
	names := make(map[string]string)
	for _, s := range c.Sources {
		if name := strings.TrimSpace(s.Name); name != "" {
			names[strings.TrimSpace(s.URL)] = name
		}
	}

	return names
}

// LabelNames lists the label names in file order.
func (c Catalog) LabelNames() []string {
	names := make([]string, 0, len(c.Labels))
	for _, l := range c.Labels {
		names = append(names, strings.TrimSpace(l.Name))
	}

	return names
}

// Keywords maps each label with keywords to them. Labels that list none use
// fallback's entry, if it has one.
func (c Catalog) Keywords(fallback map[string][]string) map[string][]string {
	out := make(map[string][]string, len(c.Labels))
	for _, l := range c.Labels {
		name := strings.TrimSpace(l.Name)
		if len(l.Keywords) > 0 {
			out[name] = l.Keywords
			continue
		}
		if kw, ok := fallback[name]; ok {
			out[name] = kw
		}
	}

	return out
}
