package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/confkit"
)

// Config describes the upstream APIs the gateway layer talks to.
type Config struct {
	Default   string                     `yaml:"default"`
	Upstreams map[string]*UpstreamConfig `yaml:"upstreams"`
}

// UpstreamConfig represents configuration for a single upstream API.
type UpstreamConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKeyHeader string `yaml:"api_key_header"`
	APIKey       string `yaml:"api_key"`

	TimeoutRaw     string        `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBaseRaw string        `yaml:"backoff_base"`
	BackoffBase    time.Duration `yaml:"-"`
	BackoffMaxRaw  string        `yaml:"backoff_max"`
	BackoffMax     time.Duration `yaml:"-"`
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upstream config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads upstream configuration from the default project location and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/upstream.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upstream config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal upstream config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Upstreams == nil {
		c.Upstreams = make(map[string]*UpstreamConfig)
	}
	for name, upstream := range c.Upstreams {
		if upstream == nil {
			upstream = &UpstreamConfig{}
			c.Upstreams[name] = upstream
		}
		upstream.expandEnv()
		if err := upstream.parseDurations(name); err != nil {
			return err
		}
	}
	return nil
}

func (u *UpstreamConfig) expandEnv() {
	u.BaseURL = strings.TrimSpace(os.ExpandEnv(u.BaseURL))
	u.APIKeyHeader = strings.TrimSpace(os.ExpandEnv(u.APIKeyHeader))
	u.APIKey = strings.TrimSpace(os.ExpandEnv(u.APIKey))
	u.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(u.TimeoutRaw))
	u.BackoffBaseRaw = strings.TrimSpace(os.ExpandEnv(u.BackoffBaseRaw))
	u.BackoffMaxRaw = strings.TrimSpace(os.ExpandEnv(u.BackoffMaxRaw))
}

func (u *UpstreamConfig) parseDurations(name string) error {
	fields := []struct {
		label string
		raw   string
		dst   *time.Duration
	}{
		{"timeout", u.TimeoutRaw, &u.Timeout},
		{"backoff_base", u.BackoffBaseRaw, &u.BackoffBase},
		{"backoff_max", u.BackoffMaxRaw, &u.BackoffMax},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("upstream %s: invalid %s %q: %w", name, f.label, f.raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("upstream %s: %s must be positive, got %s", name, f.label, d)
		}
		*f.dst = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Upstreams) == 0 {
		return fmt.Errorf("upstream config: upstreams cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Upstreams[c.Default]; !ok {
			return fmt.Errorf("upstream config: default upstream %q not defined", c.Default)
		}
	}
	for name, upstream := range c.Upstreams {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("upstream config: upstream name cannot be empty")
		}
		if err := upstream.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (u *UpstreamConfig) validate(name string) error {
	if u == nil {
		return fmt.Errorf("upstream config: upstream %s is nil", name)
	}
	if u.BaseURL == "" {
		return fmt.Errorf("upstream config: upstream %s must specify base_url", name)
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("upstream config: upstream %s has invalid base_url %q", name, u.BaseURL)
	}
	if u.MaxAttempts < 0 {
		return fmt.Errorf("upstream config: upstream %s max_attempts cannot be negative", name)
	}
	if u.BackoffMax > 0 && u.BackoffBase > 0 && u.BackoffMax < u.BackoffBase {
		return fmt.Errorf("upstream config: upstream %s backoff_max must be >= backoff_base", name)
	}
	return nil
}

// Options translates the upstream settings into gateway options.
func (u *UpstreamConfig) Options(name string) []Option {
	opts := []Option{WithName(name), WithBaseURL(u.BaseURL)}
	if u.APIKeyHeader != "" && u.APIKey != "" {
		opts = append(opts, WithAPIKey(u.APIKeyHeader, u.APIKey))
	}
	if u.Timeout > 0 {
		opts = append(opts, WithTimeout(u.Timeout))
	}
	if u.MaxAttempts > 0 {
		opts = append(opts, WithMaxAttempts(u.MaxAttempts))
	}
	if u.BackoffBase > 0 || u.BackoffMax > 0 {
		b := DefaultBackoff()
		if u.BackoffBase > 0 {
			b.Base = u.BackoffBase
		}
		if u.BackoffMax > 0 {
			b.Max = u.BackoffMax
		}
		opts = append(opts, WithBackoff(b))
	}
	return opts
}

// BuildGateways instantiates one gateway per upstream, all sharing store.
func (c *Config) BuildGateways(store *cache.Store[json.RawMessage], httpClient *http.Client) (map[string]*Gateway, error) {
	result := make(map[string]*Gateway, len(c.Upstreams))
	for name, upstream := range c.Upstreams {
		if err := upstream.validate(name); err != nil {
			return nil, err
		}
		opts := upstream.Options(name)
		if httpClient != nil {
			opts = append(opts, WithHTTPClient(httpClient))
		}
		result[name] = New(store, opts...)
	}
	return result, nil
}
