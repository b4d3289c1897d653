package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/confkit"
	"cryptolens-api/pkg/gateway"
)

// CacheTTL holds per-class freshness windows in seconds.
type CacheTTL struct {
	ReferenceList int `json:",default=43200"`
	Chart         int `json:",default=120"`
	General       int `json:",default=60"`
	Sentiment     int `json:",default=600"`
}

// Seconds converts the TTL block into the cache package's input.
func (t CacheTTL) Seconds() cache.Seconds {
	return cache.Seconds{
		ReferenceList: t.ReferenceList,
		Chart:         t.Chart,
		General:       t.General,
		Sentiment:     t.Sentiment,
	}
}

// UpstreamNames maps each client onto an upstream declared in the upstream file.
type UpstreamNames struct {
	CoinGecko string `json:",default=coingecko"`
	Sentiment string `json:",default=sentiment"`
	Solscan   string `json:",optional"`
}

type MonitorConf struct {
	IntervalSeconds int `json:",default=60"`
	FearGreedLimit  int `json:",default=1"`
}

func (m MonitorConf) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

type Config struct {
	Name string `json:",default=cryptolens-monitor"`
	// Env is one of dev | test | prod.
	Env string       `json:",default=dev"`
	Log logx.LogConf `json:",optional"`
	TTL CacheTTL

	ReferenceListPath string `json:",default=/coins/list"`
	Upstreams         UpstreamNames
	Monitor           MonitorConf

	Upstream confkit.Section[gateway.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	cfg, err := confkit.Load[Config](absPath)
	if err != nil {
		return nil, err
	}
	cfg.mainPath = absPath
	cfg.baseDir = confkit.BaseDir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	if err := cfg.validateUpstreams(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	switch env {
	case "":
		c.Env = "dev"
	case "dev", "test", "prod":
		c.Env = env
	default:
		return errors.New("config: env must be one of dev|test|prod")
	}
	if !strings.HasPrefix(strings.TrimSpace(c.ReferenceListPath), "/") {
		return errors.New("config: referenceListPath must be an absolute upstream path")
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return errors.New("config: monitor.intervalSeconds must be positive")
	}
	return c.validateTTL()
}

// validateTTL rejects negative windows; zero selects the class default.
func (c *Config) validateTTL() error {
	checks := []struct {
		name  string
		value int
	}{
		{"ttl.referenceList", c.TTL.ReferenceList},
		{"ttl.chart", c.TTL.Chart},
		{"ttl.general", c.TTL.General},
		{"ttl.sentiment", c.TTL.Sentiment},
	}
	for _, check := range checks {
		if check.value < 0 {
			return fmt.Errorf("config: %s must not be negative", check.name)
		}
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Upstream.Hydrate(c.baseDir, gateway.LoadConfig); err != nil {
		return fmt.Errorf("load upstream config: %w", err)
	}
	return nil
}

// validateUpstreams checks that every named client has a declared upstream.
// It is a no-op until the upstream section is hydrated.
func (c *Config) validateUpstreams() error {
	if !c.Upstream.Loaded() {
		return nil
	}
	declared := c.Upstream.Value.Upstreams
	for role, name := range map[string]string{
		"coingecko": c.Upstreams.CoinGecko,
		"sentiment": c.Upstreams.Sentiment,
		"solscan":   c.Upstreams.Solscan,
	} {
		if name == "" {
			continue
		}
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("config: %s upstream %q is not declared in %s", role, name, c.Upstream.File)
		}
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
