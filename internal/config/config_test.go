package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const upstreamYAML = `
default: coingecko
upstreams:
  coingecko:
    base_url: https://api.coingecko.com/api/v3
    timeout: 7s
    max_attempts: 3
  sentiment:
    base_url: https://api.alternative.me
  solscan:
    base_url: https://pro-api.solscan.io/v2.0
    api_key_header: token
    api_key: ${CRYPTOLENS_TEST_SOLSCAN_TOKEN}
`

func TestLoad_defaultsAndSections(t *testing.T) {
	t.Setenv("CRYPTOLENS_NO_DOTENV", "1")
	t.Setenv("CRYPTOLENS_TEST_SOLSCAN_TOKEN", "sol-token")
	dir := t.TempDir()
	writeFile(t, dir, "upstream.yaml", upstreamYAML)
	mainPath := writeFile(t, dir, "cryptolens.yaml", `
Name: cryptolens-test
Env: TEST
Log:
  Mode: console
Upstreams:
  Solscan: solscan
Upstream:
  File: upstream.yaml
`)

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("Env not normalised, got %q", cfg.Env)
	}
	if cfg.TTL.ReferenceList != 43200 || cfg.TTL.Chart != 120 || cfg.TTL.General != 60 || cfg.TTL.Sentiment != 600 {
		t.Fatalf("unexpected ttl defaults: %+v", cfg.TTL)
	}
	if cfg.ReferenceListPath != "/coins/list" {
		t.Fatalf("ReferenceListPath default, got %q", cfg.ReferenceListPath)
	}
	if cfg.Monitor.Interval() != time.Minute {
		t.Fatalf("monitor interval default, got %s", cfg.Monitor.Interval())
	}
	if cfg.BaseDir() != dir || cfg.MainPath() != mainPath {
		t.Fatalf("paths not recorded: base=%s main=%s", cfg.BaseDir(), cfg.MainPath())
	}
	if !cfg.Upstream.Loaded() {
		t.Fatalf("upstream section not hydrated")
	}
	if cfg.Upstream.File != filepath.Join(dir, "upstream.yaml") {
		t.Fatalf("section file not resolved, got %s", cfg.Upstream.File)
	}
	solscan := cfg.Upstream.Value.Upstreams["solscan"]
	if solscan == nil || solscan.APIKey != "sol-token" {
		t.Fatalf("solscan api key not expanded: %+v", solscan)
	}
	if got := cfg.Upstream.Value.Upstreams["coingecko"].Timeout; got != 7*time.Second {
		t.Fatalf("coingecko timeout, got %s", got)
	}
}

func TestLoad_minimalFileUsesNestedDefaults(t *testing.T) {
	t.Setenv("CRYPTOLENS_NO_DOTENV", "1")
	mainPath := writeFile(t, t.TempDir(), "cryptolens.yaml", "Name: x\n")

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := CacheTTL{ReferenceList: 43200, Chart: 120, General: 60, Sentiment: 600}
	if cfg.TTL != want {
		t.Fatalf("ttl defaults not applied: %+v", cfg.TTL)
	}
	if cfg.Monitor.IntervalSeconds != 60 || cfg.Monitor.FearGreedLimit != 1 {
		t.Fatalf("monitor defaults not applied: %+v", cfg.Monitor)
	}
	if cfg.Upstreams.CoinGecko != "coingecko" || cfg.Upstreams.Sentiment != "sentiment" || cfg.Upstreams.Solscan != "" {
		t.Fatalf("upstream name defaults not applied: %+v", cfg.Upstreams)
	}
	if cfg.Upstream.Loaded() {
		t.Fatalf("upstream section should stay empty without a file")
	}
}

func TestLoad_unknownUpstreamName(t *testing.T) {
	t.Setenv("CRYPTOLENS_NO_DOTENV", "1")
	dir := t.TempDir()
	writeFile(t, dir, "upstream.yaml", upstreamYAML)
	mainPath := writeFile(t, dir, "cryptolens.yaml", `
Upstreams:
  CoinGecko: gecko
Upstream:
  File: upstream.yaml
`)

	_, err := Load(mainPath)
	if err == nil || !strings.Contains(err.Error(), `"gecko"`) {
		t.Fatalf("expected undeclared upstream error, got %v", err)
	}
}

func TestLoad_missingSectionFile(t *testing.T) {
	t.Setenv("CRYPTOLENS_NO_DOTENV", "1")
	dir := t.TempDir()
	mainPath := writeFile(t, dir, "cryptolens.yaml", "Upstream:\n  File: nowhere.yaml\n")

	if _, err := Load(mainPath); err == nil {
		t.Fatalf("expected error for missing upstream file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:               "prod",
			ReferenceListPath: "/coins/list",
			Monitor:           MonitorConf{IntervalSeconds: 30},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero ttl allowed", mutate: func(c *Config) { c.TTL.Chart = 0 }},
		{name: "bad env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: "env must be"},
		{name: "relative reference path", mutate: func(c *Config) { c.ReferenceListPath = "coins/list" }, wantErr: "referenceListPath"},
		{name: "zero interval", mutate: func(c *Config) { c.Monitor.IntervalSeconds = 0 }, wantErr: "monitor.intervalSeconds"},
		{name: "negative ttl", mutate: func(c *Config) { c.TTL.Sentiment = -1 }, wantErr: "ttl.sentiment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_emptyEnvDefaults(t *testing.T) {
	cfg := &Config{ReferenceListPath: "/coins/list", Monitor: MonitorConf{IntervalSeconds: 1}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Env != "dev" || cfg.IsProd() {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
}

func TestCacheTTLSeconds(t *testing.T) {
	got := CacheTTL{ReferenceList: 1, Chart: 2, General: 3, Sentiment: 4}.Seconds()
	if got.ReferenceList != 1 || got.Chart != 2 || got.General != 3 || got.Sentiment != 4 {
		t.Fatalf("unexpected conversion: %+v", got)
	}
}
