package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptolens-api/internal/config"
	"cryptolens-api/pkg/confkit"
	"cryptolens-api/pkg/gateway"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
// API keys are reported by presence only.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Service: %s (%s)", cfg.Name, cfg.Env),
		fmt.Sprintf("TTL (reference-list/chart/general/sentiment): %ds / %ds / %ds / %ds",
			cfg.TTL.ReferenceList, cfg.TTL.Chart, cfg.TTL.General, cfg.TTL.Sentiment),
		fmt.Sprintf("Reference list path: %s", cfg.ReferenceListPath),
		fmt.Sprintf("Monitor interval: %s", cfg.Monitor.Interval()),
		sectionLine("Upstream config", cfg.Upstream),
	}
	if cfg.Upstream.Loaded() {
		lines = append(lines, upstreamLines(cfg.Upstream.Value)...)
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func upstreamLines(cfg *gateway.Config) []string {
	names := make([]string, 0, len(cfg.Upstreams))
	for name := range cfg.Upstreams {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		u := cfg.Upstreams[name]
		marker := ""
		if name == cfg.Default {
			marker = " (default)"
		}
		lines = append(lines, fmt.Sprintf("Upstream %s%s: %s, api key %s", name, marker, u.BaseURL, presence(u.APIKey != "")))
	}
	return lines
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
