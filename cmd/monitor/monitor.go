package main

import (
	"context"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptolens-api/internal/config"
	"cryptolens-api/internal/svc"
	"cryptolens-api/pkg/coingecko"
	"cryptolens-api/pkg/gateway"
	"cryptolens-api/pkg/resolver"
	"cryptolens-api/pkg/sentiment"
)

// ensureUpstream falls back to the project's etc/upstream.yaml when the app
// config names no upstream file.
func ensureUpstream(cfg *config.Config) {
	if cfg.Upstream.Loaded() {
		return
	}
	cfg.Upstream.Value = gateway.MustLoad()
	cfg.Upstream.File = "etc/upstream.yaml (default)"
}

type monitor struct {
	coingecko      *coingecko.Client
	sentiment      *sentiment.Client
	resolver       *resolver.Resolver
	fearGreedLimit int
	queries        []string
}

func newMonitor(svcCtx *svc.ServiceContext, queries []string) *monitor {
	return &monitor{
		coingecko:      svcCtx.CoinGecko,
		sentiment:      svcCtx.Sentiment,
		resolver:       svcCtx.Resolver,
		fearGreedLimit: svcCtx.Config.Monitor.FearGreedLimit,
		queries:        queries,
	}
}

func (m *monitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one polling round; each probe gets its own timeout so a slow
// upstream does not starve the others.
func (m *monitor) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	m.probe(parent, "resolver", m.resolve)
	m.probe(parent, "global", m.global)
	m.probe(parent, "fear_greed", m.fearGreed)
}

func (m *monitor) probe(parent context.Context, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(parent, apiTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		logx.WithContext(ctx).Errorf("[%s] failed after %dms: %v", name, time.Since(start).Milliseconds(), err)
		return
	}
	logx.WithContext(ctx).Infof("[%s] ok in %dms", name, time.Since(start).Milliseconds())
}

func (m *monitor) resolve(ctx context.Context) error {
	for _, q := range m.queries {
		id, ok, err := m.resolver.Resolve(ctx, q)
		if err != nil {
			return err
		}
		if !ok {
			logx.WithContext(ctx).Infof("[resolver] %q: no match", q)
			continue
		}
		logx.WithContext(ctx).Infof("[resolver] %q -> %s", q, id)
	}
	stats := m.resolver.IndexStats()
	logx.WithContext(ctx).Infof("[resolver] index records=%d symbols=%d names=%d built=%s",
		stats.Records, stats.Symbols, stats.Names, stats.StoredAt.Format(time.RFC3339))
	return nil
}

func (m *monitor) global(ctx context.Context) error {
	g, err := m.coingecko.Global(ctx)
	if err != nil {
		return err
	}
	logx.WithContext(ctx).Infof("[global] active=%d btc_dominance=%.2f%%",
		g.ActiveCryptocurrencies, g.MarketCapPercentage["btc"])
	return nil
}

func (m *monitor) fearGreed(ctx context.Context) error {
	readings, err := m.sentiment.FearGreed(ctx, m.fearGreedLimit)
	if err != nil {
		return err
	}
	for _, r := range readings {
		logx.WithContext(ctx).Infof("[fear_greed] %s value=%d (%s)", r.Timestamp.Format(time.DateOnly), r.Value, r.Classification)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
