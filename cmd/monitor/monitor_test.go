package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptolens-api/internal/config"
	"cryptolens-api/internal/svc"
	"cryptolens-api/pkg/gateway"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"btc", "eth"}, splitList(" btc, ,eth,"))
	assert.Empty(t, splitList(""))
}

func TestMonitorTickServesRepeatsFromCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/coins/list":
			_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`))
		case "/global":
			_, _ = w.Write([]byte(`{"data":{"active_cryptocurrencies":3,"market_cap_percentage":{"btc":50}}}`))
		case "/fng/":
			_, _ = w.Write([]byte(`{"data":[{"value":"10","value_classification":"Extreme Fear","timestamp":"1714521600"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	upstreams, err := gateway.LoadConfigFromReader(strings.NewReader(
		"upstreams:\n  coingecko:\n    base_url: " + server.URL + "\n  sentiment:\n    base_url: " + server.URL + "\n"))
	require.NoError(t, err)
	cfg := config.Config{
		ReferenceListPath: "/coins/list",
		Upstreams:         config.UpstreamNames{CoinGecko: "coingecko", Sentiment: "sentiment"},
		Monitor:           config.MonitorConf{IntervalSeconds: 1, FearGreedLimit: 1},
	}
	cfg.Upstream.Value = upstreams

	svcCtx, err := svc.NewServiceContext(cfg, svc.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	m := newMonitor(svcCtx, []string{"btc", "unknown"})

	m.tick(context.Background())
	require.Equal(t, int32(3), calls.Load())

	m.tick(context.Background())
	require.Equal(t, int32(3), calls.Load(), "second tick within TTL hits the cache")
	require.Equal(t, 1, svcCtx.Resolver.IndexStats().Records)
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	m := &monitor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		m.run(ctx, time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestEnsureUpstreamFallsBackToProjectFile(t *testing.T) {
	t.Setenv("CRYPTOLENS_NO_DOTENV", "1")
	cfg := &config.Config{}
	ensureUpstream(cfg)
	require.True(t, cfg.Upstream.Loaded())
	assert.Contains(t, cfg.Upstream.Value.Upstreams, "coingecko")
	assert.Equal(t, "etc/upstream.yaml (default)", cfg.Upstream.File)

	inline := &gateway.Config{}
	cfg = &config.Config{}
	cfg.Upstream.Value = inline
	ensureUpstream(cfg)
	assert.Same(t, inline, cfg.Upstream.Value)
}
