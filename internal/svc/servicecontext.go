package svc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cryptolens-api/internal/cache"
	"cryptolens-api/internal/config"
	"cryptolens-api/pkg/coingecko"
	"cryptolens-api/pkg/gateway"
	"cryptolens-api/pkg/resolver"
	"cryptolens-api/pkg/sentiment"
	"cryptolens-api/pkg/solscan"
)

type ServiceContext struct {
	Config config.Config

	Store    *cache.Store[json.RawMessage]
	Gateways map[string]*gateway.Gateway

	CoinGecko *coingecko.Client
	Sentiment *sentiment.Client
	// Solscan is nil when no solscan upstream is configured.
	Solscan  *solscan.Client
	Resolver *resolver.Resolver
}

// Option customises service construction, mostly for tests.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient shares hc across every gateway.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func MustNewServiceContext(c config.Config, opts ...Option) *ServiceContext {
	svc, err := NewServiceContext(c, opts...)
	if err != nil {
		panic(err)
	}
	return svc
}

// NewServiceContext builds one store shared by every upstream gateway and
// wires the clients and the identifier resolver on top of it.
func NewServiceContext(c config.Config, opts ...Option) (*ServiceContext, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !c.Upstream.Loaded() {
		return nil, errors.New("svc: upstream config is not loaded")
	}

	store := cache.NewStore[json.RawMessage](cache.NewTTLSet(c.TTL.Seconds()))
	gateways, err := c.Upstream.Value.BuildGateways(store, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("svc: build gateways: %w", err)
	}

	svc := &ServiceContext{
		Config:   c,
		Store:    store,
		Gateways: gateways,
	}

	coingeckoGW, err := svc.gateway("coingecko", c.Upstreams.CoinGecko)
	if err != nil {
		return nil, err
	}
	svc.CoinGecko = coingecko.NewClient(coingeckoGW)
	svc.Resolver = resolver.New(coingeckoGW, resolver.WithReferencePath(c.ReferenceListPath))

	sentimentGW, err := svc.gateway("sentiment", c.Upstreams.Sentiment)
	if err != nil {
		return nil, err
	}
	svc.Sentiment = sentiment.NewClient(sentimentGW)

	if c.Upstreams.Solscan != "" {
		solscanGW, err := svc.gateway("solscan", c.Upstreams.Solscan)
		if err != nil {
			return nil, err
		}
		svc.Solscan = solscan.NewClient(solscanGW)
	}
	return svc, nil
}

func (s *ServiceContext) gateway(role, name string) (*gateway.Gateway, error) {
	gw, ok := s.Gateways[name]
	if !ok {
		return nil, fmt.Errorf("svc: %s upstream %q not configured", role, name)
	}
	return gw, nil
}
