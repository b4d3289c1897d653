// Package sentiment reads the Fear & Greed index from the alternative.me API.
package sentiment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

const (
	pathFearGreed = "/fng/"
	defaultLimit  = 1
	maxLimit      = 365
)

// Fetcher is the gateway surface the client needs.
type Fetcher interface {
	Execute(ctx context.Context, path string, params url.Values, class cache.TTLClass) (gateway.Result, error)
}

// Reading is one point of the index.
type Reading struct {
	Value          int
	Classification string
	Timestamp      time.Time
}

type rawReading struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

// Client queries the unauthenticated sentiment endpoint.
type Client struct {
	fetcher Fetcher
}

// NewClient wraps fetcher, usually a *gateway.Gateway pointed at alternative.me.
func NewClient(fetcher Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

// FearGreed returns the latest limit readings, newest first.
func (c *Client) FearGreed(ctx context.Context, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	res, err := c.fetcher.Execute(ctx, pathFearGreed, url.Values{"limit": {strconv.Itoa(limit)}}, cache.TTLSentiment)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data     []rawReading `json:"data"`
		Metadata struct {
			Error *string `json:"error"`
		} `json:"metadata"`
	}
	if err := res.Decode(&payload); err != nil {
		return nil, fmt.Errorf("sentiment: decode: %w", err)
	}
	if payload.Metadata.Error != nil && strings.TrimSpace(*payload.Metadata.Error) != "" {
		return nil, fmt.Errorf("sentiment: upstream error: %s", *payload.Metadata.Error)
	}

	readings := make([]Reading, 0, len(payload.Data))
	for _, raw := range payload.Data {
		reading, err := raw.parse()
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func (r rawReading) parse() (Reading, error) {
	value, err := strconv.Atoi(strings.TrimSpace(r.Value))
	if err != nil {
		return Reading{}, fmt.Errorf("sentiment: invalid value %q: %w", r.Value, err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(r.Timestamp), 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("sentiment: invalid timestamp %q: %w", r.Timestamp, err)
	}
	return Reading{
		Value:          value,
		Classification: r.Classification,
		Timestamp:      time.Unix(ts, 0).UTC(),
	}, nil
}
