package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

type stubFetcher struct {
	payload string
	err     error
	params  url.Values
	class   cache.TTLClass
}

func (s *stubFetcher) Execute(_ context.Context, _ string, params url.Values, class cache.TTLClass) (gateway.Result, error) {
	s.params = params
	s.class = class
	if s.err != nil {
		return gateway.Result{}, s.err
	}
	return gateway.Result{Payload: json.RawMessage(s.payload)}, nil
}

func TestFearGreed(t *testing.T) {
	stub := &stubFetcher{payload: `{
		"name": "Fear and Greed Index",
		"data": [
			{"value": "72", "value_classification": "Greed", "timestamp": "1714521600"},
			{"value": "40", "value_classification": "Fear", "timestamp": "1714435200"}
		],
		"metadata": {"error": null}
	}`}
	client := NewClient(stub)

	readings, err := client.FearGreed(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	require.Equal(t, Reading{Value: 72, Classification: "Greed", Timestamp: time.Unix(1714521600, 0).UTC()}, readings[0])
	require.Equal(t, "2", stub.params.Get("limit"))
	require.Equal(t, cache.TTLSentiment, stub.class)
}

func TestFearGreedClampsLimit(t *testing.T) {
	stub := &stubFetcher{payload: `{"data": []}`}
	client := NewClient(stub)

	_, err := client.FearGreed(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "1", stub.params.Get("limit"))

	_, err = client.FearGreed(context.Background(), 10000)
	require.NoError(t, err)
	require.Equal(t, "365", stub.params.Get("limit"))
}

func TestFearGreedErrors(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubFetcher
		wantErr string
	}{
		{name: "upstream metadata error", stub: &stubFetcher{payload: `{"data":[],"metadata":{"error":"limit too high"}}`}, wantErr: "limit too high"},
		{name: "bad value", stub: &stubFetcher{payload: `{"data":[{"value":"x","timestamp":"1"}]}`}, wantErr: "invalid value"},
		{name: "bad timestamp", stub: &stubFetcher{payload: `{"data":[{"value":"1","timestamp":"later"}]}`}, wantErr: "invalid timestamp"},
		{name: "not an object", stub: &stubFetcher{payload: `[]`}, wantErr: "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.stub).FearGreed(context.Background(), 1)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	upstream := errors.New("down")
	_, err := NewClient(&stubFetcher{err: upstream}).FearGreed(context.Background(), 1)
	require.ErrorIs(t, err, upstream)
}
