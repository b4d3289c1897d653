package solscan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

const testMint = "So11111111111111111111111111111111111111112"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	gw := gateway.New(cache.NewStore[json.RawMessage](cache.DefaultTTLSet()),
		gateway.WithName("solscan"),
		gateway.WithBaseURL(server.URL),
		gateway.WithHTTPClient(server.Client()),
		gateway.WithAPIKey("token", "secret"),
		gateway.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	return NewClient(gw)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestTokenOverview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case PathTokenMeta:
			writeJSON(w, map[string]any{"success": true, "data": map[string]any{"symbol": "SOL", "decimals": 9}})
		case PathTokenHolders:
			assert.Equal(t, "10", r.URL.Query().Get("page_size"))
			items := make([]map[string]any, 0, 10)
			for i := 1; i <= 10; i++ {
				items = append(items, map[string]any{"owner": "owner", "amount": 100 - i, "rank": i})
			}
			writeJSON(w, map[string]any{"data": map[string]any{"total": 10, "items": items}})
		case PathTokenTransfers:
			assert.Equal(t, "5", r.URL.Query().Get("page_size"))
			writeJSON(w, map[string]any{"data": []map[string]any{{"trans_id": "sig1", "block_time": 1714521600, "amount": 42}}})
		default:
			http.NotFound(w, r)
		}
	})

	overview, err := client.TokenOverview(context.Background(), testMint)
	require.NoError(t, err)
	require.Equal(t, testMint, overview.Address)
	require.JSONEq(t, `{"symbol":"SOL","decimals":9}`, string(overview.Metadata))
	require.Len(t, overview.Holders, 5)
	require.Equal(t, 1, overview.Holders[0].Rank)
	require.Len(t, overview.Transfers, 1)
	require.Equal(t, "sig1", overview.Transfers[0].TransID)
}

func TestTokenOverviewDegradesOptionalParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathTokenMeta:
			writeJSON(w, map[string]any{"symbol": "BONK"})
		case PathTokenHolders:
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	overview, err := client.TokenOverview(context.Background(), testMint)
	require.NoError(t, err)
	require.JSONEq(t, `{"symbol":"BONK"}`, string(overview.Metadata))
	require.NotNil(t, overview.Holders)
	require.Empty(t, overview.Holders)
	require.NotNil(t, overview.Transfers)
	require.Empty(t, overview.Transfers)
}

func TestTokenOverviewMetadataFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.TokenOverview(context.Background(), testMint)
	require.Error(t, err)
	require.True(t, gateway.IsPermanent(err))

	_, err = client.TokenOverview(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidMint)
}
