// Package solscan fetches Solana token data from the Solscan Pro API.
package solscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

const (
	PathTokenMeta      = "/token/meta"
	PathTokenHolders   = "/token/holders"
	PathTokenTransfers = "/token/transfers"

	holdersPageSize   = 10
	topHolders        = 5
	transfersPageSize = 5
)

// ErrInvalidMint rejects blank token addresses.
var ErrInvalidMint = errors.New("solscan: token address is required")

// Fetcher is the gateway surface the client needs.
type Fetcher interface {
	Execute(ctx context.Context, path string, params url.Values, class cache.TTLClass) (gateway.Result, error)
}

// Holder is one token account ranked by balance.
type Holder struct {
	Address  string  `json:"address"`
	Owner    string  `json:"owner"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
	Rank     int     `json:"rank"`
}

// Transfer is one recent token movement.
type Transfer struct {
	TransID   string  `json:"trans_id"`
	BlockTime int64   `json:"block_time"`
	From      string  `json:"from_address"`
	To        string  `json:"to_address"`
	Amount    float64 `json:"amount"`
	Decimals  int     `json:"token_decimals"`
}

// Overview combines token metadata with its top holders and latest transfers.
// Holders and Transfers are empty, never nil, when their lookups failed.
type Overview struct {
	Address   string
	Metadata  json.RawMessage
	Holders   []Holder
	Transfers []Transfer
}

// Client wraps the authenticated Solscan gateway.
type Client struct {
	fetcher Fetcher
}

// NewClient wraps fetcher, usually a *gateway.Gateway carrying the API token header.
func NewClient(fetcher Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

// TokenOverview returns metadata, top holders and recent transfers for mint.
// Holders and transfers are fetched concurrently after metadata succeeds;
// only a metadata failure is returned as an error.
func (c *Client) TokenOverview(ctx context.Context, mint string) (*Overview, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return nil, ErrInvalidMint
	}

	meta, err := c.fetcher.Execute(ctx, PathTokenMeta, url.Values{"address": {mint}}, cache.TTLGeneral)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := meta.Decode(&probe); err != nil {
		return nil, fmt.Errorf("solscan: decode metadata: %w", err)
	}

	overview := &Overview{
		Address:   mint,
		Metadata:  unwrapData(meta.Payload, probe),
		Holders:   []Holder{},
		Transfers: []Transfer{},
	}

	mr.FinishVoid(func() {
		holders, err := c.holders(ctx, mint)
		if err != nil {
			logx.WithContext(ctx).Errorf("solscan: holders for %s unavailable: %v", mint, err)
			return
		}
		overview.Holders = holders
	}, func() {
		transfers, err := c.transfers(ctx, mint)
		if err != nil {
			logx.WithContext(ctx).Errorf("solscan: transfers for %s unavailable: %v", mint, err)
			return
		}
		overview.Transfers = transfers
	})
	return overview, nil
}

func (c *Client) holders(ctx context.Context, mint string) ([]Holder, error) {
	params := url.Values{
		"address":   {mint},
		"page":      {"1"},
		"page_size": {fmt.Sprint(holdersPageSize)},
	}
	res, err := c.fetcher.Execute(ctx, PathTokenHolders, params, cache.TTLGeneral)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data struct {
			Items []Holder `json:"items"`
		} `json:"data"`
	}
	if err := res.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode holders: %w", err)
	}
	items := payload.Data.Items
	if len(items) > topHolders {
		items = items[:topHolders]
	}
	return append([]Holder{}, items...), nil
}

func (c *Client) transfers(ctx context.Context, mint string) ([]Transfer, error) {
	params := url.Values{
		"address":   {mint},
		"page":      {"1"},
		"page_size": {fmt.Sprint(transfersPageSize)},
	}
	res, err := c.fetcher.Execute(ctx, PathTokenTransfers, params, cache.TTLGeneral)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Data []Transfer `json:"data"`
	}
	if err := res.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return append([]Transfer{}, payload.Data...), nil
}

// unwrapData returns the "data" member of a Pro API envelope, or the whole
// payload when there is no envelope.
func unwrapData(payload json.RawMessage, fields map[string]json.RawMessage) json.RawMessage {
	if data, ok := fields["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return payload
}
