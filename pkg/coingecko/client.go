package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"cryptolens-api/internal/cache"
	"cryptolens-api/pkg/gateway"
)

// QuoteCurrency is the only currency prices are requested in.
const QuoteCurrency = "usd"

const (
	PathCoinsList  = "/coins/list"
	PathMarkets    = "/coins/markets"
	PathSimple     = "/simple/price"
	PathSearch     = "/search"
	PathTrending   = "/search/trending"
	PathGlobal     = "/global"
	PathCategories = "/coins/categories"
	PathExchanges  = "/exchanges"

	searchLimit    = 10
	maxMarketsPage = 250
)

var (
	// ErrCoinNotFound is returned when the upstream omits the requested id.
	ErrCoinNotFound = errors.New("coingecko: coin not found")
	// ErrInvalidID rejects blank ids before any request is made.
	ErrInvalidID = errors.New("coingecko: coin id is required")
)

// Fetcher is the gateway surface the client needs.
type Fetcher interface {
	Execute(ctx context.Context, path string, params url.Values, class cache.TTLClass) (gateway.Result, error)
}

// Client exposes typed CoinGecko endpoints on top of a caching gateway.
type Client struct {
	fetcher Fetcher
}

// NewClient wraps fetcher, usually a *gateway.Gateway pointed at CoinGecko.
func NewClient(fetcher Fetcher) *Client {
	return &Client{fetcher: fetcher}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, class cache.TTLClass, out any) error {
	res, err := c.fetcher.Execute(ctx, path, params, class)
	if err != nil {
		return err
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("coingecko: decode %s: %w", path, err)
	}
	return nil
}

func coinPath(id string, suffix ...string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	parts := append([]string{"/coins", url.PathEscape(id)}, suffix...)
	return strings.Join(parts, "/"), nil
}

// CoinsList returns the full reference list of coins.
func (c *Client) CoinsList(ctx context.Context) ([]Coin, error) {
	var coins []Coin
	if err := c.get(ctx, PathCoinsList, nil, cache.TTLReferenceList, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// CoinDetail returns the detail payload for id with unrelated sub-objects disabled.
func (c *Client) CoinDetail(ctx context.Context, id string) (*CoinDetail, error) {
	path, err := coinPath(id)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"market_data":    {"true"},
	}
	var detail CoinDetail
	if err := c.get(ctx, path, params, cache.TTLGeneral, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MarketChart returns price, market cap and volume series for the last days.
// interval is optional ("daily", "hourly"); empty lets the upstream choose.
func (c *Client) MarketChart(ctx context.Context, id string, days int, interval string) (*MarketChart, error) {
	path, err := coinPath(id, "market_chart")
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 1
	}
	params := url.Values{
		"vs_currency": {QuoteCurrency},
		"days":        {strconv.Itoa(days)},
	}
	if interval = strings.TrimSpace(interval); interval != "" {
		params.Set("interval", interval)
	}
	var raw rawMarketChart
	if err := c.get(ctx, path, params, cache.TTLChart, &raw); err != nil {
		return nil, err
	}
	return raw.convert(), nil
}

// MarketsQuery selects a page of the market listing.
type MarketsQuery struct {
	Order                 string
	PerPage               int
	Page                  int
	PriceChangePercentage []string
}

func (q MarketsQuery) params() url.Values {
	order := strings.TrimSpace(q.Order)
	if order == "" {
		order = "market_cap_desc"
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	if perPage > maxMarketsPage {
		perPage = maxMarketsPage
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"vs_currency": {QuoteCurrency},
		"order":       {order},
		"per_page":    {strconv.Itoa(perPage)},
		"page":        {strconv.Itoa(page)},
	}
	if len(q.PriceChangePercentage) > 0 {
		params.Set("price_change_percentage", strings.Join(q.PriceChangePercentage, ","))
	}
	return params
}

// Markets returns one page of market snapshots in upstream order.
func (c *Client) Markets(ctx context.Context, q MarketsQuery) ([]Market, error) {
	var markets []Market
	if err := c.get(ctx, PathMarkets, q.params(), cache.TTLGeneral, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// SimplePrice returns the quote, market cap and 24h change for id.
func (c *Client) SimplePrice(ctx context.Context, id string) (*SimplePrice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	params := url.Values{
		"ids":                 {id},
		"vs_currencies":       {QuoteCurrency},
		"include_market_cap":  {"true"},
		"include_24hr_change": {"true"},
	}
	var prices map[string]SimplePrice
	if err := c.get(ctx, PathSimple, params, cache.TTLGeneral, &prices); err != nil {
		return nil, err
	}
	price, ok := prices[id]
	if !ok {
		return nil, ErrCoinNotFound
	}
	return &price, nil
}

// Search returns up to ten coin suggestions for query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	var payload struct {
		Coins []SearchCoin `json:"coins"`
	}
	if err := c.get(ctx, PathSearch, url.Values{"query": {query}}, cache.TTLGeneral, &payload); err != nil {
		return nil, err
	}
	if len(payload.Coins) > searchLimit {
		payload.Coins = payload.Coins[:searchLimit]
	}
	return payload.Coins, nil
}

// Trending returns the upstream's trending coins.
func (c *Client) Trending(ctx context.Context) ([]TrendingCoin, error) {
	var payload struct {
		Coins []struct {
			Item TrendingCoin `json:"item"`
		} `json:"coins"`
	}
	if err := c.get(ctx, PathTrending, nil, cache.TTLGeneral, &payload); err != nil {
		return nil, err
	}
	out := make([]TrendingCoin, 0, len(payload.Coins))
	for _, coin := range payload.Coins {
		out = append(out, coin.Item)
	}
	return out, nil
}

// Global returns market-wide statistics.
func (c *Client) Global(ctx context.Context) (*Global, error) {
	var payload struct {
		Data Global `json:"data"`
	}
	if err := c.get(ctx, PathGlobal, nil, cache.TTLGeneral, &payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// Categories returns coin categories with aggregate market data.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.get(ctx, PathCategories, nil, cache.TTLGeneral, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Exchanges returns one page of the exchange listing.
func (c *Client) Exchanges(ctx context.Context, perPage, page int) ([]Exchange, error) {
	if perPage <= 0 {
		perPage = 100
	}
	if perPage > maxMarketsPage {
		perPage = maxMarketsPage
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	var exchanges []Exchange
	if err := c.get(ctx, PathExchanges, params, cache.TTLGeneral, &exchanges); err != nil {
		return nil, err
	}
	return exchanges, nil
}
