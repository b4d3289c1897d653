package coingecko

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin is one row of the /coins/list reference list.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinDetail is the trimmed /coins/{id} payload.
type CoinDetail struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
	GenesisDate   string `json:"genesis_date"`
	Description   struct {
		EN string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
	} `json:"links"`
	Image struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
	MarketData struct {
		CurrentPrice             map[string]decimal.Decimal `json:"current_price"`
		MarketCap                map[string]decimal.Decimal `json:"market_cap"`
		TotalVolume              map[string]decimal.Decimal `json:"total_volume"`
		PriceChangePercentage24h float64                    `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  float64                    `json:"price_change_percentage_7d"`
	} `json:"market_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// Price returns the quote-currency price from the detail payload.
func (d *CoinDetail) Price() decimal.Decimal {
	return d.MarketData.CurrentPrice[QuoteCurrency]
}

// Point is a single sample of a chart series.
type Point struct {
	Time  time.Time
	Value decimal.Decimal
}

// MarketChart holds parallel price, market cap and volume series.
type MarketChart struct {
	Prices       []Point
	MarketCaps   []Point
	TotalVolumes []Point
}

type rawMarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func (r rawMarketChart) convert() *MarketChart {
	return &MarketChart{
		Prices:       toPoints(r.Prices),
		MarketCaps:   toPoints(r.MarketCaps),
		TotalVolumes: toPoints(r.TotalVolumes),
	}
}

func toPoints(raw [][2]float64) []Point {
	out := make([]Point, 0, len(raw))
	for _, sample := range raw {
		out = append(out, Point{
			Time:  time.UnixMilli(int64(sample[0])).UTC(),
			Value: decimal.NewFromFloat(sample[1]),
		})
	}
	return out
}

// Market is a row of the /coins/markets listing.
type Market struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	Image                    string          `json:"image"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	MarketCapRank            int             `json:"market_cap_rank"`
	TotalVolume              decimal.Decimal `json:"total_volume"`
	High24h                  decimal.Decimal `json:"high_24h"`
	Low24h                   decimal.Decimal `json:"low_24h"`
	PriceChangePercentage24h float64         `json:"price_change_percentage_24h"`
	PriceChange1hInCurrency  *float64        `json:"price_change_percentage_1h_in_currency,omitempty"`
	PriceChange24hInCurrency *float64        `json:"price_change_percentage_24h_in_currency,omitempty"`
	PriceChange7dInCurrency  *float64        `json:"price_change_percentage_7d_in_currency,omitempty"`
	LastUpdated              time.Time       `json:"last_updated"`
}

// SimplePrice is the quote for one id from /simple/price.
type SimplePrice struct {
	Price     decimal.Decimal `json:"usd"`
	MarketCap decimal.Decimal `json:"usd_market_cap"`
	Change24h float64         `json:"usd_24h_change"`
}

// SearchCoin is a coin suggestion from /search.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	APISymbol     string `json:"api_symbol"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Large         string `json:"large"`
}

// TrendingCoin is one entry of /search/trending.
type TrendingCoin struct {
	ID            string  `json:"id"`
	CoinID        int     `json:"coin_id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	Thumb         string  `json:"thumb"`
	Score         int     `json:"score"`
	PriceBTC      float64 `json:"price_btc"`
}

// Global summarises the whole market from /global.
type Global struct {
	ActiveCryptocurrencies          int                        `json:"active_cryptocurrencies"`
	Markets                         int                        `json:"markets"`
	TotalMarketCap                  map[string]decimal.Decimal `json:"total_market_cap"`
	TotalVolume                     map[string]decimal.Decimal `json:"total_volume"`
	MarketCapPercentage             map[string]float64         `json:"market_cap_percentage"`
	MarketCapChangePercentage24hUSD float64                    `json:"market_cap_change_percentage_24h_usd"`
	UpdatedAt                       int64                      `json:"updated_at"`
}

// Category is a row of /coins/categories.
type Category struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	MarketCap          decimal.Decimal `json:"market_cap"`
	MarketCapChange24h float64         `json:"market_cap_change_24h"`
	Volume24h          decimal.Decimal `json:"volume_24h"`
	Top3Coins          []string        `json:"top_3_coins"`
	UpdatedAt          string          `json:"updated_at"`
}

// Exchange is a row of /exchanges.
type Exchange struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	YearEstablished   int     `json:"year_established"`
	Country           string  `json:"country"`
	URL               string  `json:"url"`
	Image             string  `json:"image"`
	TrustScore        int     `json:"trust_score"`
	TrustScoreRank    int     `json:"trust_score_rank"`
	TradeVolume24hBTC float64 `json:"trade_volume_24h_btc"`
}
