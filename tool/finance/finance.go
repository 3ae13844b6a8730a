// Package finance provides a stock quote tool backed by the Yahoo
// Finance chart API.
package finance

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// Options configure the finance tool.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Quote is a snapshot of a traded symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Currency      string  `json:"currency,omitempty"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Exchange      string  `json:"exchange,omitempty"`
}

type quoteArgs struct {
	Symbol string `json:"symbol" jsonschema:"description=Ticker symbol, e.g. 'AAPL'"`
}

// New creates the stock quote tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"stock_quote",
		"Get the current price and daily change for a stock ticker symbol",
		quoteArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			symbol, _ := args["symbol"].(string)
			return fetchQuote(toolCtx, opts, symbol)
		},
	)
}

func fetchQuote(toolCtx *core.ToolContext, opts Options, symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol must not be empty")
	}

	req, err := http.NewRequestWithContext(
		toolCtx.Context(),
		http.MethodGet,
		opts.BaseURL+url.PathEscape(symbol),
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "crew/1.0")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote request for %q failed with status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	return ParseQuote(body)
}

// ParseQuote extracts a Quote from a Yahoo Finance chart API response.
func ParseQuote(body []byte) (*Quote, error) {
	if msg := gjson.GetBytes(body, "chart.error.description"); msg.Exists() {
		return nil, fmt.Errorf("quote lookup failed: %s", msg.String())
	}

	meta := gjson.GetBytes(body, "chart.result.0.meta")
	if !meta.Exists() {
		return nil, fmt.Errorf("malformed quote response: missing chart metadata")
	}

	q := &Quote{
		Symbol:        meta.Get("symbol").String(),
		Currency:      meta.Get("currency").String(),
		Price:         meta.Get("regularMarketPrice").Float(),
		PreviousClose: meta.Get("chartPreviousClose").Float(),
		Exchange:      meta.Get("exchangeName").String(),
	}
	if q.PreviousClose != 0 {
		q.Change = q.Price - q.PreviousClose
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
	return q, nil
}
