package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/logging"
)

const chartResponse = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "AAPL",
        "currency": "USD",
        "exchangeName": "NMS",
        "regularMarketPrice": 210.5,
        "chartPreviousClose": 200.0
      }
    }],
    "error": null
  }
}`

func TestParseQuote(t *testing.T) {
	q, err := ParseQuote([]byte(chartResponse))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, 210.5, q.Price)
	assert.InDelta(t, 10.5, q.Change, 1e-9)
	assert.InDelta(t, 5.25, q.ChangePercent, 1e-9)
}

func TestParseQuoteError(t *testing.T) {
	_, err := ParseQuote([]byte(`{"chart":{"result":null,"error":{"description":"No data found"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")

	_, err = ParseQuote([]byte(`{}`))
	require.Error(t, err)
}

func TestStockQuoteTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		w.Write([]byte(chartResponse))
	}))
	defer srv.Close()

	quote := New(func(o *Options) {
		o.BaseURL = srv.URL + "/"
	})

	runCtx := core.NewRunContext(context.Background(), "run-1", "quote", core.NewIntent(), nil, logging.NoOpLogger{})
	toolCtx := core.NewToolContext(runCtx, "fc-1")

	result, err := quote.Call(toolCtx, map[string]any{"symbol": "AAPL"})
	require.NoError(t, err)

	q := result.(*Quote)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 210.5, q.Price)
}

func TestStockQuoteToolEmptySymbol(t *testing.T) {
	quote := New()

	runCtx := core.NewRunContext(context.Background(), "run-1", "quote", core.NewIntent(), nil, logging.NoOpLogger{})
	toolCtx := core.NewToolContext(runCtx, "fc-1")

	_, err := quote.Call(toolCtx, map[string]any{"symbol": ""})
	require.Error(t, err)
}
