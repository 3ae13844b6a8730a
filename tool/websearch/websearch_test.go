package websearch

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
  <div class="result__snippet">Build simple, secure, scalable systems.</div>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/doc/">Documentation</a>
  <div class="result__snippet">Get started with Go.</div>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/blog/">The Go Blog</a>
</div>
</body></html>`

func TestParse(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	require.NoError(t, err)

	results := Parse(doc, 10)
	require.Len(t, results, 3)

	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev/", results[0].URL)
	assert.Equal(t, "Build simple, secure, scalable systems.", results[0].Snippet)

	assert.Equal(t, "https://go.dev/doc/", results[1].URL)
	assert.Empty(t, results[2].Snippet)
}

func TestParseRespectsMax(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resultsPage))
	require.NoError(t, err)

	results := Parse(doc, 1)
	assert.Len(t, results, 1)
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://go.dev/", cleanURL("//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F"))
	assert.Equal(t, "https://example.com", cleanURL("https://example.com"))
	assert.Equal(t, "https://example.com/page", cleanURL("//example.com/page"))
}
