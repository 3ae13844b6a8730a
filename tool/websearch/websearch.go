// Package websearch provides a web search tool backed by the DuckDuckGo
// HTML endpoint. Results are scraped with goquery and returned as a list
// of title / URL / snippet entries.
package websearch

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Options configure the web search tool.
type Options struct {
	BaseURL    string
	UserAgent  string
	MaxResults int
	HTTPClient *http.Client
}

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type searchArgs struct {
	Query      string `json:"query" jsonschema:"description=The search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results to return"`
}

// New creates the search tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		BaseURL:    defaultBaseURL,
		UserAgent:  defaultUserAgent,
		MaxResults: 10,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"web_search",
		"Search the web and return a list of results with title, URL and snippet",
		searchArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			max := opts.MaxResults
			if v, ok := args["max_results"].(float64); ok && int(v) > 0 {
				max = int(v)
			}
			results, err := search(toolCtx, opts, query, max)
			if err != nil {
				return nil, err
			}
			return map[string]any{"results": results}, nil
		},
	)
}

func search(toolCtx *core.ToolContext, opts Options, query string, max int) ([]Result, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(
		toolCtx.Context(),
		http.MethodPost,
		opts.BaseURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	return Parse(doc, max), nil
}

// Parse extracts search results from a DuckDuckGo HTML results document.
func Parse(doc *goquery.Document, max int) []Result {
	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			URL:     cleanURL(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return len(results) < max
	})
	return results
}

// cleanURL unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<encoded>.
func cleanURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		u.Scheme = "https"
		return u.String()
	}
	return href
}
