// Package webscraper provides a tool that fetches a web page, strips
// navigation chrome and converts the main content to markdown.
package webscraper

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/tool"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Options configure the scraper tool.
type Options struct {
	UserAgent  string
	MaxBytes   int64
	HTTPClient *http.Client
}

// Metadata describes the scraped page.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

type scrapeArgs struct {
	URL string `json:"url" jsonschema:"description=URL of the web page to scrape"`
}

// New creates the scraper tool.
func New(optFns ...func(o *Options)) tool.Tool {
	opts := Options{
		UserAgent:  defaultUserAgent,
		MaxBytes:   1_000_000,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return tool.NewFunctionToolFromStruct(
		"scrape_webpage",
		"Fetch a web page and return its main content as markdown together with page metadata",
		scrapeArgs{},
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			rawURL, _ := args["url"].(string)
			return scrape(toolCtx, opts, rawURL)
		},
	)
}

func scrape(toolCtx *core.ToolContext, opts Options, rawURL string) (any, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(toolCtx.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed with status %d", resp.StatusCode)
	}
	if resp.ContentLength > opts.MaxBytes {
		return nil, fmt.Errorf("content length %d exceeds maximum of %d bytes", resp.ContentLength, opts.MaxBytes)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(
		mainContent(doc),
		converter.WithDomain(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)),
	)
	if err != nil {
		return nil, err
	}

	meta := extractMetadata(doc)
	meta.Domain = parsed.Host

	return map[string]any{
		"content":  CleanMarkdown(markdown),
		"metadata": meta,
	}, nil
}

// mainContent strips chrome elements and returns the HTML of the most
// article-like container.
func mainContent(doc *goquery.Document) string {
	for _, tag := range []string{"script", "style", "nav", "header", "footer"} {
		doc.Find(tag).Remove()
	}
	for _, selector := range []string{"main", "article", "#content", ".content", "body"} {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			if html, err := sel.Html(); err == nil && strings.TrimSpace(html) != "" {
				return html
			}
		}
	}
	html, _ := doc.Html()
	return html
}

func extractMetadata(doc *goquery.Document) *Metadata {
	meta := &Metadata{Title: strings.TrimSpace(doc.Find("head title").Text())}
	meta.Description, _ = doc.Find("meta[name='description']").Attr("content")
	meta.Author, _ = doc.Find("meta[name='author']").Attr("content")
	meta.SiteName, _ = doc.Find("meta[property='og:site_name']").Attr("content")
	return meta
}

var blankLines = regexp.MustCompile(`\r?\n{2,}`)

// CleanMarkdown collapses repeated blank lines and trims trailing
// whitespace from every line.
func CleanMarkdown(content string) string {
	content = blankLines.ReplaceAllString(content, "\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
