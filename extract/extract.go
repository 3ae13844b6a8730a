// Package extract turns a free-text request into a typed core.Intent using an
// ordered table of recognition patterns. Extraction is pure, total and
// deterministic: patterns are tried in declared priority order, the first
// match wins per field, and a field with no match silently takes its declared
// default (which Intent records as non-explicit).
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crewkit/crew/core"
)

// qualifiers the original request phrasing wedges between the count and the
// noun, e.g. "find 3 professional tech events".
const qualifiers = `(?:professional\s+)?(?:tech\s+)?(?:social\s+)?`

// countPatterns recognize an explicit result count. Order is priority order;
// only the first successful match counts, so a request with several numbers
// never yields an ambiguous extraction. All patterns are case-insensitive and
// match fragments, never the whole request.
var countPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)find\s+(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
	regexp.MustCompile(`(?i)get\s+(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
	regexp.MustCompile(`(?i)show\s+me\s+(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
	regexp.MustCompile(`(?i)search\s+for\s+(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
	regexp.MustCompile(`(?i)extract\s+(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
	regexp.MustCompile(`(?i)max[_\s]events?:\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+` + qualifiers + `(?:events?|meetups?|parties?)`),
}

var (
	platformPattern = regexp.MustCompile(`(?i)\b(?:on\s+)?(eventbrite|meetup\.?com|meetups?|linkedin|facebook)\b`)
	// Location keeps its case sensitivity so trailing lowercase words
	// ("in New York this weekend") stay out of the capture.
	locationPattern = regexp.MustCompile(`\b(?:in|near)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	datePattern     = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|this\s+week(?:end)?|next\s+week(?:end)?|this\s+month|next\s+month)\b`)
)

// categoryKeywords map request phrasing to a category tag, tried in order.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"conference", "professional"},
	{"webinar", "professional"},
	{"workshop", "professional"},
	{"networking", "professional"},
	{"business", "professional"},
	{"professional", "professional"},
	{"meetup", "community"},
	{"community", "community"},
	{"party", "social"},
	{"parties", "social"},
	{"concert", "social"},
	{"festival", "social"},
	{"social", "social"},
	{"tech", "tech"},
}

// Extractor derives the typed intent of a request. The zero value is not
// usable; construct with New, which wires the declared defaults.
type Extractor struct {
	defaultResultCount int
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithDefaultResultCount overrides the declared result-count default.
func WithDefaultResultCount(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.defaultResultCount = n
		}
	}
}

// New constructs an Extractor with the declared defaults.
func New(opts ...Option) *Extractor {
	e := &Extractor{defaultResultCount: core.DefaultResultCount}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract scans the request against the pattern table and returns the intent.
// It never fails: absent matches yield defaults, recorded as non-explicit.
func (e *Extractor) Extract(request string) core.Intent {
	intent := core.NewIntent()
	intent.ResultCount = e.defaultResultCount

	for _, p := range countPatterns {
		if m := p.FindStringSubmatch(request); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				intent.ResultCount = n
				intent.MarkExplicit(core.FieldResultCount)
				break
			}
		}
	}

	if m := platformPattern.FindStringSubmatch(request); m != nil {
		intent.Platform = canonicalPlatform(m[1])
		intent.MarkExplicit(core.FieldPlatform)
	}

	if m := locationPattern.FindStringSubmatch(request); m != nil {
		intent.Location = strings.TrimSpace(m[1])
		intent.MarkExplicit(core.FieldLocation)
	}

	if m := datePattern.FindStringSubmatch(request); m != nil {
		intent.DateRange = strings.ToLower(collapseSpaces(m[1]))
		intent.MarkExplicit(core.FieldDateRange)
	}

	lower := strings.ToLower(request)
	for _, ck := range categoryKeywords {
		if strings.Contains(lower, ck.keyword) {
			intent.Category = ck.category
			intent.MarkExplicit(core.FieldCategory)
			break
		}
	}

	return intent
}

func canonicalPlatform(raw string) string {
	p := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(p, "meetup"):
		return "meetup"
	default:
		return p
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
