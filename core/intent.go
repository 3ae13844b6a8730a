package core

// IntentField names one recognized parameter of a request.
type IntentField string

const (
	// FieldResultCount is the requested number of results.
	FieldResultCount IntentField = "result_count"
	// FieldLocation is the geographic focus of the request.
	FieldLocation IntentField = "location"
	// FieldCategory is the requested event or topic category.
	FieldCategory IntentField = "category"
	// FieldDateRange is the requested time window.
	FieldDateRange IntentField = "date_range"
	// FieldPlatform is an explicit platform preference.
	FieldPlatform IntentField = "platform"
)

// DefaultResultCount is used when a request names no result count.
const DefaultResultCount = 1

// Intent is the typed view of a free-text request produced by the parameter
// extractor. It is created once per run and never mutated afterwards. A field
// holding its default is distinguishable from one the extractor matched via
// Explicit, so callers and tests can tell "defaulted" from "requested".
type Intent struct {
	ResultCount int
	Location    string
	Category    string
	DateRange   string
	Platform    string

	explicit map[IntentField]bool
}

// NewIntent returns an Intent populated with declared defaults and no
// explicit fields.
func NewIntent() Intent {
	return Intent{
		ResultCount: DefaultResultCount,
		explicit:    map[IntentField]bool{},
	}
}

// MarkExplicit records that a field value came from a pattern match rather
// than a default. It is called by the extractor during construction only.
func (i *Intent) MarkExplicit(f IntentField) {
	if i.explicit == nil {
		i.explicit = map[IntentField]bool{}
	}
	i.explicit[f] = true
}

// Explicit reports whether the field was matched in the request text, as
// opposed to carrying its declared default.
func (i Intent) Explicit(f IntentField) bool { return i.explicit[f] }

// Fields returns the intent as a flat map, e.g. for prompt templating or
// structured logging. Only non-zero fields are included besides ResultCount,
// which is always present.
func (i Intent) Fields() map[IntentField]any {
	m := map[IntentField]any{FieldResultCount: i.ResultCount}
	if i.Location != "" {
		m[FieldLocation] = i.Location
	}
	if i.Category != "" {
		m[FieldCategory] = i.Category
	}
	if i.DateRange != "" {
		m[FieldDateRange] = i.DateRange
	}
	if i.Platform != "" {
		m[FieldPlatform] = i.Platform
	}
	return m
}
