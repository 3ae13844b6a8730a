package team

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/crewkit/crew/core"
)

// MergeStrategy decides how a field is combined across agent results.
type MergeStrategy string

const (
	// MergeKeepFirst keeps the value from the first contributing agent.
	MergeKeepFirst MergeStrategy = "keep_first"
	// MergeConcat appends array elements in contributor order.
	MergeConcat MergeStrategy = "concat"
	// MergeSum adds numeric values.
	MergeSum MergeStrategy = "sum"
)

// MergeRule overrides the default strategy for one top-level field.
type MergeRule struct {
	Field    string
	Strategy MergeStrategy
}

// AggregatorOptions configure result aggregation.
type AggregatorOptions struct {
	// Rules override the per-field defaults (arrays concatenate, numbers
	// and everything else keep the first contributor's value).
	Rules []MergeRule

	// RequireAll fails the run when any agent result is missing or
	// invalid, instead of aggregating the valid subset.
	RequireAll bool
}

// Aggregator merges per-agent results into a single TeamResult. Merging is
// pure data-plane work: no model call, no re-interpretation of content.
type Aggregator struct {
	opts AggregatorOptions
}

// NewAggregator creates an aggregator.
func NewAggregator(optFns ...func(o *AggregatorOptions)) *Aggregator {
	opts := AggregatorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Aggregator{opts: opts}
}

// Aggregate merges results in contributor order. Invalid results are
// dropped (unless RequireAll is set); aggregation over zero valid results
// fails with ErrorKindNoValidResult.
func (a *Aggregator) Aggregate(component, policy string, results []core.Result) (core.TeamResult, error) {
	expected := len(results)

	valid := make([]core.Result, 0, len(results))
	for _, r := range results {
		if r.Valid {
			valid = append(valid, r)
		}
	}

	if len(valid) == 0 {
		return core.TeamResult{}, core.Errorf(core.ErrorKindNoValidResult, component,
			"no valid agent results to aggregate (%d attempted)", expected)
	}
	if a.opts.RequireAll && len(valid) < expected {
		return core.TeamResult{}, core.Errorf(core.ErrorKindNoValidResult, component,
			"%d of %d agent results missing and aggregation requires all", expected-len(valid), expected)
	}

	contributors := make([]string, len(valid))
	structured := true
	for i, r := range valid {
		contributors[i] = r.Agent
		if len(r.Value) == 0 {
			structured = false
		}
	}

	tr := core.TeamResult{
		Contributors: contributors,
		Policy:       policy,
	}

	if !structured {
		tr.Raw = concatTexts(valid)
		value, err := json.Marshal(tr.Raw)
		if err != nil {
			return core.TeamResult{}, err
		}
		tr.Value = value
		return tr, nil
	}

	merged, err := a.mergeStructured(valid)
	if err != nil {
		return core.TeamResult{}, core.NewError(core.ErrorKindNoValidResult, component, err)
	}
	tr.Value = merged
	return tr, nil
}

// concatTexts renders free-text results; a single contributor passes
// through untouched, multiple are sectioned by agent name.
func concatTexts(results []core.Result) string {
	if len(results) == 1 {
		return results[0].Text()
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", r.Agent, r.Text())
	}
	return b.String()
}

// mergeStructured folds the structured payloads left to right.
func (a *Aggregator) mergeStructured(results []core.Result) (json.RawMessage, error) {
	merged := string(results[0].Value)
	for _, r := range results[1:] {
		next, err := a.mergePair(merged, string(r.Value))
		if err != nil {
			return nil, fmt.Errorf("merging result from %s: %w", r.Agent, err)
		}
		merged = next
	}
	return json.RawMessage(merged), nil
}

func (a *Aggregator) mergePair(base, overlay string) (string, error) {
	var mergeErr error
	gjson.Parse(overlay).ForEach(func(key, value gjson.Result) bool {
		field := key.String()
		path := escapePath(field)
		existing := gjson.Get(base, path)

		var err error
		switch a.strategyFor(field, existing, value) {
		case MergeConcat:
			base, err = concatField(base, path, existing, value)
		case MergeSum:
			base, err = sjson.Set(base, path, existing.Float()+value.Float())
		default: // MergeKeepFirst
			if !existing.Exists() {
				base, err = sjson.SetRaw(base, path, value.Raw)
			}
		}
		if err != nil {
			mergeErr = err
			return false
		}
		return true
	})
	return base, mergeErr
}

// escapePath makes a literal object key addressable as a gjson/sjson path,
// so keys containing path syntax ("a.b", "x*") stay flat fields instead of
// being interpreted as nested paths or wildcards.
func escapePath(key string) string {
	if !strings.ContainsAny(key, `.*?|#@\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// strategyFor picks the configured rule for the field, falling back to
// concat for arrays and keep-first for everything else.
func (a *Aggregator) strategyFor(field string, existing, incoming gjson.Result) MergeStrategy {
	for _, rule := range a.opts.Rules {
		if rule.Field == field {
			return rule.Strategy
		}
	}
	if incoming.IsArray() && (!existing.Exists() || existing.IsArray()) {
		return MergeConcat
	}
	return MergeKeepFirst
}

// concatField appends incoming array elements; path must already be escaped.
func concatField(base, path string, existing, incoming gjson.Result) (string, error) {
	if !existing.Exists() {
		return sjson.SetRaw(base, path, incoming.Raw)
	}
	out := base
	var err error
	incoming.ForEach(func(_, element gjson.Result) bool {
		out, err = sjson.SetRaw(out, path+".-1", element.Raw)
		return err == nil
	})
	return out, err
}
