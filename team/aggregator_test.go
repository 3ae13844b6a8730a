package team

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/crewkit/crew/core"
)

func structuredResult(agent, payload string) core.Result {
	return core.Result{Agent: agent, Valid: true, Value: json.RawMessage(payload)}
}

func TestAggregateSingleFreeText(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("EventTeam", PolicyRoute, []core.Result{
		{Agent: "Meetup Agent", Valid: true, Raw: "Found one event."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Found one event.", tr.Text())
	assert.Equal(t, []string{"Meetup Agent"}, tr.Contributors)
	assert.Equal(t, PolicyRoute, tr.Policy)

	var s string
	require.NoError(t, tr.Decode(&s))
	assert.Equal(t, "Found one event.", s)
}

func TestAggregateMultipleFreeTexts(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("ResearchTeam", PolicyCollaborate, []core.Result{
		{Agent: "Searcher", Valid: true, Raw: "Three options found."},
		{Agent: "Critic", Valid: true, Raw: "Option two is best."},
	})
	require.NoError(t, err)
	assert.Contains(t, tr.Raw, "## Searcher")
	assert.Contains(t, tr.Raw, "## Critic")
	assert.Contains(t, tr.Raw, "Option two is best.")
	assert.Equal(t, []string{"Searcher", "Critic"}, tr.Contributors)
}

func TestAggregateStructuredDefaults(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("EventTeam", PolicyCoordinate, []core.Result{
		structuredResult("A", `{"platform":"eventbrite","events_found":2,"events":["a1","a2"]}`),
		structuredResult("B", `{"platform":"meetup","events_found":1,"events":["b1"]}`),
	})
	require.NoError(t, err)

	payload := string(tr.Value)
	// arrays concatenate in contributor order
	events := gjson.Get(payload, "events").Array()
	require.Len(t, events, 3)
	assert.Equal(t, "a1", events[0].String())
	assert.Equal(t, "b1", events[2].String())
	// scalars keep the first contributor's value
	assert.Equal(t, "eventbrite", gjson.Get(payload, "platform").String())
	assert.Equal(t, int64(2), gjson.Get(payload, "events_found").Int())
}

func TestAggregateSumRule(t *testing.T) {
	agg := NewAggregator(func(o *AggregatorOptions) {
		o.Rules = []MergeRule{{Field: "events_found", Strategy: MergeSum}}
	})

	tr, err := agg.Aggregate("EventTeam", PolicyCoordinate, []core.Result{
		structuredResult("A", `{"events_found":2}`),
		structuredResult("B", `{"events_found":3}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), gjson.GetBytes(tr.Value, "events_found").Int())
}

func TestAggregateDropsInvalid(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("EventTeam", PolicyCoordinate, []core.Result{
		structuredResult("A", `{"events":["a1"]}`),
		{Agent: "B", Valid: false, Raw: "garbled"},
		structuredResult("C", `{"events":["c1"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, tr.Contributors)
	assert.Len(t, gjson.GetBytes(tr.Value, "events").Array(), 2)
}

func TestAggregateNoValidResults(t *testing.T) {
	agg := NewAggregator()

	_, err := agg.Aggregate("EventTeam", PolicyCollaborate, []core.Result{
		{Agent: "A", Valid: false},
		{Agent: "B", Valid: false},
	})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindNoValidResult))
}

func TestAggregateRequireAll(t *testing.T) {
	agg := NewAggregator(func(o *AggregatorOptions) {
		o.RequireAll = true
	})

	_, err := agg.Aggregate("EventTeam", PolicyCollaborate, []core.Result{
		structuredResult("A", `{"x":1}`),
		{Agent: "B", Valid: false},
	})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindNoValidResult))
}

func TestAggregateDottedFieldNames(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("EventTeam", PolicyCollaborate, []core.Result{
		structuredResult("A", `{"events.by_source":["a1"],"meta.note":"first"}`),
		structuredResult("B", `{"events.by_source":["b1"],"meta.note":"second"}`),
	})
	require.NoError(t, err)

	// dotted keys stay literal top-level fields, never nested objects
	var merged map[string]any
	require.NoError(t, json.Unmarshal(tr.Value, &merged))
	assert.NotContains(t, merged, "events")
	assert.NotContains(t, merged, "meta")
	assert.Equal(t, []any{"a1", "b1"}, merged["events.by_source"])
	assert.Equal(t, "first", merged["meta.note"])
}

func TestAggregateFieldAppearsLater(t *testing.T) {
	agg := NewAggregator()

	tr, err := agg.Aggregate("EventTeam", PolicyCoordinate, []core.Result{
		structuredResult("A", `{"events":["a1"]}`),
		structuredResult("B", `{"events":["b1"],"summary":"two events"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "two events", gjson.GetBytes(tr.Value, "summary").String())
}
