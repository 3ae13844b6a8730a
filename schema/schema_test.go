package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventAnalysis struct {
	Platform        string   `json:"platform"`
	EventsFound     int      `json:"events_found"`
	Events          []string `json:"events"`
	PlatformSummary string   `json:"platform_summary"`
	Price           *string  `json:"price,omitempty"`
}

func TestDefine(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})
	assert.Equal(t, "event_analysis", def.Name())

	byName := map[string]Field{}
	for _, f := range def.Fields() {
		byName[f.Name] = f
	}
	assert.Contains(t, byName, "platform")
	assert.Contains(t, byName, "events_found")
	assert.Contains(t, byName, "events")

	assert.Equal(t, TypeString, byName["platform"].Type)
	assert.Equal(t, TypeInteger, byName["events_found"].Type)
	assert.Equal(t, TypeArray, byName["events"].Type)

	assert.True(t, byName["platform"].Required)
	assert.False(t, byName["price"].Required)
}

func TestCoerce_Valid(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	payload, err := def.Coerce(`{"platform":"meetup","events_found":2,"events":["a","b"],"platform_summary":"ok"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"platform":"meetup","events_found":2,"events":["a","b"],"platform_summary":"ok"}`, string(payload))
}

func TestCoerce_StripsProseAndFences(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	raw := "Here are the results:\n```json\n{\"platform\":\"meetup\",\"events_found\":1,\"events\":[\"a\"],\"platform_summary\":\"s\"}\n```\nLet me know if you need more."
	payload, err := def.Coerce(raw)
	require.NoError(t, err)
	assert.Equal(t, "meetup", mustField(t, payload, "platform"))
}

func TestCoerce_MissingRequiredField(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	_, err := def.Coerce(`{"platform":"meetup"}`)
	require.Error(t, err)
	v, ok := err.(*Violation)
	require.True(t, ok, "expected *Violation, got %T", err)
	assert.Equal(t, "events_found", v.Field)
}

func TestCoerce_WrongType(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	_, err := def.Coerce(`{"platform":"meetup","events_found":"two","events":[],"platform_summary":"s"}`)
	require.Error(t, err)
	v, ok := err.(*Violation)
	require.True(t, ok)
	assert.Equal(t, "events_found", v.Field)
	assert.Contains(t, v.Message, "integer")
}

func TestCoerce_NotJSON(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	_, err := def.Coerce("I could not find any events, sorry.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid JSON")
}

func TestDecode(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})

	payload, err := def.Coerce(`{"platform":"eventbrite","events_found":1,"events":["x"],"platform_summary":"s"}`)
	require.NoError(t, err)

	var out eventAnalysis
	require.NoError(t, def.Decode(payload, &out))
	assert.Equal(t, "eventbrite", out.Platform)
	assert.Equal(t, 1, out.EventsFound)
}

func TestPromptInstructions(t *testing.T) {
	def := Define("event_analysis", &eventAnalysis{})
	inst := def.PromptInstructions()
	assert.Contains(t, inst, "platform (string, required)")
	assert.Contains(t, inst, "events (array")
}

func TestExtractJSON_NoObject(t *testing.T) {
	assert.Empty(t, ExtractJSON("no braces here"))
}

func mustField(t *testing.T, payload []byte, name string) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))
	s, _ := m[name].(string)
	return s
}
