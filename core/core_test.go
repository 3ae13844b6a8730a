package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentDefaults(t *testing.T) {
	in := NewIntent()
	assert.Equal(t, DefaultResultCount, in.ResultCount)
	assert.False(t, in.Explicit(FieldResultCount))

	in.ResultCount = 3
	in.MarkExplicit(FieldResultCount)
	assert.True(t, in.Explicit(FieldResultCount))
	assert.False(t, in.Explicit(FieldLocation))
}

func TestIntentFields(t *testing.T) {
	in := NewIntent()
	in.Location = "New York"
	m := in.Fields()
	assert.Equal(t, DefaultResultCount, m[FieldResultCount])
	assert.Equal(t, "New York", m[FieldLocation])
	assert.NotContains(t, m, FieldPlatform)
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrorKindBackendUnavailable, "Meetup Agent", cause)

	assert.True(t, IsKind(err, ErrorKindBackendUnavailable))
	assert.False(t, IsKind(err, ErrorKindSchemaViolation))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Meetup Agent")

	wrapped := fmt.Errorf("run failed: %w", err)
	assert.True(t, IsKind(wrapped, ErrorKindBackendUnavailable))
}

func TestDescriptorHasCapability(t *testing.T) {
	d := Descriptor{Name: "Meetup Agent", Capabilities: []string{"meetup", "community"}}
	assert.True(t, d.HasCapability("meetup"))
	assert.False(t, d.HasCapability("linkedin"))
}

func TestAgentErrorEventCarriesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Errorf(ErrorKindSchemaViolation, "A", "bad output"))
	ev := NewAgentErrorEvent("run1", "A", err)
	assert.Equal(t, string(ErrorKindSchemaViolation), ev.ErrorKind)
	assert.Equal(t, EventAgentError, ev.Type)
}

func TestRunContextBranchIsolation(t *testing.T) {
	rc := NewRunContext(context.Background(), "run1", "find events", NewIntent(), nil, nil)
	child := rc.WithBranch("Team.Agent", "focus on venues: find events")

	assert.Equal(t, "find events", rc.SubRequest)
	assert.Equal(t, "focus on venues: find events", child.SubRequest)
	assert.Equal(t, "Team.Agent", child.Branch)
	assert.Empty(t, rc.Branch)
}

func TestRunContextEmit(t *testing.T) {
	ch := make(chan Event, 1)
	rc := NewRunContext(context.Background(), "run1", "req", NewIntent(), ch, nil)

	require.NoError(t, rc.EmitEvent(NewAgentStartedEvent("run1", "A", "req")))
	ev := <-ch
	assert.Equal(t, EventAgentStarted, ev.Type)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	rc2 := NewRunContext(cancelled, "run1", "req", NewIntent(), make(chan Event), nil)
	assert.Error(t, rc2.EmitEvent(NewAgentStartedEvent("run1", "A", "req")))
}

func TestResultText(t *testing.T) {
	r := Result{Raw: "plain"}
	assert.Equal(t, "plain", r.Text())
	r.Value = []byte(`{"a":1}`)
	assert.Equal(t, `{"a":1}`, r.Text())
}
