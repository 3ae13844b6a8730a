package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crew/core"
)

func eventRoster() []core.Descriptor {
	return []core.Descriptor{
		{Name: "Eventbrite Agent", Role: "a ticketed event specialist", Capabilities: []string{"eventbrite", "professional"}},
		{Name: "Meetup Agent", Role: "a community meetup specialist", Capabilities: []string{"meetup", "community"}},
		{Name: "Facebook Agent", Role: "a social event specialist", Capabilities: []string{"facebook", "social"}},
	}
}

func TestRoutePolicyKeywordMatch(t *testing.T) {
	p := &RoutePolicy{
		Rules: []RouteRule{
			{Agent: "Eventbrite Agent", Keywords: []string{"conference", "ticket"}},
			{Agent: "Meetup Agent", Keywords: []string{"meetup"}},
		},
	}

	plan, err := p.Plan("find tech meetups in Austin", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, PolicyRoute, plan.Policy)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "Meetup Agent", plan.Assignments[0].Agent)
	assert.Equal(t, "find tech meetups in Austin", plan.Assignments[0].SubRequest)
}

func TestRoutePolicyFirstRuleWins(t *testing.T) {
	p := &RoutePolicy{
		Rules: []RouteRule{
			{Agent: "Eventbrite Agent", Keywords: []string{"events"}},
			{Agent: "Meetup Agent", Keywords: []string{"events"}},
		},
	}

	plan, err := p.Plan("any events this week?", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, "Eventbrite Agent", plan.Assignments[0].Agent)
}

func TestRoutePolicyPlatformIntentWinsOverRules(t *testing.T) {
	p := &RoutePolicy{
		Rules: []RouteRule{
			{Agent: "Eventbrite Agent", Keywords: []string{"events"}},
		},
	}

	intent := core.NewIntent()
	intent.Platform = "facebook"
	intent.MarkExplicit(core.FieldPlatform)

	plan, err := p.Plan("find events on facebook", intent, eventRoster())
	require.NoError(t, err)
	assert.Equal(t, "Facebook Agent", plan.Assignments[0].Agent)
}

func TestRoutePolicyDefault(t *testing.T) {
	p := &RoutePolicy{Default: "Meetup Agent"}

	plan, err := p.Plan("something unrelated", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, "Meetup Agent", plan.Assignments[0].Agent)
}

func TestRoutePolicyNoMatch(t *testing.T) {
	p := &RoutePolicy{
		Rules: []RouteRule{{Agent: "Eventbrite Agent", Keywords: []string{"conference"}}},
	}

	_, err := p.Plan("unrouteable request", core.NewIntent(), eventRoster())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindNoRouteMatch))
}

func TestRoutePolicyDeterministic(t *testing.T) {
	p := &RoutePolicy{
		Rules: []RouteRule{
			{Agent: "Eventbrite Agent", Keywords: []string{"conference"}},
			{Agent: "Meetup Agent", Keywords: []string{"meetup"}},
		},
		Default: "Facebook Agent",
	}

	for i := 0; i < 10; i++ {
		plan, err := p.Plan("tech conference and meetup", core.NewIntent(), eventRoster())
		require.NoError(t, err)
		assert.Equal(t, "Eventbrite Agent", plan.Assignments[0].Agent)
	}
}

func TestCollaboratePolicy(t *testing.T) {
	p := &CollaboratePolicy{}

	plan, err := p.Plan("research thai restaurants", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, PolicyCollaborate, plan.Policy)
	require.Len(t, plan.Assignments, 3)
	assert.Equal(t, []string{"Eventbrite Agent", "Meetup Agent", "Facebook Agent"}, plan.Selected())
	for _, as := range plan.Assignments {
		assert.Equal(t, "research thai restaurants", as.SubRequest)
	}
}

func TestCollaboratePolicyEmptyRoster(t *testing.T) {
	p := &CollaboratePolicy{}
	_, err := p.Plan("anything", core.NewIntent(), nil)
	assert.Error(t, err)
}

func TestCoordinatePolicyFullRoster(t *testing.T) {
	p := &CoordinatePolicy{}

	plan, err := p.Plan("plan a thai dinner", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, PolicyCoordinate, plan.Policy)
	require.Len(t, plan.Assignments, 3)

	first := plan.Assignments[0]
	assert.Contains(t, first.SubRequest, "a ticketed event specialist")
	assert.Contains(t, first.SubRequest, "plan a thai dinner")
	assert.NotEqual(t, "plan a thai dinner", first.SubRequest)
}

func TestCoordinatePolicyCapabilityFilter(t *testing.T) {
	p := &CoordinatePolicy{Capabilities: []string{"community", "social"}}

	plan, err := p.Plan("plan something", core.NewIntent(), eventRoster())
	require.NoError(t, err)
	assert.Equal(t, []string{"Meetup Agent", "Facebook Agent"}, plan.Selected())
}

func TestCoordinatePolicyNoAgentsSelected(t *testing.T) {
	p := &CoordinatePolicy{Capabilities: []string{"nonexistent"}}
	_, err := p.Plan("plan something", core.NewIntent(), eventRoster())
	assert.Error(t, err)
}
