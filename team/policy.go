// Package team orchestrates a roster of agents behind a single entry point:
// a dispatch policy decides which agents handle a request, the agents run
// concurrently on isolated context branches and an aggregator merges their
// results into one team result.
package team

import (
	"fmt"
	"strings"

	"github.com/crewkit/crew/core"
)

// Dispatch policy names as they appear in plans, events and results.
const (
	PolicyRoute       = "route"
	PolicyCollaborate = "collaborate"
	PolicyCoordinate  = "coordinate"
)

// Assignment pairs an agent with the request text it should answer.
type Assignment struct {
	// Agent is the roster name of the selected agent.
	Agent string
	// SubRequest is the request handed to the agent; equals the original
	// request except under coordinate dispatch.
	SubRequest string
}

// Plan is a dispatch decision: the policy that produced it and the ordered
// assignments to execute. Assignment order follows roster declaration order.
type Plan struct {
	Policy      string
	Assignments []Assignment
}

// Selected returns the assigned agent names in order.
func (p Plan) Selected() []string {
	names := make([]string, len(p.Assignments))
	for i, a := range p.Assignments {
		names[i] = a.Agent
	}
	return names
}

// Policy decides which agents handle a request. Planning is deterministic:
// the same request, intent and roster always produce the same plan. The
// model is never consulted.
type Policy interface {
	// Name returns the policy identifier recorded in plans and events.
	Name() string

	// Plan selects agents for the request. An empty plan is an error;
	// policies either assign at least one agent or fail.
	Plan(request string, intent core.Intent, roster []core.Descriptor) (Plan, error)
}

// RouteRule binds a set of trigger keywords to one agent. Matching is
// case-insensitive substring containment against the request text.
type RouteRule struct {
	Agent    string
	Keywords []string
}

// RoutePolicy selects exactly one agent per request. Selection order:
//
//  1. an explicit platform preference in the intent, matched against
//     roster capability tags
//  2. the first rule (in declaration order) with a matching keyword
//  3. the configured default agent
//
// A request matching none of these fails with ErrorKindNoRouteMatch.
type RoutePolicy struct {
	// Rules are evaluated in order; the first match wins.
	Rules []RouteRule

	// Default names the fallback agent. Empty means no fallback.
	Default string
}

// Name implements the Policy interface.
func (p *RoutePolicy) Name() string { return PolicyRoute }

// Plan implements the Policy interface.
func (p *RoutePolicy) Plan(request string, intent core.Intent, roster []core.Descriptor) (Plan, error) {
	if agent, ok := p.selectAgent(request, intent, roster); ok {
		return Plan{
			Policy:      PolicyRoute,
			Assignments: []Assignment{{Agent: agent, SubRequest: request}},
		}, nil
	}
	return Plan{}, core.Errorf(core.ErrorKindNoRouteMatch, PolicyRoute,
		"no routing rule matches request and no default agent is configured")
}

func (p *RoutePolicy) selectAgent(request string, intent core.Intent, roster []core.Descriptor) (string, bool) {
	if intent.Explicit(core.FieldPlatform) {
		tag := strings.ToLower(intent.Platform)
		for _, d := range roster {
			if d.HasCapability(tag) {
				return d.Name, true
			}
		}
	}

	lowered := strings.ToLower(request)
	for _, rule := range p.Rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return rule.Agent, true
			}
		}
	}

	if p.Default != "" {
		return p.Default, true
	}
	return "", false
}

// CollaboratePolicy assigns the identical request to every roster agent.
type CollaboratePolicy struct{}

// Name implements the Policy interface.
func (p *CollaboratePolicy) Name() string { return PolicyCollaborate }

// Plan implements the Policy interface.
func (p *CollaboratePolicy) Plan(request string, _ core.Intent, roster []core.Descriptor) (Plan, error) {
	if len(roster) == 0 {
		return Plan{}, fmt.Errorf("collaborate dispatch requires a non-empty roster")
	}
	assignments := make([]Assignment, len(roster))
	for i, d := range roster {
		assignments[i] = Assignment{Agent: d.Name, SubRequest: request}
	}
	return Plan{Policy: PolicyCollaborate, Assignments: assignments}, nil
}

// CoordinatePolicy decomposes a request into focused sub-requests, one per
// selected agent. Selection optionally narrows the roster by capability
// tags; with no tags configured the full roster participates. Sub-requests
// are derived from a fixed template, never from a model.
type CoordinatePolicy struct {
	// Capabilities, when non-empty, restricts dispatch to agents carrying
	// at least one of the listed tags.
	Capabilities []string
}

// Name implements the Policy interface.
func (p *CoordinatePolicy) Name() string { return PolicyCoordinate }

// Plan implements the Policy interface.
func (p *CoordinatePolicy) Plan(request string, _ core.Intent, roster []core.Descriptor) (Plan, error) {
	var selected []core.Descriptor
	if len(p.Capabilities) == 0 {
		selected = roster
	} else {
		for _, d := range roster {
			for _, tag := range p.Capabilities {
				if d.HasCapability(tag) {
					selected = append(selected, d)
					break
				}
			}
		}
	}
	if len(selected) == 0 {
		return Plan{}, fmt.Errorf("coordinate dispatch selected no agents")
	}

	assignments := make([]Assignment, len(selected))
	for i, d := range selected {
		assignments[i] = Assignment{Agent: d.Name, SubRequest: subRequestFor(d, request)}
	}
	return Plan{Policy: PolicyCoordinate, Assignments: assignments}, nil
}

// subRequestFor renders the focused request for one agent. The template is
// fixed so coordinate plans stay reproducible.
func subRequestFor(d core.Descriptor, request string) string {
	focus := d.Role
	if focus == "" {
		focus = d.Name
	}
	return fmt.Sprintf("Contribute your specialty (%s) to the following request: %s", focus, request)
}
