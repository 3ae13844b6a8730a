package core

import "github.com/crewkit/crew/schema"

// Descriptor is the static configuration of an agent: identity, role label,
// routing capability tags, instruction text and the declared output schema.
// Descriptors are created at configuration time and treated as immutable for
// the process lifetime; the executable binding of a Descriptor to a model and
// toolset lives in the agent package.
type Descriptor struct {
	// Name is the unique roster identifier, e.g. "Eventbrite Agent".
	Name string
	// Role is a short human-readable role label used in prompts.
	Role string
	// Capabilities are ordered tags matched by dispatch policies, e.g.
	// "eventbrite", "professional", "ticketed".
	Capabilities []string
	// Instructions are the natural-language behavior directives, joined
	// into the system prompt in order.
	Instructions []string
	// Output declares the result shape; nil means free-text output.
	Output *schema.Definition
}

// HasCapability reports whether tag appears in the descriptor's capability
// list. Matching is exact; dispatch policies handle case folding.
func (d Descriptor) HasCapability(tag string) bool {
	for _, c := range d.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}
