package core

import "encoding/json"

// Result is one agent's output for a run. Until it is handed to the
// aggregator it is owned exclusively by the producing agent.
type Result struct {
	// Agent is the producing agent's name.
	Agent string `json:"agent"`
	// SubRequest is the focused request the agent answered; equals the
	// original request except under coordinate dispatch.
	SubRequest string `json:"sub_request,omitempty"`
	// Raw is the unprocessed model output text.
	Raw string `json:"raw,omitempty"`
	// Value is the schema-conforming JSON payload; nil when the agent has
	// no declared schema or validation failed.
	Value json.RawMessage `json:"value,omitempty"`
	// Valid reports whether Value passed schema validation. Agents without
	// a declared schema report Valid with a nil Value.
	Valid bool `json:"valid"`
}

// Text returns the best textual rendering of the result: the structured
// payload when present, the raw model output otherwise.
func (r Result) Text() string {
	if len(r.Value) > 0 {
		return string(r.Value)
	}
	return r.Raw
}

// TeamResult is the final aggregated value returned to the caller, conforming
// to the team's declared output schema. It is produced once per run and not
// persisted by the core.
type TeamResult struct {
	// Value is the aggregated payload. For schema-less route teams this is
	// the routed agent's raw text wrapped as a JSON string.
	Value json.RawMessage `json:"value"`
	// Raw is the pass-through text for schema-less results.
	Raw string `json:"raw,omitempty"`
	// Contributors lists the agents whose results were merged, in roster
	// declaration order.
	Contributors []string `json:"contributors"`
	// Policy names the dispatch policy that produced the result.
	Policy string `json:"policy"`
}

// Decode unmarshals the aggregated payload into out.
func (tr TeamResult) Decode(out any) error {
	return json.Unmarshal(tr.Value, out)
}

// Text returns the best textual rendering of the team result.
func (tr TeamResult) Text() string {
	if tr.Raw != "" {
		return tr.Raw
	}
	return string(tr.Value)
}
