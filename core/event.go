package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes entries in a run's event stream.
type EventType string

const (
	// EventRunStarted opens a run and carries the request plus extracted intent.
	EventRunStarted EventType = "run.started"
	// EventDispatchPlanned records the dispatch decision (policy + selected agents).
	EventDispatchPlanned EventType = "dispatch.planned"
	// EventAgentStarted marks the start of one agent's execution.
	EventAgentStarted EventType = "agent.started"
	// EventAgentResult carries one agent's completed result.
	EventAgentResult EventType = "agent.result"
	// EventAgentError records a contained per-agent failure.
	EventAgentError EventType = "agent.error"
	// EventTeamResult carries the final aggregated result and closes the run.
	EventTeamResult EventType = "team.result"
)

// Event is the unit of communication streamed from a team run to its caller
// and transcript. Once emitted it is immutable.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Type      EventType `json:"type"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`

	Request    string      `json:"request,omitempty"`
	Intent     *Intent     `json:"intent,omitempty"`
	Policy     string      `json:"policy,omitempty"`
	Selected   []string    `json:"selected,omitempty"`
	SubRequest string      `json:"sub_request,omitempty"`
	Result     *Result     `json:"result,omitempty"`
	TeamResult *TeamResult `json:"team_result,omitempty"`
	ErrorKind  string      `json:"error_kind,omitempty"`
	ErrorMsg   string      `json:"error_message,omitempty"`
}

// NewID generates a unique identifier for runs and events.
func NewID() string { return uuid.NewString() }

// NewEvent creates a bare event authored by author within a run. Prefer the
// typed constructors below.
func NewEvent(runID string, t EventType, author string) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Type:      t,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunStartedEvent opens the event stream for a run.
func NewRunStartedEvent(runID, teamName, request string, intent Intent) Event {
	e := NewEvent(runID, EventRunStarted, teamName)
	e.Request = request
	e.Intent = &intent
	return e
}

// NewDispatchPlannedEvent records which agents a policy selected.
func NewDispatchPlannedEvent(runID, teamName, policy string, selected []string) Event {
	e := NewEvent(runID, EventDispatchPlanned, teamName)
	e.Policy = policy
	e.Selected = selected
	return e
}

// NewAgentStartedEvent marks the start of one agent's execution.
func NewAgentStartedEvent(runID, agentName, subRequest string) Event {
	e := NewEvent(runID, EventAgentStarted, agentName)
	e.SubRequest = subRequest
	return e
}

// NewAgentResultEvent carries a completed agent result.
func NewAgentResultEvent(runID string, result Result) Event {
	e := NewEvent(runID, EventAgentResult, result.Agent)
	e.Result = &result
	return e
}

// NewAgentErrorEvent records a contained per-agent failure. Kind is the
// framework ErrorKind when the failure is typed, empty otherwise.
func NewAgentErrorEvent(runID, agentName string, err error) Event {
	e := NewEvent(runID, EventAgentError, agentName)
	var fe *Error
	if errors.As(err, &fe) {
		e.ErrorKind = string(fe.Kind)
	}
	e.ErrorMsg = err.Error()
	return e
}

// NewTeamResultEvent carries the final aggregated result.
func NewTeamResultEvent(runID, teamName string, tr TeamResult) Event {
	e := NewEvent(runID, EventTeamResult, teamName)
	e.TeamResult = &tr
	return e
}
