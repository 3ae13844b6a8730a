package core

import (
	"context"

	"github.com/crewkit/crew/logging"
)

// Transcript records the event stream of team runs. Implementations must be
// safe for concurrent use; the in-memory reference lives in the session
// package. Recording is best-effort observability, never behavior-affecting.
type Transcript interface {
	Append(runID string, ev Event) error
	Events(runID string) ([]Event, error)
	Runs() []string
}

// RunContext carries the execution scope handed to an agent for one run. It
// aggregates the ambient cancellation Context, identifiers, the request and
// its extracted Intent, the event emission channel and a structured logger.
//
// Concurrently dispatched agents each receive their own clone (WithBranch) so
// no mutable state is shared between siblings.
type RunContext struct {
	Context context.Context
	RunID   string

	// Request is the original caller request.
	Request string
	// SubRequest is the focused request for this agent; equals Request
	// except under coordinate dispatch.
	SubRequest string
	// Intent is the extracted typed view of Request.
	Intent Intent
	// Branch labels the agent's isolated execution path, e.g.
	// "EventTeam.Meetup Agent".
	Branch string

	// Emit streams run events to the team's consumer. May be nil for
	// direct agent invocations outside a team.
	Emit chan<- Event

	*loggerAdapter
}

// NewRunContext constructs a RunContext for a run.
func NewRunContext(ctx context.Context, runID, request string, intent Intent, emit chan<- Event, logger logging.Logger) *RunContext {
	return &RunContext{
		Context:       ctx,
		RunID:         runID,
		Request:       request,
		SubRequest:    request,
		Intent:        intent,
		Emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Clone returns a copy safe to hand to a concurrently executing agent.
func (rc *RunContext) Clone() *RunContext {
	c := *rc
	return &c
}

// WithBranch clones the context, sets the branch label and the focused
// sub-request (empty sub keeps the original request).
func (rc *RunContext) WithBranch(branch, subRequest string) *RunContext {
	c := rc.Clone()
	c.Branch = branch
	if subRequest != "" {
		c.SubRequest = subRequest
	}
	return c
}

// EmitEvent sends ev to the run's consumer, honoring cancellation. It is a
// no-op when no emission channel is attached.
func (rc *RunContext) EmitEvent(ev Event) error {
	if rc.Emit == nil {
		return nil
	}
	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}
