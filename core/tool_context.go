package core

import (
	"context"

	"github.com/crewkit/crew/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by an agent. Tools see the run identifiers, the
// extracted intent and a logger, but cannot reach the emission channel or
// mutate the run.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext and
// unique functionCallID.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Intent returns the extracted intent for the run.
func (tc *ToolContext) Intent() Intent { return tc.runCtx.Intent }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// FunctionCallID correlates the model's function call request with this
// tool execution.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }
