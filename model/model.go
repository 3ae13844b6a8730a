// Package model defines the interface for integrating language model
// backends and provides shared request/response types used by agents.
package model

import (
	"context"
	"strings"
	"sync"
)

// Role identifies the author of a message in a model conversation.
type Role string

const (
	// RoleUser marks a message authored by the requesting side.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the model, including
	// tool call requests.
	RoleAssistant Role = "assistant"

	// RoleTool marks a tool execution result fed back to the model.
	RoleTool Role = "tool"
)

// Message is a single turn in a model conversation.
type Message struct {
	// Role is the author of the message.
	Role Role

	// Text is the textual content of the message, if any.
	Text string

	// ToolCalls holds tool invocations requested by an assistant message.
	ToolCalls []ToolCall

	// ToolResponses holds tool results carried by a tool message.
	ToolResponses []ToolResponse
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its eventual result.
	ID string

	// Name is the name of the tool to invoke.
	Name string

	// Arguments holds the call arguments as a JSON string.
	Arguments string
}

// ToolResponse carries the outcome of a tool call back to the model.
type ToolResponse struct {
	// ID matches the ID of the originating ToolCall.
	ID string

	// Name is the name of the tool that was invoked.
	Name string

	// Content is the serialized tool result.
	Content string
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	// Name is the unique tool name.
	Name string

	// Description explains what the tool does.
	Description string

	// Parameters is a JSON schema describing the tool arguments.
	Parameters map[string]any
}

// Request is a provider-independent generation request.
type Request struct {
	// Instructions is the system prompt for the conversation.
	Instructions string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Tools lists the tools available to the model for this request.
	Tools []ToolDefinition

	// ForceJSON asks the backend to constrain output to a JSON object,
	// where the provider supports such a response format.
	ForceJSON bool

	// Stream requests incremental responses where supported.
	Stream bool
}

// Response is a single model output, partial or final.
type Response struct {
	// Partial indicates an incremental chunk of a streamed response.
	Partial bool

	// Text is the textual content of the response.
	Text string

	// ToolCalls holds tool invocations requested by the model. Only
	// populated on final responses.
	ToolCalls []ToolCall

	// FinishReason reports why generation stopped, if the provider
	// supplies one.
	FinishReason string

	// Usage reports token consumption, if the provider supplies it.
	Usage *TokenUsage
}

// TokenUsage captures token counts reported by a provider.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Info describes a model backend.
type Info struct {
	// Provider is the backend provider name, e.g. "openai".
	Provider string

	// Model is the provider-specific model identifier.
	Model string
}

// Model is the interface implemented by language model backends.
//
// Generate returns two channels: one delivering responses (multiple
// partials followed by a final when streaming, a single final response
// otherwise) and one delivering at most one error. Both channels are
// closed when generation finishes.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// LastUserText returns the text of the most recent user message in the
// request, or the empty string if there is none.
func (r Request) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Text
		}
	}
	return ""
}

// MockModel is an in-memory Model for tests. It serves scripted
// responses in order when a script is set, otherwise it matches canned
// responses against the last user message and falls back to an echo.
type MockModel struct {
	mu        sync.Mutex
	responses map[string]string
	script    []Response
	err       error
	requests  []Request
}

// NewMockModel creates a MockModel with no canned responses.
func NewMockModel() *MockModel {
	return &MockModel{
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned response returned when the last user
// message contains the given substring.
func (m *MockModel) AddResponse(match, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[match] = text
}

// Enqueue appends a scripted response. Scripted responses take
// precedence over canned responses and are served in FIFO order.
func (m *MockModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// FailWith makes every subsequent Generate call fail with err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements the Model interface.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respChan := make(chan Response, 1)
	errChan := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)

	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		errChan <- err
		close(respChan)
		close(errChan)
		return respChan, errChan
	}

	var resp Response
	if len(m.script) > 0 {
		resp = m.script[0]
		m.script = m.script[1:]
	} else {
		resp = Response{Text: m.cannedLocked(req.LastUserText()), FinishReason: "stop"}
	}
	m.mu.Unlock()

	select {
	case respChan <- resp:
	case <-ctx.Done():
		errChan <- ctx.Err()
	}
	close(respChan)
	close(errChan)
	return respChan, errChan
}

func (m *MockModel) cannedLocked(prompt string) string {
	for match, text := range m.responses {
		if strings.Contains(prompt, match) {
			return text
		}
	}
	return "Mock response to: " + prompt
}

// Info implements the Model interface.
func (m *MockModel) Info() Info {
	return Info{Provider: "mock", Model: "mock"}
}
