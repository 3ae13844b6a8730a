// Package agent binds a static descriptor to a language model, a toolset and
// an optional knowledge retriever, and executes single runs: prompt assembly,
// the tool calling loop and schema validation of the final output.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/knowledge"
	"github.com/crewkit/crew/model"
	"github.com/crewkit/crew/schema"
	"github.com/crewkit/crew/tool"
)

// Options configure an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Tools the model may call during a run.
	Tools []tool.Tool

	// Knowledge, when set, is searched with the sub-request before each
	// run and the references are appended to the instructions.
	Knowledge knowledge.Retriever

	// KnowledgeTopK caps the number of references added per run.
	KnowledgeTopK int

	// ExtraInstruction is appended after the descriptor's instruction
	// text; use a provider for state-dependent additions.
	ExtraInstruction Instruction

	// AddDatetime appends the current date and time to the instructions.
	AddDatetime bool

	// MaxToolIterations bounds the tool calling loop.
	MaxToolIterations int

	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration

	// RetryOnViolation enables a single corrective re-prompt when the
	// declared output schema is violated.
	RetryOnViolation bool

	// Stream requests incremental model responses. Partial text is not
	// surfaced by Run; streaming only affects backend transport.
	Stream bool
}

// Agent executes runs for one roster member. An Agent is immutable after
// construction and safe for concurrent use: per-run state lives entirely in
// the RunContext and local variables.
type Agent struct {
	descriptor core.Descriptor
	llm        model.Model
	tools      map[string]tool.Tool
	opts       Options
}

// New creates an agent from its descriptor and model binding.
//
// Defaults: no tools, no knowledge, a 5-iteration tool loop, 15-second tool
// timeout and schema re-prompting enabled.
func New(descriptor core.Descriptor, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		KnowledgeTopK:     5,
		MaxToolIterations: 5,
		ToolTimeout:       15 * time.Second,
		RetryOnViolation:  true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		tools[t.Name()] = t
	}

	return &Agent{
		descriptor: descriptor,
		llm:        llm,
		tools:      tools,
		opts:       opts,
	}
}

// Name returns the agent's roster name.
func (a *Agent) Name() string { return a.descriptor.Name }

// Descriptor returns the agent's static configuration.
func (a *Agent) Descriptor() core.Descriptor { return a.descriptor }

// HasTool checks if a tool is registered with the agent.
func (a *Agent) HasTool(name string) bool {
	_, exists := a.tools[name]
	return exists
}

// ListTools returns the names of all registered tools, sorted.
func (a *Agent) ListTools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one request against the agent. It assembles the system
// instructions, drives the tool calling loop and validates the final output
// against the declared schema.
//
// Error semantics:
//
//	model transport failure -> *core.Error{Kind: ErrorKindBackendUnavailable}
//	schema validation failure (after any re-prompt) -> *core.Error{Kind: ErrorKindSchemaViolation}
//
// On schema violation the returned Result still carries the raw text with
// Valid=false, so collaborating teams can drop it without losing telemetry.
func (a *Agent) Run(runCtx *core.RunContext) (core.Result, error) {
	logger := runCtx.Logger()
	start := time.Now()

	runCtx.EmitEvent(core.NewAgentStartedEvent(runCtx.RunID, a.descriptor.Name, runCtx.SubRequest))
	logger.Info("agent.run.start", "agent", a.descriptor.Name, "run_id", runCtx.RunID, "branch", runCtx.Branch)

	instructions, err := a.buildInstructions(runCtx)
	if err != nil {
		return core.Result{Agent: a.descriptor.Name}, err
	}

	messages := []model.Message{{Role: model.RoleUser, Text: runCtx.SubRequest}}

	text, err := a.converse(runCtx, instructions, messages)
	if err != nil {
		logger.Error("agent.run.error", "agent", a.descriptor.Name, "error", err.Error())
		return core.Result{Agent: a.descriptor.Name, SubRequest: runCtx.SubRequest},
			core.NewError(core.ErrorKindBackendUnavailable, a.descriptor.Name, err)
	}

	result := core.Result{
		Agent:      a.descriptor.Name,
		SubRequest: runCtx.SubRequest,
		Raw:        text,
	}

	if a.descriptor.Output == nil {
		result.Valid = true
		logger.Info("agent.run.done", "agent", a.descriptor.Name, "duration_ms", time.Since(start).Milliseconds())
		return result, nil
	}

	value, err := a.coerce(runCtx, instructions, text)
	if err != nil {
		logger.Warn("agent.run.schema_violation", "agent", a.descriptor.Name, "error", err.Error())
		return result, core.NewError(core.ErrorKindSchemaViolation, a.descriptor.Name, err)
	}

	result.Value = value
	result.Valid = true
	logger.Info("agent.run.done", "agent", a.descriptor.Name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// buildInstructions assembles the system prompt: identity, descriptor
// directives, extra instruction, intent context, knowledge references,
// datetime and output format.
func (a *Agent) buildInstructions(runCtx *core.RunContext) (string, error) {
	var sections []string

	identity := fmt.Sprintf("You are %s.", a.descriptor.Name)
	if a.descriptor.Role != "" {
		identity = fmt.Sprintf("You are %s, %s.", a.descriptor.Name, a.descriptor.Role)
	}
	sections = append(sections, identity)

	if len(a.descriptor.Instructions) > 0 {
		sections = append(sections, strings.Join(a.descriptor.Instructions, "\n"))
	}

	if !a.opts.ExtraInstruction.IsZero() {
		extra, err := a.opts.ExtraInstruction.Resolve(runCtx)
		if err != nil {
			return "", fmt.Errorf("resolve extra instruction: %w", err)
		}
		if extra != "" {
			sections = append(sections, extra)
		}
	}

	if intentSection := formatIntent(runCtx.Intent); intentSection != "" {
		sections = append(sections, intentSection)
	}

	if a.opts.Knowledge != nil {
		refs, err := a.opts.Knowledge.Search(runCtx.Context, runCtx.SubRequest, a.opts.KnowledgeTopK)
		if err != nil {
			runCtx.Logger().Warn("agent.knowledge.search_failed", "agent", a.descriptor.Name, "error", err.Error())
		} else if len(refs) > 0 {
			sections = append(sections, formatReferences(refs))
		}
	}

	if a.opts.AddDatetime {
		sections = append(sections, "Current date and time: "+time.Now().Format("2006-01-02 15:04 MST"))
	}

	if a.descriptor.Output != nil {
		sections = append(sections, a.descriptor.Output.PromptInstructions())
	}

	return strings.Join(sections, "\n\n"), nil
}

// formatIntent renders the extracted request parameters for the prompt.
// Only the explicit fields and the result count are included.
func formatIntent(intent core.Intent) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("- Number of results requested: %d", intent.ResultCount))
	if intent.Explicit(core.FieldLocation) {
		lines = append(lines, "- Location: "+intent.Location)
	}
	if intent.Explicit(core.FieldCategory) {
		lines = append(lines, "- Category: "+intent.Category)
	}
	if intent.Explicit(core.FieldDateRange) {
		lines = append(lines, "- Date range: "+intent.DateRange)
	}
	if intent.Explicit(core.FieldPlatform) {
		lines = append(lines, "- Platform preference: "+intent.Platform)
	}
	return "Request parameters:\n" + strings.Join(lines, "\n")
}

func formatReferences(refs []knowledge.Reference) string {
	var b strings.Builder
	b.WriteString("Use the following references to answer:\n")
	for i, ref := range refs {
		fmt.Fprintf(&b, "\n[Reference %d", i+1)
		if ref.Source != "" {
			fmt.Fprintf(&b, " | %s", ref.Source)
		}
		b.WriteString("]\n")
		b.WriteString(ref.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// converse drives the model conversation including the bounded tool loop and
// returns the final response text.
func (a *Agent) converse(runCtx *core.RunContext, instructions string, messages []model.Message) (string, error) {
	for iteration := 0; ; iteration++ {
		resp, err := a.generate(runCtx, model.Request{
			Instructions: instructions,
			Messages:     messages,
			Tools:        a.toolDefinitions(),
			ForceJSON:    a.descriptor.Output != nil,
			Stream:       a.opts.Stream,
		})
		if err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 || len(a.tools) == 0 {
			return resp.Text, nil
		}
		if iteration >= a.opts.MaxToolIterations {
			return "", fmt.Errorf("tool iteration limit of %d exceeded", a.opts.MaxToolIterations)
		}

		messages = append(messages, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		messages = append(messages, model.Message{
			Role:          model.RoleTool,
			ToolResponses: a.executeToolCalls(runCtx, resp.ToolCalls),
		})
	}
}

// generate performs one model call and collapses the response stream into
// the final response.
func (a *Agent) generate(runCtx *core.RunContext, req model.Request) (model.Response, error) {
	respChan, errChan := a.llm.Generate(runCtx.Context, req)

	var final model.Response
	for resp := range respChan {
		if !resp.Partial {
			final = resp
		}
	}
	if err := <-errChan; err != nil {
		return model.Response{}, err
	}
	return final, nil
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, name := range a.ListTools() {
		t := a.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// executeToolCalls runs each requested tool and serializes the outcomes.
// Tool failures are reported back to the model instead of aborting the run.
func (a *Agent) executeToolCalls(runCtx *core.RunContext, calls []model.ToolCall) []model.ToolResponse {
	responses := make([]model.ToolResponse, 0, len(calls))
	for _, call := range calls {
		responses = append(responses, model.ToolResponse{
			ID:      call.ID,
			Name:    call.Name,
			Content: a.executeToolCall(runCtx, call),
		})
	}
	return responses
}

func (a *Agent) executeToolCall(runCtx *core.RunContext, call model.ToolCall) string {
	t, ok := a.tools[call.Name]
	if !ok {
		return fmt.Sprintf(`{"error":"unknown tool %q"}`, call.Name)
	}

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf(`{"error":"invalid tool arguments: %s"}`, err.Error())
		}
	}

	toolRunCtx := runCtx
	if a.opts.ToolTimeout > 0 {
		ctx, cancel := context.WithTimeout(runCtx.Context, a.opts.ToolTimeout)
		defer cancel()
		toolRunCtx = runCtx.Clone()
		toolRunCtx.Context = ctx
	}

	result, err := t.Call(core.NewToolContext(toolRunCtx, call.ID), args)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(payload)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(payload)
}

// coerce validates the model text against the declared schema, issuing at
// most one corrective re-prompt when enabled.
func (a *Agent) coerce(runCtx *core.RunContext, instructions, text string) (json.RawMessage, error) {
	value, err := a.descriptor.Output.Coerce(text)
	if err == nil {
		return value, nil
	}

	var violation *schema.Violation
	if !a.opts.RetryOnViolation || !errors.As(err, &violation) {
		return nil, err
	}

	runCtx.Logger().Debug("agent.schema.retry", "agent", a.descriptor.Name, "violation", err.Error())

	retryPrompt := fmt.Sprintf(
		"Your previous answer did not match the required output format: %s\n\nAnswer again with only a valid JSON object.\n\n%s",
		err.Error(),
		a.descriptor.Output.PromptInstructions(),
	)
	resp, genErr := a.generate(runCtx, model.Request{
		Instructions: instructions,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: runCtx.SubRequest},
			{Role: model.RoleAssistant, Text: text},
			{Role: model.RoleUser, Text: retryPrompt},
		},
		ForceJSON: true,
		Stream:    false,
	})
	if genErr != nil {
		return nil, genErr
	}

	return a.descriptor.Output.Coerce(resp.Text)
}
