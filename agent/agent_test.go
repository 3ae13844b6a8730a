package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/knowledge"
	"github.com/crewkit/crew/logging"
	"github.com/crewkit/crew/model"
	"github.com/crewkit/crew/schema"
	"github.com/crewkit/crew/tool"
	"github.com/crewkit/crew/tool/finance"
)

type analysis struct {
	Platform    string   `json:"platform"`
	EventsFound int      `json:"events_found"`
	Events      []string `json:"events"`
}

func newRunContext(request string) *core.RunContext {
	return core.NewRunContext(context.Background(), "run-1", request, core.NewIntent(), nil, logging.NoOpLogger{})
}

func TestRunFreeText(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("events", "Found two meetups downtown.")

	a := New(core.Descriptor{Name: "Meetup Agent", Role: "a community event researcher"}, mock)

	result, err := a.Run(newRunContext("find events"))
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Found two meetups downtown.", result.Raw)
	assert.Equal(t, "Meetup Agent", result.Agent)
	assert.Nil(t, result.Value)
}

func TestRunInstructionsIncludeRoleAndIntent(t *testing.T) {
	mock := model.NewMockModel()

	a := New(core.Descriptor{
		Name:         "Eventbrite Agent",
		Role:         "an event platform specialist",
		Instructions: []string{"Search Eventbrite for matching events."},
	}, mock)

	intent := core.NewIntent()
	intent.ResultCount = 3
	intent.Location = "New York"
	intent.MarkExplicit(core.FieldResultCount)
	intent.MarkExplicit(core.FieldLocation)
	runCtx := core.NewRunContext(context.Background(), "run-1", "find 3 events in New York", intent, nil, logging.NoOpLogger{})

	_, err := a.Run(runCtx)
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "Eventbrite Agent, an event platform specialist")
	assert.Contains(t, reqs[0].Instructions, "Search Eventbrite for matching events.")
	assert.Contains(t, reqs[0].Instructions, "Number of results requested: 3")
	assert.Contains(t, reqs[0].Instructions, "Location: New York")
}

func TestRunStructuredOutput(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("events", `{"platform":"meetup","events_found":1,"events":["Go meetup"]}`)

	a := New(core.Descriptor{
		Name:   "Meetup Agent",
		Output: schema.Define("analysis", &analysis{}),
	}, mock)

	result, err := a.Run(newRunContext("find events"))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	var out analysis
	require.NoError(t, json.Unmarshal(result.Value, &out))
	assert.Equal(t, "meetup", out.Platform)
	assert.Equal(t, 1, out.EventsFound)
}

func TestRunSchemaRetrySucceeds(t *testing.T) {
	mock := model.NewMockModel()
	mock.Enqueue(model.Response{Text: "Sure! I found one event."})
	mock.Enqueue(model.Response{Text: `{"platform":"meetup","events_found":1,"events":["Go meetup"]}`})

	a := New(core.Descriptor{
		Name:   "Meetup Agent",
		Output: schema.Define("analysis", &analysis{}),
	}, mock)

	result, err := a.Run(newRunContext("find events"))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Messages[2].Text, "did not match the required output format")
}

func TestRunSchemaViolation(t *testing.T) {
	mock := model.NewMockModel()
	mock.AddResponse("events", "no json here")

	a := New(core.Descriptor{
		Name:   "Meetup Agent",
		Output: schema.Define("analysis", &analysis{}),
	}, mock, func(o *Options) {
		o.RetryOnViolation = false
	})

	result, err := a.Run(newRunContext("find events"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindSchemaViolation))
	assert.False(t, result.Valid)
	assert.Equal(t, "no json here", result.Raw)
}

func TestRunBackendUnavailable(t *testing.T) {
	mock := model.NewMockModel()
	mock.FailWith(errors.New("connection refused"))

	a := New(core.Descriptor{Name: "Meetup Agent"}, mock)

	_, err := a.Run(newRunContext("find events"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindBackendUnavailable))
}

func TestRunToolLoop(t *testing.T) {
	mock := model.NewMockModel()
	mock.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "call-1", Name: "calculate_sum", Arguments: `{"a":2,"b":3}`},
	}})
	mock.Enqueue(model.Response{Text: "The sum is 5."})

	sum := tool.NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	a := New(core.Descriptor{Name: "Math Agent"}, mock, func(o *Options) {
		o.Tools = []tool.Tool{sum}
	})

	result, err := a.Run(newRunContext("what is 2+3?"))
	require.NoError(t, err)
	assert.Equal(t, "The sum is 5.", result.Raw)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "calculate_sum", reqs[0].Tools[0].Name)

	second := reqs[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, model.RoleAssistant, second[1].Role)
	assert.Equal(t, model.RoleTool, second[2].Role)
	require.Len(t, second[2].ToolResponses, 1)
	assert.Equal(t, "5", second[2].ToolResponses[0].Content)
}

func TestRunStockQuoteTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"DRI","currency":"USD","regularMarketPrice":150.0,"chartPreviousClose":148.0}}],"error":null}}`))
	}))
	defer srv.Close()

	mock := model.NewMockModel()
	mock.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "call-1", Name: "stock_quote", Arguments: `{"symbol":"DRI"}`},
	}})
	mock.Enqueue(model.Response{Text: "DRI trades at 150.00 USD."})

	a := New(core.Descriptor{Name: "Financier"}, mock, func(o *Options) {
		o.Tools = []tool.Tool{finance.New(func(fo *finance.Options) {
			fo.BaseURL = srv.URL + "/"
		})}
	})

	result, err := a.Run(newRunContext("how is Darden doing?"))
	require.NoError(t, err)
	assert.Equal(t, "DRI trades at 150.00 USD.", result.Raw)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	second := reqs[1].Messages
	require.Len(t, second, 3)
	require.Len(t, second[2].ToolResponses, 1)
	assert.Contains(t, second[2].ToolResponses[0].Content, `"symbol":"DRI"`)
	assert.Contains(t, second[2].ToolResponses[0].Content, `"price":150`)
}

func TestRunToolFailureFedBack(t *testing.T) {
	mock := model.NewMockModel()
	mock.Enqueue(model.Response{ToolCalls: []model.ToolCall{
		{ID: "call-1", Name: "failing", Arguments: `{}`},
	}})
	mock.Enqueue(model.Response{Text: "The tool failed."})

	failing := tool.NewFunctionTool(
		"failing",
		"Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	)

	a := New(core.Descriptor{Name: "Agent"}, mock, func(o *Options) {
		o.Tools = []tool.Tool{failing}
	})

	result, err := a.Run(newRunContext("try the tool"))
	require.NoError(t, err)
	assert.Equal(t, "The tool failed.", result.Raw)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Messages[2].ToolResponses[0].Content, "boom")
}

func TestRunToolIterationLimit(t *testing.T) {
	mock := model.NewMockModel()
	for i := 0; i < 4; i++ {
		mock.Enqueue(model.Response{ToolCalls: []model.ToolCall{
			{ID: "call", Name: "noop", Arguments: `{}`},
		}})
	}

	noop := tool.NewFunctionTool(
		"noop",
		"Does nothing",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return "ok", nil
		},
	)

	a := New(core.Descriptor{Name: "Agent"}, mock, func(o *Options) {
		o.Tools = []tool.Tool{noop}
		o.MaxToolIterations = 2
	})

	_, err := a.Run(newRunContext("loop"))
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.ErrorKindBackendUnavailable))
	assert.Contains(t, err.Error(), "iteration limit")
}

type fakeRetriever struct {
	refs []knowledge.Reference
}

func (r *fakeRetriever) Search(context.Context, string, int) ([]knowledge.Reference, error) {
	return r.refs, nil
}

func TestRunKnowledgeReferences(t *testing.T) {
	mock := model.NewMockModel()

	a := New(core.Descriptor{Name: "Thai Expert"}, mock, func(o *Options) {
		o.Knowledge = &fakeRetriever{refs: []knowledge.Reference{
			{Content: "Pad thai uses tamarind paste.", Source: "recipes.pdf", Score: 0.9},
		}}
	})

	_, err := a.Run(newRunContext("how do I make pad thai?"))
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "Pad thai uses tamarind paste.")
	assert.Contains(t, reqs[0].Instructions, "recipes.pdf")
}

func TestRunEmitsStartedEvent(t *testing.T) {
	mock := model.NewMockModel()
	a := New(core.Descriptor{Name: "Meetup Agent"}, mock)

	events := make(chan core.Event, 4)
	runCtx := core.NewRunContext(context.Background(), "run-1", "find events", core.NewIntent(), events, logging.NoOpLogger{})

	_, err := a.Run(runCtx)
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, core.EventAgentStarted, ev.Type)
	assert.Equal(t, "Meetup Agent", ev.Author)
}
