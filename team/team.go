package team

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewkit/crew/agent"
	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/extract"
	"github.com/crewkit/crew/logging"
)

// Options configure a Team.
type Options struct {
	// Aggregator merges agent results. Defaults to NewAggregator().
	Aggregator *Aggregator

	// Extractor derives the typed intent from the request text.
	Extractor *extract.Extractor

	// Transcript, when set, records every run event.
	Transcript core.Transcript

	// Logger receives structured run logs.
	Logger logging.Logger

	// BufferSize is the event channel capacity for streaming runs.
	BufferSize int
}

// Team is a named roster of agents executed under one dispatch policy.
// Teams are immutable after construction and safe for concurrent runs; all
// per-run state lives in the run's context branches.
type Team struct {
	name       string
	policy     Policy
	agents     []*agent.Agent
	byName     map[string]*agent.Agent
	aggregator *Aggregator
	extractor  *extract.Extractor
	transcript core.Transcript
	logger     logging.Logger
	bufferSize int
}

// New creates a team. Roster order is significant: policies and the
// aggregator preserve it for deterministic selection and merging.
func New(name string, policy Policy, agents []*agent.Agent, optFns ...func(o *Options)) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name must not be empty")
	}
	if policy == nil {
		return nil, fmt.Errorf("team %q requires a dispatch policy", name)
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("team %q requires at least one agent", name)
	}

	opts := Options{
		Aggregator: NewAggregator(),
		Extractor:  extract.New(),
		Logger:     logging.NewDefaultSlogLogger(),
		BufferSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]*agent.Agent, len(agents))
	for _, a := range agents {
		if _, dup := byName[a.Name()]; dup {
			return nil, fmt.Errorf("team %q has duplicate agent name %q", name, a.Name())
		}
		byName[a.Name()] = a
	}

	return &Team{
		name:       name,
		policy:     policy,
		agents:     agents,
		byName:     byName,
		aggregator: opts.Aggregator,
		extractor:  opts.Extractor,
		transcript: opts.Transcript,
		logger:     opts.Logger,
		bufferSize: opts.BufferSize,
	}, nil
}

// Name returns the team name.
func (t *Team) Name() string { return t.name }

// Roster returns the descriptors of all agents in declaration order.
func (t *Team) Roster() []core.Descriptor {
	roster := make([]core.Descriptor, len(t.agents))
	for i, a := range t.agents {
		roster[i] = a.Descriptor()
	}
	return roster
}

// Run executes the request and blocks until the aggregated result is
// available. Events are still recorded to the transcript when one is
// configured.
func (t *Team) Run(ctx context.Context, request string) (core.TeamResult, error) {
	events := make(chan core.Event, t.bufferSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
		}
	}()

	result, err := t.execute(ctx, core.NewID(), request, events)
	close(events)
	<-done
	return result, err
}

// RunStream executes the request and streams run events as they occur.
// It returns the run ID, the event channel and an error channel delivering
// at most one terminal error. Both channels close when the run finishes.
// The final TeamResult travels in the closing EventTeamResult event.
//
// Consumers must either drain the event channel or cancel ctx: once the
// channel buffer fills, delivery blocks until the consumer reads or ctx is
// done, at which point undelivered events are dropped (the transcript, when
// configured, still records them all).
func (t *Team) RunStream(ctx context.Context, request string) (string, <-chan core.Event, <-chan error, error) {
	if request == "" {
		return "", nil, nil, fmt.Errorf("request must not be empty")
	}

	runID := core.NewID()
	events := make(chan core.Event, t.bufferSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errCh)
		if _, err := t.execute(ctx, runID, request, events); err != nil {
			errCh <- err
		}
	}()

	return runID, events, errCh, nil
}

// execute orchestrates one run: extract intent, plan dispatch, fan out to
// the assigned agents, aggregate. Run events are teed to the transcript
// before being forwarded to out.
func (t *Team) execute(ctx context.Context, runID, request string, out chan<- core.Event) (core.TeamResult, error) {
	intent := t.extractor.Extract(request)
	logger := t.logger

	// tee events into the transcript without blocking emitters
	inner := make(chan core.Event, t.bufferSize)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for ev := range inner {
			if t.transcript != nil {
				if err := t.transcript.Append(runID, ev); err != nil {
					logger.Warn("team.transcript.append_failed", "run_id", runID, "error", err.Error())
				}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
	}()
	finish := func() { close(inner); <-forwarded }

	rc := core.NewRunContext(ctx, runID, request, intent, inner, logger)
	rc.EmitEvent(core.NewRunStartedEvent(runID, t.name, request, intent))
	logger.Info("team.run.start", "team", t.name, "run_id", runID, "policy", t.policy.Name())

	plan, err := t.policy.Plan(request, intent, t.Roster())
	if err != nil {
		logger.Error("team.dispatch.failed", "team", t.name, "run_id", runID, "error", err.Error())
		finish()
		return core.TeamResult{}, err
	}

	rc.EmitEvent(core.NewDispatchPlannedEvent(runID, t.name, plan.Policy, plan.Selected()))
	logger.Info("team.dispatch.planned", "team", t.name, "run_id", runID, "agents", plan.Selected())

	results, runErrs := t.fanOut(rc, plan)

	tr, err := t.aggregator.Aggregate(t.name, plan.Policy, results)
	if err != nil {
		// a lone failed agent is more informative than a bare
		// no-valid-result error
		if len(plan.Assignments) == 1 && runErrs[0] != nil {
			err = runErrs[0]
		}
		logger.Error("team.run.failed", "team", t.name, "run_id", runID, "error", err.Error())
		finish()
		return core.TeamResult{}, err
	}

	rc.EmitEvent(core.NewTeamResultEvent(runID, t.name, tr))
	logger.Info("team.run.done", "team", t.name, "run_id", runID, "contributors", tr.Contributors)
	finish()
	return tr, nil
}

// fanOut runs every assignment on its own goroutine and context branch.
// Per-agent failures are contained: they surface as agent.error events and
// slots that never become valid results.
func (t *Team) fanOut(rc *core.RunContext, plan Plan) ([]core.Result, []error) {
	results := make([]core.Result, len(plan.Assignments))
	errs := make([]error, len(plan.Assignments))

	var wg sync.WaitGroup
	for i, as := range plan.Assignments {
		a, ok := t.byName[as.Agent]
		if !ok {
			errs[i] = fmt.Errorf("plan references unknown agent %q", as.Agent)
			rc.EmitEvent(core.NewAgentErrorEvent(rc.RunID, as.Agent, errs[i]))
			continue
		}

		wg.Add(1)
		go func(i int, a *agent.Agent, as Assignment) {
			defer wg.Done()
			branch := t.name + "." + as.Agent
			result, err := a.Run(rc.WithBranch(branch, as.SubRequest))
			results[i], errs[i] = result, err
			if err != nil {
				rc.EmitEvent(core.NewAgentErrorEvent(rc.RunID, as.Agent, err))
				return
			}
			rc.EmitEvent(core.NewAgentResultEvent(rc.RunID, result))
		}(i, a, as)
	}
	wg.Wait()

	return results, errs
}
