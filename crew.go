// Package crew provides a high-level façade over teams, agents and the
// shared run services (intent extraction, transcripts & logging) enabling
// rapid construction of multi‑agent LLM systems. Most applications interact
// with this package by:
//  1. Creating a Crew via New() (optionally overriding default in‑memory services)
//  2. Registering one or more teams (route, collaborate, coordinate)
//  3. Running requests synchronously (Run) or as an event stream (RunStream)
//
// The façade delegates orchestration to team.Team while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable transcript store
// and a structured logger.
package crew

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewkit/crew/agent"
	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/extract"
	"github.com/crewkit/crew/logging"
	"github.com/crewkit/crew/session"
	"github.com/crewkit/crew/team"
)

// Options configures the Crew instance.
type Options struct {
	// Transcript records every event of every run (defaults to an
	// in-memory store if not provided).
	Transcript core.Transcript

	// Extractor derives typed intents from request text. All registered
	// teams share the same extractor so a request is interpreted
	// identically no matter which team serves it.
	Extractor *extract.Extractor

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Crew is the high-level façade aggregating teams and their shared services.
type Crew struct {
	opts Options

	mu    sync.RWMutex
	teams map[string]*team.Team
}

// New creates a new Crew instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Crew {
	opts := Options{
		Transcript: session.NewInMemoryTranscript(),
		Extractor:  extract.New(),
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Crew{opts: opts, teams: make(map[string]*team.Team)}
}

// NewTeam constructs a team wired to the crew's shared transcript, extractor
// and logger, and registers it under its name. Team-level options passed here
// override the shared defaults.
func (c *Crew) NewTeam(name string, policy team.Policy, agents []*agent.Agent, optFns ...func(o *team.Options)) (*team.Team, error) {
	t, err := team.New(name, policy, agents, func(o *team.Options) {
		o.Transcript = c.opts.Transcript
		o.Extractor = c.opts.Extractor
		o.Logger = c.opts.Logger

		for _, fn := range optFns {
			fn(o)
		}
	})
	if err != nil {
		return nil, err
	}

	if err := c.RegisterTeam(t); err != nil {
		return nil, err
	}

	return t, nil
}

// RegisterTeam adds an externally constructed team to the crew. Names must be
// unique across the crew.
func (c *Crew) RegisterTeam(t *team.Team) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.teams[t.Name()]; ok {
		return fmt.Errorf("team %q is already registered", t.Name())
	}

	c.teams[t.Name()] = t

	return nil
}

// Team returns the registered team with the given name, if any.
func (c *Crew) Team(name string) (*team.Team, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.teams[name]

	return t, ok
}

// Run executes a request against the named team and blocks until the team
// result is available.
func (c *Crew) Run(ctx context.Context, teamName, request string) (core.TeamResult, error) {
	t, ok := c.Team(teamName)
	if !ok {
		return core.TeamResult{}, fmt.Errorf("no team registered under %q", teamName)
	}

	return t.Run(ctx, request)
}

// RunStream executes a request against the named team, returning the run ID
// together with event and error channels for real-time consumption.
func (c *Crew) RunStream(ctx context.Context, teamName, request string) (string, <-chan core.Event, <-chan error, error) {
	t, ok := c.Team(teamName)
	if !ok {
		return "", nil, nil, fmt.Errorf("no team registered under %q", teamName)
	}

	return t.RunStream(ctx, request)
}

// Transcript exposes the crew's shared transcript store, e.g. to replay a
// run's events after a synchronous Run call.
func (c *Crew) Transcript() core.Transcript {
	return c.opts.Transcript
}
