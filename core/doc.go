// Package core defines the shared vocabulary of the crew framework: requests
// and their derived Intent, agent Descriptors, per-agent Results and the
// aggregated TeamResult, the Event stream emitted during a run, the RunContext
// passed to executing agents and the typed error taxonomy.
//
// core deliberately contains no orchestration logic. Teams, dispatch policies
// and aggregation live in the team package; model backends in model; tools in
// tool. Everything here is either immutable configuration (Descriptor, Intent)
// or per-run plumbing (RunContext, Event).
package core
