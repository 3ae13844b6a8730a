// Package session houses concrete implementations of the core.Transcript
// store. The interface itself lives in the core package to centralize
// domain contracts; keeping only implementations here prevents higher level
// packages (agents, teams) from depending on concrete storage.
//
// Add additional backends (Redis, Postgres, etc.) in sub-packages without
// changing any calling code – only the wiring layer needs to decide which
// implementation to instantiate.
package session
