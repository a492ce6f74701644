package entities

import (
	"fmt"
	"strings"
)

// CandidateError records why one selector did not resolve
type CandidateError struct {
	Locator string
	Err     error
}

// LocatorNotFoundError is returned once every candidate of a LocatorSet is exhausted
type LocatorNotFoundError struct {
	Target     Target
	Candidates []CandidateError
}

func (e *LocatorNotFoundError) Error() string {
	parts := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		parts = append(parts, fmt.Sprintf("%s (%v)", c.Locator, c.Err))
	}
	return fmt.Sprintf("locator not found for %s; tried: %s", e.Target, strings.Join(parts, ", "))
}

// Tried returns the selectors attempted, in order
func (e *LocatorNotFoundError) Tried() []string {
	out := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		out = append(out, c.Locator)
	}
	return out
}

// StrategyAttempt records the failure of one click strategy
type StrategyAttempt struct {
	Strategy string
	Err      error
}

// ClickFailedError is returned when every click strategy raised
type ClickFailedError struct {
	Target   Target
	Locator  string
	Attempts []StrategyAttempt
}

func (e *ClickFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("click failed on %s (%s): %s", e.Target, e.Locator, strings.Join(parts, "; "))
}

// Unwrap exposes the error of the last strategy tried
func (e *ClickFailedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// SessionCreationFailedError is returned when the browser session cannot start
type SessionCreationFailedError struct {
	Driver string
	Err    error
}

func (e *SessionCreationFailedError) Error() string {
	return fmt.Sprintf("session creation failed (%s): %v", e.Driver, e.Err)
}

func (e *SessionCreationFailedError) Unwrap() error { return e.Err }

// UnexpectedPageStateError wraps any other driver failure raised during a step
type UnexpectedPageStateError struct {
	Step string
	Err  error
}

func (e *UnexpectedPageStateError) Error() string {
	return fmt.Sprintf("unexpected page state during %s: %v", e.Step, e.Err)
}

func (e *UnexpectedPageStateError) Unwrap() error { return e.Err }
