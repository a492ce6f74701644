package entities

import (
	"fmt"
	"sort"
)

// Target identifies one logical control on the BMC console
type Target string

const (
	TargetUsername      Target = "username"
	TargetPassword      Target = "password"
	TargetLoginButton   Target = "login"
	TargetCollectButton Target = "collect"
	TargetConfirmButton Target = "confirm"
)

// AllTargets lists every target the workflow touches, in workflow order
var AllTargets = []Target{
	TargetUsername,
	TargetPassword,
	TargetLoginButton,
	TargetCollectButton,
	TargetConfirmButton,
}

// ParseTarget converts a configuration key into a Target
func ParseTarget(name string) (Target, error) {
	for _, t := range AllTargets {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q", name)
}

// LocatorSet is an ordered list of CSS selectors for one target, most specific first.
// Order defines priority.
type LocatorSet []string

// Primary returns the highest-priority candidate
func (s LocatorSet) Primary() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// LocatorMap maps every target to its locator set
type LocatorMap map[Target]LocatorSet

// DefaultLocators returns the selectors known to work across common BMC firmware builds
func DefaultLocators() LocatorMap {
	return LocatorMap{
		TargetUsername: {
			"input#username",
			"input[name='username']",
			"input[name='user']",
			"input[type='text']",
		},
		TargetPassword: {
			"input#password",
			"input[name='password']",
			"input[type='password']",
		},
		TargetLoginButton: {
			"button#login",
			"button[type='submit']",
			"input[type='submit']",
			"div.login-button",
			"div[role='button'].login",
			"button.btn.btn-primaryblock.full-width.m-b",
		},
		TargetCollectButton: {
			"div#collect",
			"div.collect",
			"button#collect",
			"button.collect",
			"div[role='button'][data-action='collect']",
		},
		TargetConfirmButton: {
			"button#confirm",
			"button.confirm",
			"button[data-type='confirm']",
			"div.modal-footer button.btn-primary",
			".modal-footer .btn-primary",
		},
	}
}

// Merge returns a copy of m with every set in overrides replacing the matching target
func (m LocatorMap) Merge(overrides LocatorMap) LocatorMap {
	out := make(LocatorMap, len(m))
	for t, set := range m {
		out[t] = append(LocatorSet(nil), set...)
	}
	for t, set := range overrides {
		out[t] = append(LocatorSet(nil), set...)
	}
	return out
}

// Validate checks that every target has a non-empty set without blank selectors
func (m LocatorMap) Validate() error {
	for _, t := range AllTargets {
		set, ok := m[t]
		if !ok || len(set) == 0 {
			return fmt.Errorf("locator set for %s is empty", t)
		}
		for i, sel := range set {
			if sel == "" {
				return fmt.Errorf("locator set for %s has a blank selector at position %d", t, i)
			}
		}
	}
	return nil
}

// Targets returns the configured targets sorted by name
func (m LocatorMap) Targets() []Target {
	out := make([]Target, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
