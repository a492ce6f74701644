package entities

import (
	"fmt"
	"time"
)

// Timeouts bounds every wait performed by the engine
type Timeouts struct {
	PerCandidate     time.Duration `json:"per_candidate"`
	Step             time.Duration `json:"step"`
	NativeDialog     time.Duration `json:"native_dialog"`
	DomConfirm       time.Duration `json:"dom_confirm"`
	ScrollSettle     time.Duration `json:"scroll_settle"`
	PostLoginSettle  time.Duration `json:"post_login_settle"`
	PostActionSettle time.Duration `json:"post_action_settle"`
	PollInterval     time.Duration `json:"poll_interval"`
}

// Upper limits for the configurable waits
const (
	MaxPerCandidate = 8 * time.Second
	MaxStep         = 30 * time.Second
	MaxNativeDialog = 10 * time.Second
	MaxDomConfirm   = 15 * time.Second
)

// DefaultTimeouts returns the production bounds
func DefaultTimeouts() Timeouts {
	return Timeouts{
		PerCandidate:     8 * time.Second,
		Step:             30 * time.Second,
		NativeDialog:     8 * time.Second,
		DomConfirm:       15 * time.Second,
		ScrollSettle:     200 * time.Millisecond,
		PostLoginSettle:  time.Second,
		PostActionSettle: 2 * time.Second,
		PollInterval:     250 * time.Millisecond,
	}
}

// Validate rejects unbounded or inconsistent values
func (t Timeouts) Validate() error {
	bounds := []struct {
		name string
		d    time.Duration
	}{
		{"per-candidate", t.PerCandidate},
		{"step", t.Step},
		{"native dialog", t.NativeDialog},
		{"dom confirm", t.DomConfirm},
		{"poll interval", t.PollInterval},
	}
	for _, b := range bounds {
		if b.d <= 0 {
			return fmt.Errorf("%s timeout must be positive, got %s", b.name, b.d)
		}
	}
	if t.ScrollSettle < 0 || t.PostLoginSettle < 0 || t.PostActionSettle < 0 {
		return fmt.Errorf("settle pauses must not be negative")
	}
	if t.PerCandidate > t.Step {
		return fmt.Errorf("per-candidate timeout %s exceeds step timeout %s", t.PerCandidate, t.Step)
	}

	limits := []struct {
		name     string
		d, limit time.Duration
	}{
		{"per-candidate", t.PerCandidate, MaxPerCandidate},
		{"step", t.Step, MaxStep},
		{"native dialog", t.NativeDialog, MaxNativeDialog},
		{"dom confirm", t.DomConfirm, MaxDomConfirm},
	}
	for _, l := range limits {
		if l.d > l.limit {
			return fmt.Errorf("%s timeout %s exceeds the %s limit", l.name, l.d, l.limit)
		}
	}
	return nil
}
