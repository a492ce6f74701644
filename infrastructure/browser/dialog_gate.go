package browser

import (
	"context"
	"fmt"
	"time"
)

// dialogGate lets a driver call return once a native dialog opens.
// Both CDP and playwright calls stall while an alert blocks the page.
type dialogGate struct {
	opened chan struct{}
}

func newDialogGate() *dialogGate {
	return &dialogGate{opened: make(chan struct{}, 1)}
}

// signal - called from the dialog listener, never blocks
func (g *dialogGate) signal() {
	select {
	case g.opened <- struct{}{}:
	default:
	}
}

// run executes action and returns nil as soon as a dialog opens while it is in flight.
// A positive timeout bounds the wait even when the driver call ignores its own.
func (g *dialogGate) run(ctx context.Context, timeout time.Duration, action func() error) error {
	select {
	case <-g.opened:
	default:
	}

	done := make(chan error, 1)
	go func() { done <- action() }()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		return err
	case <-g.opened:
		return nil
	case <-expired:
		return fmt.Errorf("driver call did not return within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await runs action until it returns or ctx is done
func await(ctx context.Context, action func() error) error {
	done := make(chan error, 1)
	go func() { done <- action() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
