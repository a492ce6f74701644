package entities

import "fmt"

// WorkflowState represents the position of a run in the collection workflow
type WorkflowState string

const (
	StateStart           WorkflowState = "start"
	StateNavigated       WorkflowState = "navigated"
	StateAuthenticated   WorkflowState = "authenticated"
	StateActionTriggered WorkflowState = "action_triggered"
	StateDialogResolved  WorkflowState = "dialog_resolved"
	StateSettled         WorkflowState = "settled"
	StateFailed          WorkflowState = "failed"
)

// forward lists the only successor of each non-terminal state
var forward = map[WorkflowState]WorkflowState{
	StateStart:           StateNavigated,
	StateNavigated:       StateAuthenticated,
	StateAuthenticated:   StateActionTriggered,
	StateActionTriggered: StateDialogResolved,
	StateDialogResolved:  StateSettled,
}

// IsTerminal reports whether no further transition is possible
func (s WorkflowState) IsTerminal() bool {
	return s == StateSettled || s == StateFailed
}

// Next returns the forward successor of s
func (s WorkflowState) Next() (WorkflowState, bool) {
	n, ok := forward[s]
	return n, ok
}

// CheckTransition validates from -> to. Every non-terminal state may also fail.
func CheckTransition(from, to WorkflowState) error {
	if from.IsTerminal() {
		return fmt.Errorf("disallowed transition: %s is terminal", from)
	}
	if to == StateFailed {
		return nil
	}
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	return fmt.Errorf("disallowed transition: %s -> %s", from, to)
}
