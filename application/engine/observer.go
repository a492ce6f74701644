package engine

import "bmc_collect/domain/entities"

// Observer receives engine events, used for metrics
type Observer interface {
	ClickSucceeded(target entities.Target, strategy string)
	DialogResolved(outcome entities.DialogOutcome)
}

type nopObserver struct{}

func (nopObserver) ClickSucceeded(entities.Target, string) {}
func (nopObserver) DialogResolved(entities.DialogOutcome) {}

// NopObserver discards every event
func NopObserver() Observer { return nopObserver{} }
