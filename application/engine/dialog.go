package engine

import (
	"context"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DialogHandler dismisses the confirmation produced by an action. Native browser
// dialogs are checked first, then the in-page confirm button.
type DialogHandler struct {
	driver   interfaces.Driver
	resolver *Resolver
	clicker  *Clicker
	confirm  entities.LocatorSet
	timeouts entities.Timeouts
	logger   *logrus.Logger
	observer Observer
}

// NewDialogHandler - creates a dialog handler using confirm as the DOM button locators
func NewDialogHandler(driver interfaces.Driver, resolver *Resolver, clicker *Clicker, confirm entities.LocatorSet, timeouts entities.Timeouts, logger *logrus.Logger, observer Observer) *DialogHandler {
	if observer == nil {
		observer = NopObserver()
	}
	return &DialogHandler{
		driver:   driver,
		resolver: resolver,
		clicker:  clicker,
		confirm:  confirm,
		timeouts: timeouts,
		logger:   logger,
		observer: observer,
	}
}

// Resolve never fails: no dialog at all is a valid outcome
func (h *DialogHandler) Resolve(ctx context.Context) entities.DialogOutcome {
	outcome := h.resolve(ctx)
	h.observer.DialogResolved(outcome)
	return outcome
}

func (h *DialogHandler) resolve(ctx context.Context) entities.DialogOutcome {
	if text, ok := h.acceptNative(ctx); ok {
		return entities.NativeDialogAccepted(text)
	}
	if ctx.Err() != nil {
		return entities.NoDialogPresent()
	}

	h.logger.Info("No native dialog, looking for a DOM confirm button")
	perCandidate := min(h.timeouts.PerCandidate, h.timeouts.DomConfirm)
	el, err := h.resolver.Resolve(ctx, entities.TargetConfirmButton, h.confirm, perCandidate, h.timeouts.DomConfirm)
	if err != nil {
		h.logger.Infof("No DOM confirm button, confirmation probably not required: %v", err)
		return entities.NoDialogPresent()
	}
	if err := h.clicker.Click(ctx, el); err != nil {
		h.logger.Warnf("DOM confirm button found but could not be clicked: %v", err)
		return entities.NoDialogPresent()
	}
	return entities.DomDialogAccepted()
}

// acceptNative polls for a native dialog for at most the native timeout
func (h *DialogHandler) acceptNative(ctx context.Context) (string, bool) {
	deadline := time.Now().Add(h.timeouts.NativeDialog)
	for {
		present, err := h.driver.NativeDialogPresent(ctx)
		if err != nil {
			h.logger.Debugf("Native dialog probe failed: %v", err)
		}
		if present {
			text, err := h.driver.NativeDialogText(ctx)
			if err != nil {
				h.logger.Warnf("Failed to read native dialog text: %v", err)
			}
			h.logger.WithField("text", text).Info("Native dialog detected")
			if err := h.driver.NativeDialogAccept(ctx); err != nil {
				h.logger.Warnf("Failed to accept native dialog: %v", err)
				return "", false
			}
			return text, true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false
		}
		if Pause(ctx, min(h.timeouts.PollInterval, remaining)) != nil {
			return "", false
		}
	}
}
