package browser

import (
	"context"
	"fmt"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory starts one browser session per run with the configured backend
type Factory struct {
	opts   Options
	logger *logrus.Logger
	start  func(Options, *logrus.Logger) (interfaces.Driver, error)
}

// NewFactory - creates a session factory for opts
func NewFactory(opts Options, logger *logrus.Logger) (*Factory, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := &Factory{opts: opts, logger: logger}
	switch opts.Driver {
	case DriverPlaywright:
		f.start = func(o Options, l *logrus.Logger) (interfaces.Driver, error) { return newPlaywrightDriver(o, l) }
	case DriverRod:
		f.start = func(o Options, l *logrus.Logger) (interfaces.Driver, error) { return newRodDriver(o, l) }
	default:
		f.start = func(o Options, l *logrus.Logger) (interfaces.Driver, error) { return newSeleniumDriver(o, l) }
	}
	return f, nil
}

// Name identifies the backend and browser, e.g. "selenium/edge"
func (f *Factory) Name() string {
	return fmt.Sprintf("%s/%s", f.opts.Driver, f.opts.Browser)
}

// Open starts a session. Startup is not interruptible; ctx is checked before launching.
func (f *Factory) Open(ctx context.Context) (interfaces.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, &entities.SessionCreationFailedError{Driver: f.Name(), Err: err}
	}

	f.logger.WithFields(logrus.Fields{
		"driver":   f.opts.Driver,
		"browser":  f.opts.Browser,
		"headless": f.opts.Headless,
	}).Info("Launching browser")

	driver, err := f.start(f.opts, f.logger)
	if err != nil {
		return nil, &entities.SessionCreationFailedError{Driver: f.Name(), Err: err}
	}
	return driver, nil
}

var _ interfaces.SessionFactory = (*Factory)(nil)
