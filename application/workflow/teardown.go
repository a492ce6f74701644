package workflow

import (
	"sync"

	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// teardownGuard owns a driver session and closes it exactly once
type teardownGuard struct {
	driver interfaces.Driver
	logger *logrus.Logger
	once   sync.Once
}

func newTeardownGuard(driver interfaces.Driver, logger *logrus.Logger) *teardownGuard {
	return &teardownGuard{driver: driver, logger: logger}
}

// Release closes the session. Close errors are logged, they never change the run result.
func (g *teardownGuard) Release() {
	g.once.Do(func() {
		if err := g.driver.Close(); err != nil {
			g.logger.Warnf("Failed to close browser session: %v", err)
		}
		g.logger.Info("Browser session closed")
	})
}
