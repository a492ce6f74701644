package security

import (
	"fmt"
	"strings"

	"bmc_collect/domain/entities"

	"github.com/sirupsen/logrus"
)

// destructiveKeywords mark BMC controls that must never be reachable from a locator.
// A misconfigured selector on these pages can power-cycle or wipe the server.
var destructiveKeywords = []string{
	"delete", "remove",
	"reset", "reboot", "restart",
	"shutdown", "poweroff", "power-off", "power_off",
	"factory", "clear", "wipe", "erase",
}

// SecurityLayer screens configured locators before a run touches the console
type SecurityLayer struct {
	logger *logrus.Logger
}

func NewSecurityLayer(logger *logrus.Logger) *SecurityLayer {
	return &SecurityLayer{
		logger: logger,
	}
}

// IsDestructiveLocator reports whether selector names a destructive control
func (s *SecurityLayer) IsDestructiveLocator(selector string) (string, bool) {
	lower := strings.ToLower(selector)
	for _, keyword := range destructiveKeywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// CheckLocators rejects a locator map with any clickable target pointing at a destructive control.
// Input fields are not screened.
func (s *SecurityLayer) CheckLocators(locators entities.LocatorMap) error {
	for _, target := range locators.Targets() {
		if target == entities.TargetUsername || target == entities.TargetPassword {
			continue
		}
		for _, selector := range locators[target] {
			if keyword, ok := s.IsDestructiveLocator(selector); ok {
				s.logger.WithFields(logrus.Fields{
					"target":  target,
					"locator": selector,
				}).Errorf("Refusing destructive locator (matched %q)", keyword)
				return fmt.Errorf("locator %q for %s looks destructive (matched %q)", selector, target, keyword)
			}
		}
	}
	return nil
}
