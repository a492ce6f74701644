package config

import (
	"fmt"
	"os"

	"bmc_collect/domain/entities"

	"gopkg.in/yaml.v3"
)

// LoadLocators reads a YAML file of target name -> selector list.
//
//	collect:
//	  - "div#collect"
//	  - "button[data-action='collect']"
func LoadLocators(path string) (entities.LocatorMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locators file: %w", err)
	}
	return ParseLocators(data)
}

// ParseLocators decodes locator overrides. Unknown targets and empty lists are rejected.
func ParseLocators(data []byte) (entities.LocatorMap, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse locators: %w", err)
	}

	out := make(entities.LocatorMap, len(raw))
	for name, selectors := range raw {
		target, err := entities.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		if len(selectors) == 0 {
			return nil, fmt.Errorf("locators for %s must not be empty", target)
		}
		out[target] = entities.LocatorSet(selectors)
	}
	return out, nil
}
