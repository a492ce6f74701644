package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	driverNames = map[BrowserKind][]string{
		BrowserChrome: {"chromedriver"},
		BrowserEdge:   {"msedgedriver"},
	}

	browserPaths = map[BrowserKind][]string{
		BrowserChrome: {
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		},
		BrowserEdge: {
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			"/usr/bin/microsoft-edge",
			"/usr/bin/microsoft-edge-stable",
			"/opt/microsoft/msedge/msedge",
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
		},
	}

	browserCommands = map[BrowserKind][]string{
		BrowserChrome: {"google-chrome", "chromium", "chromium-browser"},
		BrowserEdge:   {"microsoft-edge", "microsoft-edge-stable", "msedge"},
	}
)

// findDriver - finds the WebDriver executable for browser
func findDriver(browser BrowserKind, override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("driver path %s: %w", override, err)
		}
		return override, nil
	}

	for _, name := range driverNames[browser] {
		candidates := []string{
			filepath.Join("/usr/local/bin", name),
			filepath.Join("/usr/bin", name),
			filepath.Join("/opt/homebrew/bin", name),
			filepath.Join(os.Getenv("HOME"), "bin", name),
		}
		for _, path := range candidates {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%v not found. Please install it or set BMC_DRIVER_PATH", driverNames[browser])
}

// findBrowserBinary - finds the browser executable, empty when discovery should be left to the driver
func findBrowserBinary(browser BrowserKind, override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}

	for _, path := range browserPaths[browser] {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range browserCommands[browser] {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}
