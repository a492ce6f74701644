package browser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DriverKind selects the automation backend
type DriverKind string

const (
	DriverSelenium   DriverKind = "selenium"
	DriverPlaywright DriverKind = "playwright"
	DriverRod        DriverKind = "rod"
)

// BrowserKind selects the Chromium flavour to drive
type BrowserKind string

const (
	BrowserChrome BrowserKind = "chrome"
	BrowserEdge   BrowserKind = "edge"
)

// ParseDriverKind - parses a backend name, case-insensitive
func ParseDriverKind(s string) (DriverKind, error) {
	switch k := DriverKind(strings.ToLower(strings.TrimSpace(s))); k {
	case DriverSelenium, DriverPlaywright, DriverRod:
		return k, nil
	}
	return "", fmt.Errorf("unknown driver %q (want selenium, playwright or rod)", s)
}

// ParseBrowserKind - parses a browser name, case-insensitive
func ParseBrowserKind(s string) (BrowserKind, error) {
	switch k := BrowserKind(strings.ToLower(strings.TrimSpace(s))); k {
	case BrowserChrome, BrowserEdge:
		return k, nil
	case "msedge":
		return BrowserEdge, nil
	}
	return "", fmt.Errorf("unknown browser %q (want chrome or edge)", s)
}

// ParseWindowSize parses WIDTHxHEIGHT
func ParseWindowSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid window size %q (want WIDTHxHEIGHT)", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid window width in %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid window height in %q", s)
	}
	return width, height, nil
}

// Options configures how browser sessions are started
type Options struct {
	Driver   DriverKind
	Browser  BrowserKind
	Headless bool
	Width    int
	Height   int

	// DriverPath points at chromedriver/msedgedriver (selenium only)
	DriverPath string
	// DriverPort is the local port the WebDriver service listens on (selenium only)
	DriverPort int
	// BrowserPath overrides browser binary discovery
	BrowserPath string

	NavigationTimeout time.Duration
	ClickTimeout      time.Duration
}

// DefaultOptions returns the settings the console was validated against
func DefaultOptions() Options {
	return Options{
		Driver:            DriverSelenium,
		Browser:           BrowserEdge,
		Headless:          true,
		Width:             1268,
		Height:            720,
		DriverPort:        9515,
		NavigationTimeout: 30 * time.Second,
		ClickTimeout:      5 * time.Second,
	}
}

// Validate - checks option consistency
func (o Options) Validate() error {
	if _, err := ParseDriverKind(string(o.Driver)); err != nil {
		return err
	}
	if _, err := ParseBrowserKind(string(o.Browser)); err != nil {
		return err
	}
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.NavigationTimeout <= 0 || o.ClickTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}
	return nil
}

// chromiumArgs returns the command line flags shared by every backend.
// Headless is set per backend.
func (o Options) chromiumArgs() []string {
	return []string{
		"--disable-gpu",
		fmt.Sprintf("--window-size=%d,%d", o.Width, o.Height),
		"--start-maximized",
		"--disable-dev-shm-usage",
		// BMC consoles ship self-signed certificates
		"--ignore-certificate-errors",
	}
}
