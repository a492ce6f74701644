package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bmc_collect/domain/entities"
	"bmc_collect/infrastructure/browser"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is built once at startup and passed down read-only
type Config struct {
	URL      string
	Username string
	Password string

	Browser  browser.Options
	Locators entities.LocatorMap
	Timeouts entities.Timeouts

	LocatorsFile string
	ArtifactDir  string
	LogFile      string
	LogLevel     logrus.Level

	Schedule   string
	ListenAddr string
}

// LookupFunc reads one setting, os.LookupEnv in production
type LookupFunc func(key string) (string, bool)

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		URL:         "http://192.168.1.100/",
		Username:    "admin",
		Password:    "admin",
		Browser:     browser.DefaultOptions(),
		Locators:    entities.DefaultLocators(),
		Timeouts:    entities.DefaultTimeouts(),
		ArtifactDir: ".",
		LogFile:     "bmc_collect.log",
		LogLevel:    logrus.InfoLevel,
		Schedule:    "@every 1h",
		ListenAddr:  ":8080",
	}
}

// FromEnv loads an optional .env file and reads the process environment
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(os.LookupEnv)
}

// Load builds and validates a Config from lookup
func Load(lookup LookupFunc) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	cfg.URL = r.str("BMC_URL", cfg.URL)
	cfg.Username = r.str("BMC_USER", cfg.Username)
	cfg.Password = r.str("BMC_PASS", cfg.Password)

	cfg.Browser.Browser = browser.BrowserKind(r.str("BROWSER", string(cfg.Browser.Browser)))
	cfg.Browser.Driver = browser.DriverKind(r.str("BMC_DRIVER", string(cfg.Browser.Driver)))
	cfg.Browser.Headless = r.boolean("HEADLESS", cfg.Browser.Headless)
	cfg.Browser.DriverPath = r.str("BMC_DRIVER_PATH", "")
	cfg.Browser.BrowserPath = r.str("BMC_BROWSER_PATH", "")
	cfg.Browser.DriverPort = r.integer("BMC_DRIVER_PORT", cfg.Browser.DriverPort)
	if size, ok := lookup("BMC_WINDOW_SIZE"); ok && size != "" {
		w, h, err := browser.ParseWindowSize(size)
		if err != nil {
			r.fail("BMC_WINDOW_SIZE", err)
		}
		cfg.Browser.Width, cfg.Browser.Height = w, h
	}

	t := &cfg.Timeouts
	t.PerCandidate = r.duration("BMC_CANDIDATE_TIMEOUT", t.PerCandidate)
	t.Step = r.duration("BMC_STEP_TIMEOUT", t.Step)
	t.NativeDialog = r.duration("BMC_NATIVE_DIALOG_TIMEOUT", t.NativeDialog)
	t.DomConfirm = r.duration("BMC_CONFIRM_TIMEOUT", t.DomConfirm)
	t.ScrollSettle = r.duration("BMC_SCROLL_SETTLE", t.ScrollSettle)
	t.PostLoginSettle = r.duration("BMC_LOGIN_SETTLE", t.PostLoginSettle)
	t.PostActionSettle = r.duration("BMC_ACTION_SETTLE", t.PostActionSettle)
	t.PollInterval = r.duration("BMC_POLL_INTERVAL", t.PollInterval)
	cfg.Browser.NavigationTimeout = t.Step

	cfg.LocatorsFile = r.str("BMC_LOCATORS_FILE", "")
	cfg.ArtifactDir = r.str("BMC_ARTIFACT_DIR", cfg.ArtifactDir)
	cfg.LogFile = r.str("BMC_LOG_FILE", cfg.LogFile)
	if level, ok := lookup("BMC_LOG_LEVEL"); ok && level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			r.fail("BMC_LOG_LEVEL", err)
		}
		cfg.LogLevel = parsed
	}

	cfg.Schedule = r.str("BMC_SCHEDULE", cfg.Schedule)
	cfg.ListenAddr = r.str("BMC_LISTEN_ADDR", cfg.ListenAddr)

	if r.err != nil {
		return Config{}, r.err
	}

	if cfg.LocatorsFile != "" {
		overrides, err := LoadLocators(cfg.LocatorsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Locators = cfg.Locators.Merge(overrides)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations a run cannot succeed with
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("BMC_URL must not be empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BMC_URL %q is not an http(s) URL", c.URL)
	}
	if c.Username == "" {
		return errors.New("BMC_USER must not be empty")
	}
	if err := c.Browser.Validate(); err != nil {
		return err
	}
	if err := c.Locators.Validate(); err != nil {
		return err
	}
	if err := c.Timeouts.Validate(); err != nil {
		return err
	}
	if c.ArtifactDir == "" {
		return errors.New("BMC_ARTIFACT_DIR must not be empty")
	}
	return nil
}

// Fields returns the loggable view of the configuration. Credentials are left out.
func (c Config) Fields() logrus.Fields {
	return logrus.Fields{
		"url":      c.URL,
		"user":     c.Username,
		"driver":   c.Browser.Driver,
		"browser":  c.Browser.Browser,
		"headless": c.Browser.Headless,
	}
}

// reader collects the first parse error so Load reports one problem at a time
type reader struct {
	lookup LookupFunc
	err    error
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.fail(key, fmt.Errorf("%q is not a boolean", v))
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}
