package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bmc_collect/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// seleniumDriver drives Chrome or Edge through a local chromedriver/msedgedriver service
type seleniumDriver struct {
	wd        selenium.WebDriver
	service   *selenium.Service
	logger    *logrus.Logger
	closeOnce sync.Once
}

// newSeleniumDriver - starts the WebDriver service and opens a browser session
func newSeleniumDriver(opts Options, logger *logrus.Logger) (*seleniumDriver, error) {
	driverPath, err := findDriver(opts.Browser, opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find webdriver: %w", err)
	}
	logger.Infof("Using WebDriver at: %s", driverPath)

	service, err := selenium.NewChromeDriverService(driverPath, opts.DriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start webdriver service: %w", err)
	}

	args := opts.chromiumArgs()
	if opts.Headless {
		args = append([]string{"--headless=new"}, args...)
	}
	browserCaps := chrome.Capabilities{Args: args}
	if binary := findBrowserBinary(opts.Browser, opts.BrowserPath); binary != "" {
		logger.Infof("Using browser binary at: %s", binary)
		browserCaps.Path = binary
	}

	caps := selenium.Capabilities{"acceptInsecureCerts": true}
	switch opts.Browser {
	case BrowserEdge:
		caps["browserName"] = "MicrosoftEdge"
		caps["ms:edgeOptions"] = browserCaps
	default:
		caps["browserName"] = "chrome"
		caps.AddChrome(browserCaps)
	}

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", opts.DriverPort))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find") {
			return nil, fmt.Errorf("failed to create webdriver: %s browser not found, set BMC_BROWSER_PATH: %w", opts.Browser, err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	if err := wd.SetPageLoadTimeout(opts.NavigationTimeout); err != nil {
		logger.Warnf("Failed to set page load timeout: %v", err)
	}

	return &seleniumDriver{
		wd:      wd,
		service: service,
		logger:  logger,
	}, nil
}

// Open - navigates to url
func (s *seleniumDriver) Open(ctx context.Context, url string) error {
	return s.wd.Get(url)
}

// FindElement - looks up a CSS selector once
func (s *seleniumDriver) FindElement(ctx context.Context, locator string) (interfaces.Element, error) {
	el, err := s.wd.FindElement(selenium.ByCSSSelector, locator)
	if err != nil {
		if isWebDriverError(err, "no such element") {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNoSuchElement, locator)
		}
		return nil, err
	}
	return el, nil
}

func (s *seleniumDriver) Click(ctx context.Context, el interfaces.Element) error {
	we, err := webElement(el)
	if err != nil {
		return err
	}
	return we.Click()
}

func (s *seleniumDriver) SetText(ctx context.Context, el interfaces.Element, value string) error {
	we, err := webElement(el)
	if err != nil {
		return err
	}
	if err := we.Clear(); err != nil {
		s.logger.Warnf("Failed to clear element: %v", err)
	}
	return we.SendKeys(value)
}

// RunScript - calls script with the element as its only argument
func (s *seleniumDriver) RunScript(ctx context.Context, script string, el interfaces.Element) error {
	we, err := webElement(el)
	if err != nil {
		return err
	}
	_, err = s.wd.ExecuteScript(fmt.Sprintf("return (%s)(arguments[0]);", script), []interface{}{we})
	return err
}

func (s *seleniumDriver) TakeSnapshot(ctx context.Context) ([]byte, error) {
	return s.wd.Screenshot()
}

func (s *seleniumDriver) DumpDocument(ctx context.Context) (string, error) {
	return s.wd.PageSource()
}

func (s *seleniumDriver) NativeDialogPresent(ctx context.Context) (bool, error) {
	_, err := s.wd.AlertText()
	if err == nil {
		return true, nil
	}
	if isWebDriverError(err, "no such alert") {
		return false, nil
	}
	return false, err
}

func (s *seleniumDriver) NativeDialogText(ctx context.Context) (string, error) {
	text, err := s.wd.AlertText()
	if err != nil && isWebDriverError(err, "no such alert") {
		return "", interfaces.ErrNoDialog
	}
	return text, err
}

func (s *seleniumDriver) NativeDialogAccept(ctx context.Context) error {
	err := s.wd.AcceptAlert()
	if err != nil && isWebDriverError(err, "no such alert") {
		return interfaces.ErrNoDialog
	}
	return err
}

// Close - quits the browser and stops the WebDriver service
func (s *seleniumDriver) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.wd != nil {
			if qerr := s.wd.Quit(); qerr != nil {
				err = fmt.Errorf("quit webdriver: %w", qerr)
			}
		}
		if s.service != nil {
			if serr := s.service.Stop(); serr != nil && err == nil {
				err = fmt.Errorf("stop webdriver service: %w", serr)
			}
		}
	})
	return err
}

func webElement(el interfaces.Element) (selenium.WebElement, error) {
	we, ok := el.(selenium.WebElement)
	if !ok || we == nil {
		return nil, fmt.Errorf("selenium: unexpected element handle %T", el)
	}
	return we, nil
}

// isWebDriverError matches a W3C error code, falling back to the message for legacy drivers
func isWebDriverError(err error, code string) bool {
	var werr *selenium.Error
	if errors.As(err, &werr) {
		return werr.Err == code
	}
	return strings.Contains(err.Error(), code)
}

var _ interfaces.Driver = (*seleniumDriver)(nil)
