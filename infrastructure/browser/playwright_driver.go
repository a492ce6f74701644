package browser

import (
	"context"
	"fmt"
	"sync"

	"bmc_collect/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// playwrightDriver drives Chromium-based browsers through Playwright.
// Native dialogs are held open by the OnDialog listener until accepted, and the page
// stays frozen meanwhile, so click and evaluate calls go through the dialog gate.
type playwrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	opts    Options
	logger  *logrus.Logger

	dialogMutex sync.Mutex
	dialog      playwright.Dialog
	dialogs     *dialogGate

	closeOnce sync.Once
}

var playwrightChannels = map[BrowserKind]string{
	BrowserChrome: "chrome",
	BrowserEdge:   "msedge",
}

// newPlaywrightDriver - starts playwright and opens a single page
func newPlaywrightDriver(opts Options, logger *logrus.Logger) (*playwrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.chromiumArgs(),
		Timeout:  playwright.Float(float64(opts.NavigationTimeout.Milliseconds())),
	}
	if binary := findBrowserBinary(opts.Browser, opts.BrowserPath); binary != "" {
		logger.Infof("Using browser binary at: %s", binary)
		launch.ExecutablePath = playwright.String(binary)
	} else {
		launch.Channel = playwright.String(playwrightChannels[opts.Browser])
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	d := &playwrightDriver{
		pw:      pw,
		browser: browser,
		bctx:    bctx,
		page:    page,
		opts:    opts,
		logger:  logger,
		dialogs: newDialogGate(),
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		d.dialogMutex.Lock()
		d.dialog = dialog
		d.dialogMutex.Unlock()
		d.dialogs.signal()
	})

	return d, nil
}

func (p *playwrightDriver) Open(ctx context.Context, url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(p.opts.NavigationTimeout.Milliseconds())),
	})
	return err
}

func (p *playwrightDriver) FindElement(ctx context.Context, locator string) (interfaces.Element, error) {
	handle, err := p.page.QuerySelector(locator)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoSuchElement, locator)
	}
	return handle, nil
}

func (p *playwrightDriver) Click(ctx context.Context, el interfaces.Element) error {
	handle, err := elementHandle(el)
	if err != nil {
		return err
	}
	return p.dialogs.run(ctx, p.opts.ClickTimeout, func() error {
		return handle.Click(playwright.ElementHandleClickOptions{
			Timeout: playwright.Float(float64(p.opts.ClickTimeout.Milliseconds())),
		})
	})
}

func (p *playwrightDriver) SetText(ctx context.Context, el interfaces.Element, value string) error {
	handle, err := elementHandle(el)
	if err != nil {
		return err
	}
	return handle.Fill(value, playwright.ElementHandleFillOptions{
		Timeout: playwright.Float(float64(p.opts.ClickTimeout.Milliseconds())),
	})
}

// RunScript - evaluates script; playwright passes the handle as the first argument
func (p *playwrightDriver) RunScript(ctx context.Context, script string, el interfaces.Element) error {
	handle, err := elementHandle(el)
	if err != nil {
		return err
	}
	return p.dialogs.run(ctx, p.opts.ClickTimeout, func() error {
		_, err := handle.Evaluate(script)
		return err
	})
}

func (p *playwrightDriver) TakeSnapshot(ctx context.Context) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Type:     playwright.ScreenshotTypePng,
		FullPage: playwright.Bool(true),
		Timeout:  playwright.Float(float64(p.opts.NavigationTimeout.Milliseconds())),
	})
}

func (p *playwrightDriver) DumpDocument(ctx context.Context) (string, error) {
	var markup string
	err := await(ctx, func() error {
		var err error
		markup, err = p.page.Content()
		return err
	})
	if err != nil {
		return "", err
	}
	return markup, nil
}

func (p *playwrightDriver) pendingDialog() playwright.Dialog {
	p.dialogMutex.Lock()
	defer p.dialogMutex.Unlock()
	return p.dialog
}

func (p *playwrightDriver) NativeDialogPresent(ctx context.Context) (bool, error) {
	return p.pendingDialog() != nil, nil
}

func (p *playwrightDriver) NativeDialogText(ctx context.Context) (string, error) {
	dialog := p.pendingDialog()
	if dialog == nil {
		return "", interfaces.ErrNoDialog
	}
	return dialog.Message(), nil
}

func (p *playwrightDriver) NativeDialogAccept(ctx context.Context) error {
	p.dialogMutex.Lock()
	dialog := p.dialog
	p.dialog = nil
	p.dialogMutex.Unlock()

	if dialog == nil {
		return interfaces.ErrNoDialog
	}
	return dialog.Accept()
}

// Close - closes the context and browser and stops the playwright driver
func (p *playwrightDriver) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.bctx != nil {
			if cerr := p.bctx.Close(); cerr != nil {
				p.logger.Warnf("Failed to close context: %v", cerr)
			}
		}
		if p.browser != nil {
			if cerr := p.browser.Close(); cerr != nil {
				err = fmt.Errorf("close browser: %w", cerr)
			}
		}
		if p.pw != nil {
			if serr := p.pw.Stop(); serr != nil && err == nil {
				err = fmt.Errorf("stop playwright: %w", serr)
			}
		}
	})
	return err
}

func elementHandle(el interfaces.Element) (playwright.ElementHandle, error) {
	handle, ok := el.(playwright.ElementHandle)
	if !ok || handle == nil {
		return nil, fmt.Errorf("playwright: unexpected element handle %T", el)
	}
	return handle, nil
}

var _ interfaces.Driver = (*playwrightDriver)(nil)
