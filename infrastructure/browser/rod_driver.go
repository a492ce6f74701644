package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bmc_collect/domain/interfaces"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// rodDriver drives the browser over CDP with go-rod
type rodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
	logger   *logrus.Logger

	dialogMutex sync.Mutex
	dialog      *proto.PageJavascriptDialogOpening
	dialogs     *dialogGate

	closeOnce sync.Once
}

// newRodDriver - launches the browser and opens one page
func newRodDriver(opts Options, logger *logrus.Logger) (*rodDriver, error) {
	l := launcher.New().
		Leakless(true).
		Headless(opts.Headless)

	if binary := findBrowserBinary(opts.Browser, opts.BrowserPath); binary != "" {
		logger.Infof("Using browser binary at: %s", binary)
		l = l.Bin(binary)
	} else if opts.Browser == BrowserEdge {
		return nil, fmt.Errorf("edge browser not found, set BMC_BROWSER_PATH")
	}

	for _, arg := range opts.chromiumArgs() {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if hasValue {
			l = l.Set(flags.Flag(name), value)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	if err := browser.IgnoreCertErrors(true); err != nil {
		logger.Warnf("Failed to ignore certificate errors: %v", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  opts.Width,
		Height: opts.Height,
	}); err != nil {
		logger.Warnf("Failed to set viewport: %v", err)
	}

	d := &rodDriver{
		launcher: l,
		browser:  browser,
		page:     page,
		opts:     opts,
		logger:   logger,
		dialogs:  newDialogGate(),
	}

	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		d.setDialog(e)
		d.dialogs.signal()
	}, func(e *proto.PageJavascriptDialogClosed) {
		d.setDialog(nil)
	})()

	return d, nil
}

func (r *rodDriver) setDialog(e *proto.PageJavascriptDialogOpening) {
	r.dialogMutex.Lock()
	defer r.dialogMutex.Unlock()
	r.dialog = e
}

func (r *rodDriver) pendingDialog() *proto.PageJavascriptDialogOpening {
	r.dialogMutex.Lock()
	defer r.dialogMutex.Unlock()
	return r.dialog
}

func (r *rodDriver) Open(ctx context.Context, url string) error {
	page := r.page.Context(ctx).Timeout(r.opts.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (r *rodDriver) FindElement(ctx context.Context, locator string) (interfaces.Element, error) {
	has, el, err := r.page.Context(ctx).Has(locator)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoSuchElement, locator)
	}
	return el, nil
}

func (r *rodDriver) Click(ctx context.Context, el interfaces.Element) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	return r.dialogs.run(ctx, r.opts.ClickTimeout, func() error {
		return e.Context(ctx).Timeout(r.opts.ClickTimeout).Click(proto.InputMouseButtonLeft, 1)
	})
}

func (r *rodDriver) SetText(ctx context.Context, el interfaces.Element, value string) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	e = e.Context(ctx).Timeout(r.opts.ClickTimeout)
	if err := e.SelectAllText(); err != nil {
		r.logger.Warnf("Failed to clear element: %v", err)
	}
	return e.Input(value)
}

func (r *rodDriver) RunScript(ctx context.Context, script string, el interfaces.Element) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	return r.dialogs.run(ctx, r.opts.ClickTimeout, func() error {
		_, err := e.Context(ctx).Eval(fmt.Sprintf("function() { return (%s)(this) }", script))
		return err
	})
}

func (r *rodDriver) TakeSnapshot(ctx context.Context) ([]byte, error) {
	return r.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (r *rodDriver) DumpDocument(ctx context.Context) (string, error) {
	return r.page.Context(ctx).HTML()
}

func (r *rodDriver) NativeDialogPresent(ctx context.Context) (bool, error) {
	return r.pendingDialog() != nil, nil
}

func (r *rodDriver) NativeDialogText(ctx context.Context) (string, error) {
	dialog := r.pendingDialog()
	if dialog == nil {
		return "", interfaces.ErrNoDialog
	}
	return dialog.Message, nil
}

func (r *rodDriver) NativeDialogAccept(ctx context.Context) error {
	if r.pendingDialog() == nil {
		return interfaces.ErrNoDialog
	}
	if err := (proto.PageHandleJavaScriptDialog{Accept: true}).Call(r.page.Context(ctx)); err != nil {
		return err
	}
	r.setDialog(nil)
	return nil
}

// Close - closes the browser and kills the launched process
func (r *rodDriver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.browser != nil {
			if cerr := r.browser.Close(); cerr != nil {
				err = fmt.Errorf("close browser: %w", cerr)
			}
		}
		if r.launcher != nil {
			r.launcher.Kill()
			r.launcher.Cleanup()
		}
	})
	return err
}

func rodElement(el interfaces.Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("rod: unexpected element handle %T", el)
	}
	return e, nil
}

var _ interfaces.Driver = (*rodDriver)(nil)
