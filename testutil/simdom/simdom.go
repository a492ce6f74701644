// Package simdom provides an in-memory page implementing interfaces.Driver.
// It lets engine and workflow tests script element presence, click obstruction
// and dialogs without a browser.
package simdom

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bmc_collect/domain/interfaces"
)

// PNG is the fixed snapshot payload returned by TakeSnapshot
var PNG = []byte("\x89PNG\r\n\x1a\nsimdom")

// Node is a simulated element
type Node struct {
	Name string

	// AppearAfter delays presence relative to DOM creation
	AppearAfter time.Duration

	// OutsideViewport makes native clicks fail until the node is scrolled into view
	OutsideViewport bool

	// Obscured makes native clicks always fail, script clicks still work
	Obscured bool

	// Broken makes every click strategy fail
	Broken bool

	// OnClick runs after a successful native or script click
	OnClick func(d *DOM)

	Value        string
	NativeClicks int
	ScriptClicks int
	scrolled     bool
}

// Clicked reports whether any click strategy reached the node
func (n *Node) Clicked() bool {
	return n.NativeClicks+n.ScriptClicks > 0
}

type dialog struct {
	text     string
	accepted bool
}

// DOM is a simulated page. The zero value is not usable, call New.
type DOM struct {
	mu       sync.Mutex
	created  time.Time
	nodes    map[string]*Node
	dialog   *dialog
	finds    map[string]int
	scripts  []string
	accepted []string

	URL         string
	OpenErr     error
	SnapshotErr error
	DumpErr     error
	CloseCount  int
}

// New returns an empty page
func New() *DOM {
	return &DOM{
		created: time.Now(),
		nodes:   make(map[string]*Node),
		finds:   make(map[string]int),
	}
}

// Add registers n under every locator. One node may answer several locators.
func (d *DOM) Add(n *Node, locators ...string) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range locators {
		d.nodes[l] = n
	}
	return n
}

// ShowDialog opens a native dialog with text
func (d *DOM) ShowDialog(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialog = &dialog{text: text}
}

// Finds returns how many times locator was queried
func (d *DOM) Finds(locator string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finds[locator]
}

// Scripts returns every script executed, in order
func (d *DOM) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}

// AcceptedDialogs returns the text of every accepted native dialog
func (d *DOM) AcceptedDialogs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.accepted...)
}

// Closed reports whether Close was called
func (d *DOM) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CloseCount > 0
}

func (d *DOM) Open(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return d.OpenErr
	}
	d.URL = url
	return nil
}

func (d *DOM) FindElement(ctx context.Context, locator string) (interfaces.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finds[locator]++
	n, ok := d.nodes[locator]
	if !ok || time.Since(d.created) < n.AppearAfter {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNoSuchElement, locator)
	}
	return n, nil
}

func (d *DOM) Click(ctx context.Context, el interfaces.Element) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	switch {
	case n.Broken || n.Obscured:
		d.mu.Unlock()
		return fmt.Errorf("element click intercepted: %s", n.Name)
	case n.OutsideViewport && !n.scrolled:
		d.mu.Unlock()
		return fmt.Errorf("element not interactable: %s is outside the viewport", n.Name)
	}
	n.NativeClicks++
	d.mu.Unlock()
	if n.OnClick != nil {
		n.OnClick(d)
	}
	return nil
}

func (d *DOM) SetText(ctx context.Context, el interfaces.Element, value string) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n.Value = value
	return nil
}

func (d *DOM) RunScript(ctx context.Context, script string, el interfaces.Element) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.scripts = append(d.scripts, script)
	switch script {
	case interfaces.ScriptScrollIntoView:
		n.scrolled = true
		d.mu.Unlock()
		return nil
	case interfaces.ScriptForceClick:
		if n.Broken {
			d.mu.Unlock()
			return fmt.Errorf("script click failed: %s detached", n.Name)
		}
		n.ScriptClicks++
		d.mu.Unlock()
		if n.OnClick != nil {
			n.OnClick(d)
		}
		return nil
	}
	d.mu.Unlock()
	return fmt.Errorf("unsupported script %q", script)
}

func (d *DOM) TakeSnapshot(ctx context.Context) ([]byte, error) {
	if d.SnapshotErr != nil {
		return nil, d.SnapshotErr
	}
	return append([]byte(nil), PNG...), nil
}

func (d *DOM) DumpDocument(ctx context.Context) (string, error) {
	if d.DumpErr != nil {
		return "", d.DumpErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	locators := make([]string, 0, len(d.nodes))
	for l := range d.nodes {
		locators = append(locators, l)
	}
	sort.Strings(locators)
	var b strings.Builder
	b.WriteString("<html><body>\n")
	for _, l := range locators {
		fmt.Fprintf(&b, "<!-- %s -->\n", l)
	}
	b.WriteString("</body></html>\n")
	return b.String(), nil
}

func (d *DOM) NativeDialogPresent(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialog != nil && !d.dialog.accepted, nil
}

func (d *DOM) NativeDialogText(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil || d.dialog.accepted {
		return "", interfaces.ErrNoDialog
	}
	return d.dialog.text, nil
}

func (d *DOM) NativeDialogAccept(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil || d.dialog.accepted {
		return interfaces.ErrNoDialog
	}
	d.dialog.accepted = true
	d.accepted = append(d.accepted, d.dialog.text)
	return nil
}

func (d *DOM) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CloseCount++
	return nil
}

func node(el interfaces.Element) (*Node, error) {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil, errors.New("simdom: foreign element handle")
	}
	return n, nil
}

// Factory hands out a prepared DOM as a session
type Factory struct {
	DOM     *DOM
	OpenErr error
	Opened  int
}

func (f *Factory) Open(ctx context.Context) (interfaces.Driver, error) {
	f.Opened++
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return f.DOM, nil
}

func (f *Factory) Name() string { return "simdom" }

var (
	_ interfaces.Driver         = (*DOM)(nil)
	_ interfaces.SessionFactory = (*Factory)(nil)
)
