package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrNoSuchElement is returned by FindElement when the locator matches nothing
	ErrNoSuchElement = errors.New("no such element")

	// ErrNoDialog is returned by the native dialog calls when no dialog is open
	ErrNoDialog = errors.New("no native dialog open")
)

// Element is an opaque handle to a located element. It belongs to the driver session
// that returned it and must not be reused across workflow steps.
type Element interface{}

// Scripts passed to RunScript. Each is a JS function expression receiving the element.
const (
	ScriptScrollIntoView = `(el) => el.scrollIntoView({block: 'center', inline: 'center'})`
	ScriptForceClick     = `(el) => el.click()`
)

// Driver defines the automation capabilities the engine relies on
type Driver interface {
	// Open navigates the session to url
	Open(ctx context.Context, url string) error

	// FindElement returns the first element matching a CSS locator without waiting.
	// Absence is reported as ErrNoSuchElement.
	FindElement(ctx context.Context, locator string) (Element, error)

	// Click performs a native click honouring visibility and overlap checks
	Click(ctx context.Context, el Element) error

	// SetText clears the element and types value into it
	SetText(ctx context.Context, el Element, value string) error

	// RunScript evaluates a JS function expression with el as its argument
	RunScript(ctx context.Context, script string, el Element) error

	// TakeSnapshot returns a PNG screenshot of the current page
	TakeSnapshot(ctx context.Context) ([]byte, error)

	// DumpDocument returns the current page markup
	DumpDocument(ctx context.Context) (string, error)

	NativeDialogPresent(ctx context.Context) (bool, error)
	NativeDialogText(ctx context.Context) (string, error)
	NativeDialogAccept(ctx context.Context) error

	// Close tears the session down. It must be safe to call more than once.
	Close() error
}
