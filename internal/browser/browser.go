package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBrowserUnavailable means no usable browser binary could be found or started.
	ErrBrowserUnavailable = errors.New("browser unavailable")
	// ErrNavigation means the target page failed to load.
	ErrNavigation = errors.New("navigation failed")
	// ErrNotFound means a selector did not match within the allotted time.
	ErrNotFound = errors.New("element not found")
)

// Options controls how a browser process is started.
type Options struct {
	// Headless hides the browser window.
	Headless bool
	// Sandbox enables the browser sandbox. Disable on restricted hosts.
	Sandbox bool
	// BinPath overrides browser discovery with an explicit executable.
	BinPath string
}

// Launcher starts browser processes.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Browser, error)
}

// Browser is a running browser process.
// Close must be called on every exit path and kills the process.
type Browser interface {
	// Open creates a tab and navigates it to url.
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is a loaded tab. Implementations must allow concurrent read-only
// calls; none of the methods navigate away from the loaded document.
type Page interface {
	// Eval runs js, a function expression, with args and returns its
	// JSON-compatible result.
	Eval(ctx context.Context, js string, args ...any) (any, error)
	// QueryOne returns the first match or nil when nothing matches.
	QueryOne(ctx context.Context, selector string) (Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// WaitFor blocks until selector matches or timeout elapses, returning ErrNotFound in the latter case.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	SetViewport(ctx context.Context, width, height int) error
}

// Element is a DOM node handle.
type Element interface {
	// Text returns the rendered, visible text.
	Text(ctx context.Context) (string, error)
	// HTML returns the outer HTML.
	HTML(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	QueryOne(ctx context.Context, selector string) (Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}
