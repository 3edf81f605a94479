package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodLauncher implements Launcher using the rod library.
type RodLauncher struct {
	log logrus.FieldLogger
}

// NewRodLauncher creates a launcher that starts a fresh browser per call.
func NewRodLauncher(logger logrus.FieldLogger) *RodLauncher {
	return &RodLauncher{log: logger.WithField("component", "browser")}
}

// ResolveBinary returns the browser executable to launch.
func ResolveBinary(binPath string) (string, error) {
	if binPath != "" {
		info, err := os.Stat(binPath)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBrowserUnavailable, binPath, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s is a directory", ErrBrowserUnavailable, binPath)
		}
		return binPath, nil
	}
	path, exists := launcher.LookPath()
	if !exists {
		return "", fmt.Errorf("%w: no Chrome or Chromium executable found; install Chrome or pass an explicit browser path", ErrBrowserUnavailable)
	}
	return path, nil
}

// Launch starts a browser process and connects to it.
func (r *RodLauncher) Launch(ctx context.Context, opts Options) (Browser, error) {
	path, err := ResolveBinary(opts.BinPath)
	if err != nil {
		r.log.WithError(err).Error("Cannot find browser executable for rod")
		return nil, err
	}
	log := r.log.WithFields(logrus.Fields{
		"bin":      path,
		"headless": opts.Headless,
		"sandbox":  opts.Sandbox,
	})

	l := launcher.New().Bin(path).Headless(opts.Headless).NoSandbox(!opts.Sandbox)
	u, err := l.Launch()
	if err != nil {
		log.WithError(err).Error("Failed to launch browser")
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	// The connection is not bound to ctx so that Close still works after cancellation.
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		log.WithError(err).Error("Failed to connect to rod browser")
		return nil, fmt.Errorf("%w: connect: %v", ErrBrowserUnavailable, err)
	}
	log.Debug("Rod browser instance started")

	return &rodBrowser{browser: b, launcher: l, log: log}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	log      logrus.FieldLogger
}

func (b *rodBrowser) Open(ctx context.Context, url string) (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: create page: %v", ErrNavigation, err)
	}
	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: waiting for load of %s: %v", ErrNavigation, url, err)
	}
	return &rodPage{page: page}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	if err != nil {
		b.log.WithError(err).Warn("Error closing rod browser instance")
		return fmt.Errorf("error closing browser: %w", err)
	}
	b.log.Debug("Rod browser instance closed")
	return nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (any, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return res.Value.Val(), nil
}

func (p *rodPage) QueryOne(ctx context.Context, selector string) (Element, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (p *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	tp := p.page.Context(ctx).Timeout(timeout)
	el, err := tp.Element(selector)
	tp.CancelTimeout()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrNotFound, selector, timeout)
		}
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	return p.page.Context(ctx).SetViewport(viewportOverride(width, height))
}

// viewportOverride sizes both the layout viewport and the emulated screen,
// so window.screen agrees with the window dimensions.
func viewportOverride(width, height int) *proto.EmulationSetDeviceMetricsOverride {
	return &proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
		ScreenWidth:       &width,
		ScreenHeight:      &height,
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) HTML(ctx context.Context) (string, error) {
	return e.el.Context(ctx).HTML()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *rodElement) QueryOne(ctx context.Context, selector string) (Element, error) {
	has, el, err := e.el.Context(ctx).Has(selector)
	if err != nil || !has {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out
}
