package scraper

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"padletscraper/internal/browser"
)

// fakeElement is an in-memory DOM node. children maps a selector to the
// nodes it matches beneath this one.
type fakeElement struct {
	text     string
	html     string
	attrs    map[string]string
	children map[string][]*fakeElement
	err      error
	// attrErr fails Attribute; queryErrs fails queries for one selector.
	attrErr   error
	queryErrs map[string]error

	mu      sync.Mutex
	queried []string
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func (e *fakeElement) HTML(ctx context.Context) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.html, nil
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.attrErr != nil {
		return "", false, e.attrErr
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) QueryOne(ctx context.Context, selector string) (browser.Element, error) {
	els, err := e.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (e *fakeElement) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	e.mu.Lock()
	e.queried = append(e.queried, selector)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	if err := e.queryErrs[selector]; err != nil {
		return nil, err
	}
	out := make([]browser.Element, 0, len(e.children[selector]))
	for _, c := range e.children[selector] {
		out = append(out, c)
	}
	return out, nil
}

func (e *fakeElement) queriedSelectors() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.queried...)
}

// fakePage serves queries from a root fakeElement and scripts from eval.
type fakePage struct {
	root    *fakeElement
	eval    func(js string, args []any) (any, error)
	waitErr error

	mu       sync.Mutex
	evals    []string
	viewport []int
}

func (p *fakePage) Eval(ctx context.Context, js string, args ...any) (any, error) {
	p.mu.Lock()
	p.evals = append(p.evals, js)
	p.mu.Unlock()
	if p.eval == nil {
		return nil, nil
	}
	return p.eval(js, args)
}

func (p *fakePage) QueryOne(ctx context.Context, selector string) (browser.Element, error) {
	return p.root.QueryOne(ctx, selector)
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return p.root.QueryAll(ctx, selector)
}

func (p *fakePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	if p.waitErr != nil {
		return nil, p.waitErr
	}
	return p.root.QueryOne(ctx, selector)
}

func (p *fakePage) SetViewport(ctx context.Context, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = []int{width, height}
	return nil
}

func (p *fakePage) countEvals(js string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.evals {
		if e == js {
			n++
		}
	}
	return n
}

type fakeBrowser struct {
	page    *fakePage
	openErr error
	closed  bool
}

func (b *fakeBrowser) Open(ctx context.Context, url string) (browser.Page, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

type fakeLauncher struct {
	browser *fakeBrowser
	err     error
	opts    browser.Options
}

func (l *fakeLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Browser, error) {
	l.opts = opts
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newPost builds a post node with an optional subject and body HTML.
func newPost(subject, bodyHTML string) *fakeElement {
	post := &fakeElement{children: map[string][]*fakeElement{}}
	if subject != "" {
		post.children[DefaultSelectors.PostSubject] = []*fakeElement{{text: subject}}
	}
	if bodyHTML != "" {
		post.children[DefaultSelectors.PostBody] = []*fakeElement{{html: bodyHTML}}
	}
	return post
}

// newSection builds a section node with the given id, title and posts.
func newSection(id, title string, posts ...*fakeElement) *fakeElement {
	s := &fakeElement{
		attrs:    map[string]string{},
		children: map[string][]*fakeElement{DefaultSelectors.Post: posts},
	}
	if id != "" {
		s.attrs[DefaultSelectors.SectionIDAttr] = id
	}
	if title != "" {
		s.children[DefaultSelectors.SectionTitle] = []*fakeElement{{text: title}}
	}
	return s
}

func newPage(title string, sections ...*fakeElement) *fakePage {
	root := &fakeElement{children: map[string][]*fakeElement{DefaultSelectors.Section: sections}}
	if title != "" {
		root.children[DefaultSelectors.Title] = []*fakeElement{{text: title}}
	}
	return &fakePage{root: root}
}
