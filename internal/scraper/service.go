package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"padletscraper/internal/browser"
	"padletscraper/internal/config"
	"padletscraper/internal/domain"
)

const (
	scrollPageToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
	scrollPageToTopJS    = `() => window.scrollTo(0, 0)`
	countElementsJS      = `(selector) => document.querySelectorAll(selector).length`
	scrollContainerJS    = `(id) => {
		const container = document.getElementById(id);
		if (container) {
			container.scrollTop = container.scrollHeight;
		}
	}`
)

var errDetached = errors.New("container detached")

// PadletScraper implements the Scraper interface on top of a browser.Launcher.
type PadletScraper struct {
	cfg       config.Config
	launcher  browser.Launcher
	sel       Selectors
	extractor *Extractor
	sleep     func(ctx context.Context, d time.Duration) error
	log       logrus.FieldLogger
}

// NewPadletScraper creates a new scraper service instance.
func NewPadletScraper(cfg config.Config, launcher browser.Launcher, logger logrus.FieldLogger) *PadletScraper {
	return &PadletScraper{
		cfg:       cfg,
		launcher:  launcher,
		sel:       DefaultSelectors,
		extractor: NewExtractor(DefaultSelectors, cfg.ExtractConcurrency, logger),
		sleep:     sleepContext,
		log:       logger.WithField("component", "scraper"),
	}
}

// Scrape drives a fresh browser through the board at url and extracts it.
func (s *PadletScraper) Scrape(ctx context.Context, url string) (padlet *domain.Padlet, err error) {
	log := s.log.WithField("url", url)
	log.Info("Attempting to scrape padlet")

	// --- Browser Setup ---
	b, err := s.launcher.Launch(ctx, browser.Options{
		Headless: s.cfg.Headless,
		Sandbox:  s.cfg.Sandbox,
		BinPath:  s.cfg.BrowserPath,
	})
	if err != nil {
		return nil, err
	}
	// Ensure the browser is closed when the function exits
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing browser instance")
		}
	}()

	// --- Page Navigation ---
	page, err := b.Open(ctx, url)
	if err != nil {
		log.WithError(err).Error("Failed to load page")
		return nil, err
	}

	if s.cfg.Headless {
		// Lazy loading depends on layout, which needs a real viewport.
		if err := page.SetViewport(ctx, s.cfg.ViewportWidth, s.cfg.ViewportHeight); err != nil {
			log.WithError(err).Warn("Could not set viewport size")
		}
	}

	if err := s.sleep(ctx, s.cfg.InitialRenderDelay); err != nil {
		return nil, err
	}

	if _, err := page.WaitFor(ctx, s.sel.SectionTitle, s.cfg.ElementWaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The board may simply have no sections.
		log.WithError(err).Warn("Section titles did not appear")
	}

	// --- Load Lazy Content ---
	if err := s.scrollPage(ctx, page); err != nil {
		return nil, err
	}
	if err := s.scrollContainers(ctx, page); err != nil {
		return nil, err
	}
	if err := s.sleep(ctx, s.cfg.FinalSettleDelay); err != nil {
		return nil, err
	}

	// --- Extract ---
	padlet, err = s.extractor.ExtractDocument(ctx, page, url)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"sections": len(padlet.Sections),
		"posts":    padlet.TotalPosts(),
	}).Info("Padlet scraping completed successfully")
	return padlet, nil
}

func (s *PadletScraper) convergeOptions(settle time.Duration) ConvergeOptions {
	return ConvergeOptions{
		MaxAttempts:     s.cfg.MaxScrollAttempts,
		StabilityWindow: s.cfg.StabilityWindow,
		SettleDelay:     settle,
		Sleep:           s.sleep,
	}
}

// scrollPage scrolls the window until the number of mounted sections stops
// growing, then returns to the top.
func (s *PadletScraper) scrollPage(ctx context.Context, page browser.Page) error {
	log := s.log.WithField("phase", "page_scroll")

	measure := func(ctx context.Context) (int, error) {
		v, err := page.Eval(ctx, countElementsJS, s.sel.Section)
		if err != nil {
			return 0, err
		}
		return toInt(v)
	}
	scroll := func(ctx context.Context) error {
		_, err := page.Eval(ctx, scrollPageToBottomJS)
		if err != nil {
			log.WithError(err).Debug("Page scroll failed")
		}
		return err
	}

	count, err := Converge(ctx, measure, scroll, s.convergeOptions(s.cfg.PageSettleDelay))
	if err != nil {
		return err
	}
	log.WithField("count", count).Info("Sections mounted")

	if _, err := page.Eval(ctx, scrollPageToTopJS); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("Could not reset scroll position")
	}
	return nil
}

// scrollContainers converges every scrollable section container in turn.
func (s *PadletScraper) scrollContainers(ctx context.Context, page browser.Page) error {
	containers, err := page.QueryAll(ctx, s.sel.ScrollContainer)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.WithError(err).Warn("Error during scrolling")
		return nil
	}
	s.log.WithField("containers", len(containers)).Info("Found scrollable section containers")

	for _, c := range containers {
		id, ok, err := c.Attribute(ctx, "id")
		if err != nil || !ok {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.WithError(err).Warn("Skipping container without id")
			continue
		}
		count, err := s.scrollContainer(ctx, page, id)
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"container_id": id,
			"count":        count,
		}).Info("Container posts loaded")
	}
	return nil
}

func (s *PadletScraper) scrollContainer(ctx context.Context, page browser.Page, id string) (int, error) {
	measure := func(ctx context.Context) (int, error) {
		// Re-query on every attempt; the cached handle may be stale.
		c, err := page.QueryOne(ctx, fmt.Sprintf(`[id=%q]`, id))
		if err != nil {
			return 0, err
		}
		if c == nil {
			return 0, errDetached
		}
		posts, err := c.QueryAll(ctx, s.sel.Post)
		if err != nil {
			return 0, err
		}
		return len(posts), nil
	}
	scroll := func(ctx context.Context) error {
		_, err := page.Eval(ctx, scrollContainerJS, id)
		return err
	}
	return Converge(ctx, measure, scroll, s.convergeOptions(s.cfg.ContainerSettleDelay))
}

// toInt converts a JSON number returned by Eval.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	default:
		return 0, fmt.Errorf("unexpected eval result %T", v)
	}
}
