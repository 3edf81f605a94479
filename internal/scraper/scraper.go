package scraper

import (
	"context"

	"padletscraper/internal/domain"
)

// Scraper defines the interface for extracting a board from a URL.
type Scraper interface {
	// Scrape loads the board at url and returns its snapshot.
	// It fails only when the browser cannot be started, the page cannot
	// be loaded or ctx is cancelled; other faults yield partial results.
	Scrape(ctx context.Context, url string) (*domain.Padlet, error)
}
