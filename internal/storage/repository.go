package storage

import (
	"context"
	"errors"

	"padletscraper/internal/domain"
)

// ErrNotFound is returned when no snapshot exists for a board.
var ErrNotFound = errors.New("snapshot not found")

// Repository defines the interface for archiving scraped boards.
type Repository interface {
	// SaveSnapshot stores a scrape result. Snapshots of the same URL are
	// kept side by side, keyed by their scrape time.
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error

	// ListSnapshots retrieves all snapshots of a board, newest first.
	ListSnapshots(ctx context.Context, url string) ([]domain.Snapshot, error)

	// LatestSnapshot returns the newest snapshot of a board or ErrNotFound.
	LatestSnapshot(ctx context.Context, url string) (domain.Snapshot, error)

	// ListBoards returns the URLs of all archived boards in key order.
	ListBoards(ctx context.Context) ([]string, error)

	// DeleteSnapshots removes every snapshot of a board.
	DeleteSnapshots(ctx context.Context, url string) error

	// Close gracefully shuts down the repository connection.
	Close() error
}
