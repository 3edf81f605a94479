package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"padletscraper/internal/domain"
)

const (
	boardPrefix     = "padlet:"
	snapshotSegment = ":snapshot:"
)

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository opens (or creates) the archive at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Debug("BadgerDB opened")

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "archive"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Debug("BadgerDB closed")
	return nil
}

// Format: padlet:{url}:snapshot:
func snapshotPrefix(url string) []byte {
	return []byte(boardPrefix + url + snapshotSegment)
}

// Format: padlet:{url}:snapshot:{unix nanos, zero padded}
func snapshotKey(url string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s%s%020d", boardPrefix, url, snapshotSegment, at.UnixNano()))
}

// SaveSnapshot stores a snapshot in BadgerDB.
func (r *BadgerRepository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if snap.URL == "" {
		snap.URL = snap.Padlet.URL
	}
	if snap.ScrapedAt.IsZero() {
		snap.ScrapedAt = time.Now()
	}
	log := r.log.WithField("url", snap.URL)

	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(snapshotKey(snap.URL, snap.ScrapedAt), value))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save snapshot to BadgerDB")
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.WithField("posts", snap.Padlet.TotalPosts()).Info("Snapshot archived")
	return nil
}

// ListSnapshots retrieves all snapshots of url, newest first.
func (r *BadgerRepository) ListSnapshots(ctx context.Context, url string) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := snapshotPrefix(url)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var snap domain.Snapshot
				if err := json.Unmarshal(val, &snap); err != nil {
					return fmt.Errorf("failed to unmarshal snapshot for key %s: %w", string(item.Key()), err)
				}
				snaps = append(snaps, snap)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("url", url).Error("Failed to retrieve snapshots from BadgerDB")
		return nil, fmt.Errorf("failed to get snapshots for %s: %w", url, err)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].ScrapedAt.After(snaps[j].ScrapedAt)
	})
	return snaps, nil
}

// LatestSnapshot returns the newest snapshot of url.
func (r *BadgerRepository) LatestSnapshot(ctx context.Context, url string) (domain.Snapshot, error) {
	snaps, err := r.ListSnapshots(ctx, url)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(snaps) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return snaps[0], nil
}

// ListBoards returns every archived board URL once.
func (r *BadgerRepository) ListBoards(ctx context.Context) ([]string, error) {
	var urls []string

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(boardPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), boardPrefix)
			i := strings.LastIndex(key, snapshotSegment)
			if i < 0 {
				continue
			}
			url := key[:i]
			if n := len(urls); n == 0 || urls[n-1] != url {
				urls = append(urls, url)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return urls, nil
}

// DeleteSnapshots removes all snapshots of url. Deleting an unknown board is not an error.
func (r *BadgerRepository) DeleteSnapshots(ctx context.Context, url string) error {
	prefix := snapshotPrefix(url)
	err := r.db.DropPrefix(prefix)
	if err != nil {
		r.log.WithError(err).WithField("url", url).Error("Failed to delete snapshots from BadgerDB")
		return fmt.Errorf("failed to delete snapshots for %s: %w", url, err)
	}
	r.log.WithField("url", url).Info("Snapshots deleted")
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
