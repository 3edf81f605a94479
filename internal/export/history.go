package export

import (
	"fmt"
	"strings"
	"time"

	"padletscraper/internal/domain"
)

// History lists the archived snapshots of a board, one line each.
func History(target string, snaps []domain.Snapshot) string {
	if len(snaps) == 0 {
		return "No snapshots archived for " + target
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d snapshot(s) of %s:\n", len(snaps), target)
	for _, s := range snaps {
		fmt.Fprintf(&b, "- %s: %d section(s), %d post(s)\n",
			s.ScrapedAt.UTC().Format(time.RFC3339), len(s.Padlet.Sections), s.Padlet.TotalPosts())
	}
	return b.String()
}

// Boards lists archived board URLs.
func Boards(urls []string) string {
	if len(urls) == 0 {
		return "The archive is empty."
	}
	return "Archived boards:\n- " + strings.Join(urls, "\n- ")
}
