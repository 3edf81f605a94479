package domain

import (
	"fmt"
	"strings"
	"time"
)

// Default titles used when the board does not provide one.
const (
	UntitledPost    = "Untitled"
	UntitledSection = "Untitled Section"
)

// Link is a hyperlink found inside a post body.
// Links are not stored separately; they are flattened into Post.Body.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// String renders the link as inline Markdown.
func (l Link) String() string {
	return fmt.Sprintf("[%s](%s)", l.Text, l.URL)
}

// Post is a single card within a section.
type Post struct {
	// Subject is the card heading, "Untitled" when the card only has a body.
	Subject string `json:"subject"`

	// Body is the reconciled card text with links already rendered as Markdown.
	Body string `json:"body"`

	// SectionID is the data-id of the parent section, if it had one.
	SectionID *string `json:"section_id"`
}

func (p Post) String() string {
	if len(p.Body) > 50 {
		return fmt.Sprintf("%s: %s...", p.Subject, p.Body[:50])
	}
	return fmt.Sprintf("%s: %s", p.Subject, p.Body)
}

// Section is a titled column of posts.
type Section struct {
	Title     string  `json:"title"`
	SectionID *string `json:"section_id"`
	Posts     []Post  `json:"posts"`
}

func (s Section) String() string {
	return fmt.Sprintf("Section '%s' with %d post(s)", s.Title, len(s.Posts))
}

// Padlet is the complete snapshot of one board.
type Padlet struct {
	URL      string    `json:"url"`
	Title    *string   `json:"title"`
	Sections []Section `json:"sections"`
}

// TotalPosts counts the posts across all sections.
func (p Padlet) TotalPosts() int {
	total := 0
	for _, s := range p.Sections {
		total += len(s.Posts)
	}
	return total
}

func (p Padlet) String() string {
	name := p.URL
	if p.Title != nil && *p.Title != "" {
		name = *p.Title
	}
	return fmt.Sprintf("Padlet '%s' with %d section(s) and %d post(s)", name, len(p.Sections), p.TotalPosts())
}

// Summary returns the board line followed by one line per section.
func (p Padlet) Summary() string {
	var b strings.Builder
	b.WriteString(p.String())
	b.WriteString("\n\nSections:\n")
	for _, s := range p.Sections {
		fmt.Fprintf(&b, "  - %s: %d post(s)\n", s.Title, len(s.Posts))
	}
	return b.String()
}

// Snapshot is an archived scrape result.
type Snapshot struct {
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
	Padlet    Padlet    `json:"padlet"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
