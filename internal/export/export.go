// Package export serializes board snapshots to JSON and Markdown.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"padletscraper/internal/domain"
)

// Formats accepted by Render.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ErrUnsupportedFormat is returned for unknown formats or file extensions.
var ErrUnsupportedFormat = errors.New("unsupported format")

// WriteJSON writes p as indented JSON. Non-ASCII and HTML characters are
// written literally.
func WriteJSON(w io.Writer, p *domain.Padlet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized(p)); err != nil {
		return fmt.Errorf("encode padlet: %w", err)
	}
	return nil
}

// ReadJSON decodes a snapshot written by WriteJSON.
func ReadJSON(r io.Reader) (*domain.Padlet, error) {
	var p domain.Padlet
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode padlet: %w", err)
	}
	return &p, nil
}

// Markdown renders p as a Markdown document. Bodies are emitted verbatim.
func Markdown(p *domain.Padlet) string {
	var blocks []string
	if p.Title != nil && *p.Title != "" {
		blocks = append(blocks, "# "+*p.Title+"\n")
	}
	for _, s := range p.Sections {
		blocks = append(blocks, "## "+s.Title+"\n")
		for _, post := range s.Posts {
			blocks = append(blocks, "### "+post.Subject+"\n")
			blocks = append(blocks, post.Body+"\n")
		}
	}
	return strings.Join(blocks, "\n")
}

// Render serializes p in the named format.
func Render(w io.Writer, p *domain.Padlet, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, p)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(p))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FormatForPath picks the format from the file extension (.json or .md).
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unsupported file extension '%s'. Use .json or .md", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Save writes p to path in the format implied by its extension.
func Save(path string, p *domain.Padlet) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Render(&buf, p, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads a JSON snapshot from path.
func Load(path string) (*domain.Padlet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// normalized replaces nil slices so that they encode as [] rather than null.
func normalized(p *domain.Padlet) *domain.Padlet {
	out := *p
	out.Sections = make([]domain.Section, len(p.Sections))
	for i, s := range p.Sections {
		if s.Posts == nil {
			s.Posts = []domain.Post{}
		}
		out.Sections[i] = s
	}
	return &out
}
