package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"padletscraper/internal/domain"
)

var whitespaceReplacer = strings.NewReplacer("\r\n", "\n", "\u00a0", " ")

// Normalize converts CRLF to LF and non-breaking spaces to spaces, then trims.
// An empty result means the text is absent.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceReplacer.Replace(s))
}

// Reconcile joins paragraph texts in order. Blank paragraphs are spacers:
// the next non-empty paragraph is separated by a blank line instead of a
// single newline. It returns "" when no paragraph has text.
func Reconcile(paragraphs []string) string {
	var b strings.Builder
	spacer := false
	for _, p := range paragraphs {
		text := Normalize(p)
		if text == "" {
			spacer = true
			continue
		}
		if b.Len() > 0 {
			if spacer {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(text)
		spacer = false
	}
	return b.String()
}

// ParagraphsFromHTML returns the text of each paragraph matched by selector
// inside the given HTML fragment, with anchors rendered as Markdown links.
// found is false when the fragment has no paragraphs at all.
func ParagraphsFromHTML(fragment, selector string) (paragraphs []string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, false, err
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, false, nil
	}
	sel.Each(func(_ int, p *goquery.Selection) {
		var b strings.Builder
		renderInline(p, &b)
		paragraphs = append(paragraphs, b.String())
	})
	return paragraphs, true, nil
}

func renderInline(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
		case "br":
			b.WriteString("\n")
		case "a":
			text := Normalize(c.Text())
			href, _ := c.Attr("href")
			if text == "" || href == "" {
				b.WriteString(c.Text())
				return
			}
			b.WriteString(domain.Link{URL: href, Text: text}.String())
		default:
			renderInline(c, b)
		}
	})
}
