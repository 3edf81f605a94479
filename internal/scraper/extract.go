package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"padletscraper/internal/browser"
	"padletscraper/internal/domain"
)

const suggestedContentTitle = "suggested content"

// Extractor reads the board structure from a loaded page.
type Extractor struct {
	sel         Selectors
	concurrency int
	log         logrus.FieldLogger
}

// NewExtractor creates an extractor. concurrency limits how many sections
// are read at once; zero or less means no limit.
func NewExtractor(sel Selectors, concurrency int, logger logrus.FieldLogger) *Extractor {
	return &Extractor{
		sel:         sel,
		concurrency: concurrency,
		log:         logger.WithField("component", "extractor"),
	}
}

// ExtractDocument builds the board snapshot from page. Faults in individual
// sections or posts are logged and the unit is dropped; only context
// cancellation is returned as an error.
func (x *Extractor) ExtractDocument(ctx context.Context, page browser.Page, url string) (*domain.Padlet, error) {
	title := x.Title(ctx, page)

	sections, err := x.Sections(ctx, page)
	if err != nil {
		return nil, err
	}

	return &domain.Padlet{
		URL:      url,
		Title:    domain.StringPtr(title),
		Sections: sections,
	}, nil
}

// Title returns the board heading, or "" when there is none.
func (x *Extractor) Title(ctx context.Context, page browser.Page) string {
	el, err := page.QueryOne(ctx, x.sel.Title)
	if err != nil {
		x.log.WithError(err).Debug("Could not query board title")
		return ""
	}
	return x.text(ctx, el)
}

// Sections extracts every section concurrently and returns the
// materialized ones in document order.
func (x *Extractor) Sections(ctx context.Context, page browser.Page) ([]domain.Section, error) {
	elements, err := page.QueryAll(ctx, x.sel.Section)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.log.WithError(err).Error("Error extracting sections")
		return []domain.Section{}, nil
	}

	results := make([]*domain.Section, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	if x.concurrency > 0 {
		g.SetLimit(x.concurrency)
	}
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			section, err := x.section(gctx, el)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				x.log.WithError(err).WithField("index", i).Warn("Dropping section after extraction fault")
				return nil
			}
			results[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sections := make([]domain.Section, 0, len(results))
	for _, s := range results {
		if s != nil {
			sections = append(sections, *s)
		}
	}
	return sections, nil
}

// section returns nil without error for sections that must not be materialized.
func (x *Extractor) section(ctx context.Context, el browser.Element) (*domain.Section, error) {
	var sectionID *string
	id, hasID, err := el.Attribute(ctx, x.sel.SectionIDAttr)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.log.WithError(err).Warn("Could not read section id")
	case hasID:
		sectionID = &id
	}
	log := x.log.WithField("section_id", id)

	title := ""
	if titleEl, err := el.QueryOne(ctx, x.sel.SectionTitle); err != nil {
		log.WithError(err).Debug("Could not query section title")
	} else {
		title = x.text(ctx, titleEl)
	}

	if strings.EqualFold(title, suggestedContentTitle) {
		log.Debug("Skipping suggested content section")
		return nil, nil
	}

	posts, err := x.posts(ctx, el, sectionID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("Error extracting posts from section")
	}

	if title == "" && len(posts) == 0 {
		return nil, nil
	}
	if title == "" {
		title = domain.UntitledSection
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	log.WithField("post_count", len(posts)).Debug("Extracted section")
	return &domain.Section{Title: title, SectionID: sectionID, Posts: posts}, nil
}

func (x *Extractor) posts(ctx context.Context, section browser.Element, sectionID *string) ([]domain.Post, error) {
	elements, err := section.QueryAll(ctx, x.sel.Post)
	if err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(elements))
	for _, el := range elements {
		post, err := x.post(ctx, el, sectionID)
		if err != nil {
			return posts, err
		}
		if post != nil {
			posts = append(posts, *post)
		}
	}
	return posts, nil
}

// post returns nil for empty cards. A field that cannot be read is logged
// and treated as empty; only context cancellation is returned.
func (x *Extractor) post(ctx context.Context, el browser.Element, sectionID *string) (*domain.Post, error) {
	subject := ""
	if subjectEl, err := el.QueryOne(ctx, x.sel.PostSubject); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.log.WithError(err).Warn("Could not query post subject")
	} else {
		subject = x.text(ctx, subjectEl)
	}

	body, err := x.body(ctx, el)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		x.log.WithError(fmt.Errorf("read body: %w", err)).Warn("Treating unreadable post body as empty")
		body = ""
	}

	if subject == "" && body == "" {
		return nil, nil
	}
	if subject == "" {
		subject = domain.UntitledPost
	}
	return &domain.Post{Subject: subject, Body: body, SectionID: sectionID}, nil
}

// body reconciles the paragraphs of the post body, falling back to the
// rendered text of the body element when it has no paragraphs.
func (x *Extractor) body(ctx context.Context, post browser.Element) (string, error) {
	el, err := post.QueryOne(ctx, x.sel.PostBody)
	if err != nil || el == nil {
		return "", err
	}
	html, err := el.HTML(ctx)
	if err != nil {
		return "", err
	}
	if html != "" {
		paragraphs, found, err := ParagraphsFromHTML(html, x.sel.Paragraph)
		if err != nil {
			return "", err
		}
		if found {
			return Reconcile(paragraphs), nil
		}
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}

// text returns the normalized rendered text of el, or "" for nil or on fault.
func (x *Extractor) text(ctx context.Context, el browser.Element) string {
	if el == nil {
		return ""
	}
	t, err := el.Text(ctx)
	if err != nil {
		x.log.WithError(err).Debug("Could not read element text")
		return ""
	}
	return Normalize(t)
}
