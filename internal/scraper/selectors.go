package scraper

// Selectors names the CSS patterns used to locate board structure.
type Selectors struct {
	Title           string
	Section         string
	SectionTitle    string
	SectionIDAttr   string
	Post            string
	PostSubject     string
	PostBody        string
	Paragraph       string
	ScrollContainer string
}

// DefaultSelectors matches the current Padlet markup.
var DefaultSelectors = Selectors{
	Title:           "h1",
	Section:         `section[data-id][data-rank]`,
	SectionTitle:    `[data-testid="sectionTitleText"]`,
	SectionIDAttr:   "data-id",
	Post:            `[data-testid="surfacePost"]`,
	PostSubject:     `[data-pw="postSubject"]`,
	PostBody:        `[data-pw="postBody"]`,
	Paragraph:       "p",
	ScrollContainer: `[class*="overflow-y-auto"][id^="group-posts-"]`,
}
