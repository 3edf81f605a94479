package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padletscraper/internal/domain"
)

func TestExtractDocument_Scenario(t *testing.T) {
	page := newPage("",
		newSection("s1", "Ideas",
			newPost("A", "<p>hello</p>"),
			newPost("", ""),
		),
	)

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "https://padlet.com/u/b")
	require.NoError(t, err)

	want := &domain.Padlet{
		URL: "https://padlet.com/u/b",
		Sections: []domain.Section{{
			Title:     "Ideas",
			SectionID: domain.StringPtr("s1"),
			Posts: []domain.Post{
				{Subject: "A", Body: "hello", SectionID: domain.StringPtr("s1")},
			},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractDocument mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, got.TotalPosts())
}

func TestExtractDocument_TitleAndOrder(t *testing.T) {
	page := newPage("  My Board ",
		newSection("1", "First", newPost("a", "")),
		newSection("2", "Second", newPost("b", "")),
		newSection("3", "Third", newPost("c", "")),
	)

	x := NewExtractor(DefaultSelectors, 2, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.NotNil(t, got.Title)
	assert.Equal(t, "My Board", *got.Title)

	var titles []string
	for _, s := range got.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"First", "Second", "Third"}, titles)
}

func TestExtractDocument_SkipsSuggestedContent(t *testing.T) {
	suggested := newSection("x", "SUGGESTED content", newPost("promo", "<p>buy</p>"))
	page := newPage("Board", suggested, newSection("y", "Kept", newPost("p", "")))

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Kept", got.Sections[0].Title)

	// Posts of the suggested section are never queried.
	assert.NotContains(t, suggested.queriedSelectors(), DefaultSelectors.Post)
}

func TestExtractDocument_Defaults(t *testing.T) {
	page := newPage("",
		newSection("", "", newPost("", "<p>body only</p>")),
		newSection("empty", ""),
		newSection("titled", "Only Title"),
	)

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	assert.Nil(t, got.Title)
	require.Len(t, got.Sections, 2)

	untitled := got.Sections[0]
	assert.Equal(t, domain.UntitledSection, untitled.Title)
	assert.Nil(t, untitled.SectionID)
	require.Len(t, untitled.Posts, 1)
	assert.Equal(t, domain.UntitledPost, untitled.Posts[0].Subject)
	assert.Equal(t, "body only", untitled.Posts[0].Body)

	assert.Equal(t, "Only Title", got.Sections[1].Title)
	assert.NotNil(t, got.Sections[1].Posts)
	assert.Empty(t, got.Sections[1].Posts)
}

func TestExtractDocument_FaultsAreIsolated(t *testing.T) {
	broken := newPost("broken", "")
	broken.children[DefaultSelectors.PostBody] = []*fakeElement{{err: errors.New("detached")}}

	faultySection := &fakeElement{err: errors.New("boom"), attrs: map[string]string{"data-id": "bad"}}

	page := newPage("Board",
		newSection("1", "Mixed", newPost("ok", "<p>fine</p>"), broken, newPost("also ok", "")),
		faultySection,
		newSection("2", "Healthy", newPost("h", "")),
	)

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections, 2)

	mixed := got.Sections[0]
	require.Len(t, mixed.Posts, 3)
	assert.Equal(t, "ok", mixed.Posts[0].Subject)
	assert.Equal(t, "broken", mixed.Posts[1].Subject, "unreadable body keeps the post")
	assert.Equal(t, "", mixed.Posts[1].Body)
	assert.Equal(t, "also ok", mixed.Posts[2].Subject)
	assert.Equal(t, "Healthy", got.Sections[1].Title)
}

func TestExtractDocument_UnreadableSubjectKeepsBody(t *testing.T) {
	post := newPost("", "<p>still here</p>")
	post.queryErrs = map[string]error{DefaultSelectors.PostSubject: errors.New("stale node")}
	page := newPage("", newSection("1", "T", post))

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	require.Len(t, got.Sections[0].Posts, 1)
	assert.Equal(t, domain.UntitledPost, got.Sections[0].Posts[0].Subject)
	assert.Equal(t, "still here", got.Sections[0].Posts[0].Body)
}

func TestExtractDocument_UnreadableBodyAndSubjectDropsPost(t *testing.T) {
	post := newPost("", "")
	post.queryErrs = map[string]error{
		DefaultSelectors.PostSubject: errors.New("stale node"),
		DefaultSelectors.PostBody:    errors.New("stale node"),
	}
	page := newPage("", newSection("1", "T", post, newPost("kept", "")))

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections[0].Posts, 1)
	assert.Equal(t, "kept", got.Sections[0].Posts[0].Subject)
}

func TestExtractDocument_UnreadableSectionIDKeepsSection(t *testing.T) {
	section := newSection("ignored", "Ideas", newPost("A", "<p>hello</p>"))
	section.attrErr = errors.New("attribute read failed")
	page := newPage("", section)

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Ideas", got.Sections[0].Title)
	assert.Nil(t, got.Sections[0].SectionID)
	require.Len(t, got.Sections[0].Posts, 1)
	assert.Nil(t, got.Sections[0].Posts[0].SectionID)
	assert.Equal(t, "hello", got.Sections[0].Posts[0].Body)
}

func TestExtractDocument_BodyFallsBackToRenderedText(t *testing.T) {
	post := newPost("S", "")
	post.children[DefaultSelectors.PostBody] = []*fakeElement{{
		html: `<div data-pw="postBody">line one<br>line two</div>`,
		text: "line one\r\nline two ",
	}}
	page := newPage("", newSection("1", "T", post))

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	require.Len(t, got.Sections, 1)
	require.Len(t, got.Sections[0].Posts, 1)
	assert.Equal(t, "line one\nline two", got.Sections[0].Posts[0].Body)
}

func TestExtractDocument_SpacersAndLinks(t *testing.T) {
	body := `<div><p>Intro</p><p><br></p><p>Read <a href="https://e.com">this</a></p><p>Bye</p></div>`
	page := newPage("", newSection("1", "T", newPost("S", body)))

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	got, err := x.ExtractDocument(context.Background(), page, "u")
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\nRead [this](https://e.com)\nBye", got.Sections[0].Posts[0].Body)
}

func TestExtractDocument_Cancelled(t *testing.T) {
	page := newPage("", newSection("1", "T", newPost("S", "")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := NewExtractor(DefaultSelectors, 0, testLogger())
	_, err := x.ExtractDocument(ctx, page, "u")
	assert.ErrorIs(t, err, context.Canceled)
}
