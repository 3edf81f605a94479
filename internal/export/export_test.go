package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padletscraper/internal/domain"
)

func samplePadlet() *domain.Padlet {
	return &domain.Padlet{
		URL:   "https://padlet.com/u/board",
		Title: domain.StringPtr("Café <Board>"),
		Sections: []domain.Section{
			{
				Title:     "Ideas",
				SectionID: domain.StringPtr("123"),
				Posts: []domain.Post{
					{Subject: "A", Body: "hello\n\nsee [x](https://x.io)", SectionID: domain.StringPtr("123")},
					{Subject: "Untitled", Body: "body"},
				},
			},
			{Title: "Empty", Posts: []domain.Post{}},
		},
	}
}

func TestMarkdown_Scenario(t *testing.T) {
	p := &domain.Padlet{
		URL: "u",
		Sections: []domain.Section{{
			Title: "Ideas",
			Posts: []domain.Post{{Subject: "A", Body: "hello"}},
		}},
	}
	assert.Equal(t, "## Ideas\n\n### A\n\nhello\n", Markdown(p))
}

func TestMarkdown_WithTitle(t *testing.T) {
	got := Markdown(samplePadlet())
	want := "# Café <Board>\n\n## Ideas\n\n### A\n\nhello\n\nsee [x](https://x.io)\n\n### Untitled\n\nbody\n\n## Empty\n"
	assert.Equal(t, want, got)
}

func TestWriteJSON_Shape(t *testing.T) {
	p := &domain.Padlet{
		URL:      "u",
		Sections: []domain.Section{{Title: "S"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, p))

	want := `{
  "url": "u",
  "title": null,
  "sections": [
    {
      "title": "S",
      "section_id": null,
      "posts": []
    }
  ]
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON_LiteralCharacters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, samplePadlet()))
	assert.Contains(t, buf.String(), `"title": "Café <Board>"`)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	want := samplePadlet()

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_Markdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.MD")
	require.NoError(t, Save(path, samplePadlet()))
}

func TestFormatForPath(t *testing.T) {
	f, err := FormatForPath("out.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = FormatForPath("out.md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = FormatForPath("out.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "'.txt'")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, samplePadlet(), "yaml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
