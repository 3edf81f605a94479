package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLink_String(t *testing.T) {
	l := Link{URL: "https://example.com", Text: "Example"}
	assert.Equal(t, "[Example](https://example.com)", l.String())
}

func TestPadlet_TotalPosts(t *testing.T) {
	p := Padlet{
		URL: "https://padlet.com/u/board",
		Sections: []Section{
			{Title: "A", Posts: []Post{{Subject: "1"}, {Subject: "2"}}},
			{Title: "B"},
			{Title: "C", Posts: []Post{{Subject: "3"}}},
		},
	}
	assert.Equal(t, 3, p.TotalPosts())
	assert.Equal(t, "Padlet 'https://padlet.com/u/board' with 3 section(s) and 3 post(s)", p.String())

	p.Title = StringPtr("Board")
	assert.Contains(t, p.String(), "Padlet 'Board'")
}

func TestPadlet_Summary(t *testing.T) {
	p := Padlet{
		URL:      "https://padlet.com/u/board",
		Title:    StringPtr("Board"),
		Sections: []Section{{Title: "Ideas", Posts: []Post{{Subject: "A", Body: "hello"}}}},
	}
	want := "Padlet 'Board' with 1 section(s) and 1 post(s)\n\nSections:\n  - Ideas: 1 post(s)\n"
	assert.Equal(t, want, p.Summary())
}

func TestPost_StringTruncatesLongBodies(t *testing.T) {
	p := Post{Subject: "S", Body: "0123456789012345678901234567890123456789012345678901234"}
	assert.Equal(t, "S: 01234567890123456789012345678901234567890123456789...", p.String())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	if assert.NotNil(t, StringPtr("x")) {
		assert.Equal(t, "x", *StringPtr("x"))
	}
}
