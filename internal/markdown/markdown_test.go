package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEscapesRawHTML(t *testing.T) {
	p := NewParser()

	html, err := p.Render("# Today\n\nFelt **great**.\n\n<script>alert(1)</script>")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1 id=\"today\">Today</h1>")
	assert.Contains(t, html, "<strong>great</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestParseDocument(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name  string
		input string
		title string
		date  string
		mood  int
		body  string
	}{
		{
			name:  "yaml front matter",
			input: "---\ntitle: Morning pages\ndate: \"2025-03-14\"\nmood: 4\n---\n\nWoke up early.\n",
			title: "Morning pages",
			date:  "2025-03-14",
			mood:  4,
			body:  "Woke up early.\n",
		},
		{
			name:  "no front matter",
			input: "Just text.\n",
			body:  "Just text.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := p.ParseDocument([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.title, doc.Meta.Title)
			assert.Equal(t, tt.date, doc.Meta.Date)
			assert.Equal(t, tt.body, doc.Body)
			if tt.mood == 0 {
				assert.Nil(t, doc.Meta.Mood)
			} else {
				require.NotNil(t, doc.Meta.Mood)
				assert.Equal(t, tt.mood, *doc.Meta.Mood)
			}
		})
	}
}

func TestParseDocumentEmpty(t *testing.T) {
	_, err := NewParser().ParseDocument([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestParseDocumentInvalidFrontMatter(t *testing.T) {
	_, err := NewParser().ParseDocument([]byte("---\nmood: happy\n---\nbody\n"))
	assert.ErrorIs(t, err, ErrInvalidFrontMatter)
}
