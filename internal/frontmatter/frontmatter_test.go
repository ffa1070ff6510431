package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantBlock string
		wantBody  string
		wantOK    bool
	}{
		{
			name:      "block removed",
			doc:       "+++\ntitle = \"Hi\"\n+++\n# Body\n",
			wantBlock: "title = \"Hi\"",
			wantBody:  "# Body\n",
			wantOK:    true,
		},
		{
			name:      "empty block",
			doc:       "+++\n+++\ntext",
			wantBlock: "",
			wantBody:  "text",
			wantOK:    true,
		},
		{
			name:      "closing delimiter at end of file",
			doc:       "+++\na = 1\n+++",
			wantBlock: "a = 1",
			wantBody:  "",
			wantOK:    true,
		},
		{
			name:     "crlf line endings",
			doc:      "+++\r\na = 1\r\n+++\r\nbody",
			wantBody: "body",
			wantOK:   true,
			// block keeps the trailing carriage return of its lines
			wantBlock: "a = 1\r",
		},
		{
			name:     "no leading delimiter",
			doc:      "# Title\n+++\nx\n+++\n",
			wantBody: "# Title\n+++\nx\n+++\n",
		},
		{
			name:     "unterminated block",
			doc:      "+++\ntitle = \"x\"\n# Body",
			wantBody: "+++\ntitle = \"x\"\n# Body",
		},
		{
			name:     "delimiter not alone on line",
			doc:      "+++ x\n+++\n",
			wantBody: "+++ x\n+++\n",
		},
		{
			name:     "empty document",
			doc:      "",
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, body, ok := Split(tt.doc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBlock, block)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestExtract(t *testing.T) {
	doc := "+++\ntitle = \"Release notes\"\ndate = 2024-03-01T10:00:00Z\ntags = [\"go\", \"web\"]\nsummary = \"What changed\"\nslug = \"release-notes\"\n+++\nBody text\n"

	m, body, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "Body text\n", body)
	assert.Equal(t, "Release notes", m.Title)
	assert.Equal(t, []string{"go", "web"}, m.Tags)
	assert.Equal(t, "What changed", m.Summary)
	assert.Equal(t, "release-notes", m.Slug)
	assert.True(t, m.Date.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, m.Draft)
}

func TestExtractWithoutFrontmatter(t *testing.T) {
	m, body, err := Extract("# Plain\n")
	require.NoError(t, err)
	assert.Equal(t, "# Plain\n", body)
	assert.Equal(t, Matter{}, m)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("title = ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding frontmatter")
}
