package markdown

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

var (
	ErrEmptyDocument      = errors.New("markdown document is empty")
	ErrInvalidFrontMatter = errors.New("invalid front matter")
)

// Parser renders journal entries. Raw HTML in the source is never passed
// through, so output is safe to embed.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
		),
	)

	return &Parser{md: md}
}

func (p *Parser) Render(source string) (string, error) {
	var buf bytes.Buffer
	err := p.md.Convert([]byte(source), &buf)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Meta is the front matter accepted on journal imports.
type Meta struct {
	Title string `yaml:"title" toml:"title"`
	Date  string `yaml:"date" toml:"date"`
	Mood  *int   `yaml:"mood" toml:"mood"`
}

// Document is an imported markdown file split into front matter and body.
type Document struct {
	Meta Meta
	Body string
}

// ParseDocument reads YAML (---) or TOML (+++) front matter and returns the
// remaining markdown as the body.
func (p *Parser) ParseDocument(source []byte) (*Document, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, ErrEmptyDocument
	}

	ctx := parser.NewContext()
	var discard bytes.Buffer
	err := p.md.Convert(source, &discard, parser.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	doc := &Document{Body: string(source)}

	data := frontmatter.Get(ctx)
	if data == nil {
		return doc, nil
	}

	err = data.Decode(&doc.Meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontMatter, err)
	}
	doc.Body = string(bytes.TrimLeft(stripFrontMatter(source), "\r\n"))

	return doc, nil
}

// stripFrontMatter drops everything up to and including the closing
// delimiter line. The frontmatter extension has already validated the block.
func stripFrontMatter(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 {
		return source
	}

	delim := bytes.TrimSpace(lines[0])
	offset := len(lines[0])
	for _, line := range lines[1:] {
		offset += len(line)
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			return source[offset:]
		}
	}
	return source
}
