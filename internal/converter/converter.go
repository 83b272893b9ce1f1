// Package converter renders one Confluence export page into a Markdown
// document with front matter.
package converter

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	mdconv "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/starford/wikimd/internal/frontmatter"
	"github.com/starford/wikimd/internal/models"
	"github.com/starford/wikimd/internal/resolver"
	"github.com/starford/wikimd/internal/sanitize"
)

// Chrome removed before rendering.
var chromeSelectors = []string{
	"#main-header",
	"#breadcrumb-section",
	".page-metadata",
	"section.footer-body",
	"#footer",
}

// Options configures the rendered documents.
type Options struct {
	Layout          string
	Lang            string
	Preamble        string // line placed after the front matter
	ImageBase       string // prefix for relative image sources
	DefaultLanguage string // highlight language when a code macro names none
	Now             func() time.Time
}

// Result is a converted page ready to be written.
type Result struct {
	Page    models.Page
	Content []byte
}

// Converter is safe for concurrent use.
type Converter struct {
	opts Options
	md   *mdconv.Converter
}

// New creates a Converter.
func New(opts Options) *Converter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{
		opts: opts,
		md:   newMarkdownConverter(opts.DefaultLanguage),
	}
}

// Convert renders raw, the content of the export file source, into a
// document carrying identifier. Malformed HTML never fails: missing title,
// breadcrumbs or dates fall back to defaults.
func (c *Converter) Convert(source, identifier string, raw []byte) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("converter: parse %s: %w", source, err)
	}

	meta := Extract(doc)
	loc := resolver.Resolve(meta.Breadcrumbs, meta.RawTitle, source)

	updated, ok := ParseModified(meta.Modified)
	if !ok {
		updated = c.opts.Now().UTC()
	}

	page := models.Page{
		Source:     source,
		Identifier: identifier,
		Title:      displayTitle(loc, meta.RawTitle, source),
		Categories: loc.Categories,
		Folder:     loc.Folder,
		Filename:   loc.Filename,
		UpdatedAt:  updated,
	}

	body, err := c.renderBody(doc)
	if err != nil {
		return nil, fmt.Errorf("converter: render %s: %w", source, err)
	}

	header := frontmatter.Header{
		Identifier: identifier,
		UpdatedAt:  updated,
		Layout:     c.opts.Layout,
		Lang:       c.opts.Lang,
		Title:      page.Title,
		Categories: []string{loc.Primary()},
	}
	if o, ok := frontmatter.Lookup(loc.Title); ok {
		header.Apply(o, loc.TopLevel())
	}
	fm, err := frontmatter.Render(header)
	if err != nil {
		return nil, fmt.Errorf("converter: front matter %s: %w", source, err)
	}

	var out bytes.Buffer
	out.Write(fm)
	out.WriteString("\n")
	if c.opts.Preamble != "" {
		out.WriteString(c.opts.Preamble + "\n\n")
	}
	out.WriteString(body)
	out.WriteString("\n")

	return &Result{Page: page, Content: out.Bytes()}, nil
}

func (c *Converter) renderBody(doc *goquery.Document) (string, error) {
	for _, sel := range chromeSelectors {
		doc.Find(sel).Remove()
	}
	fixTableOfContents(doc)
	quoteInfoMacros(doc)

	root := doc.Find("#main-content").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	inner, err := root.Html()
	if err != nil {
		return "", err
	}

	md, err := c.md.ConvertString(inner)
	if err != nil {
		return "", err
	}
	if c.opts.ImageBase != "" {
		md = prefixImages(md, c.opts.ImageBase)
	}
	return strings.TrimSpace(md), nil
}

// fixTableOfContents points table-of-contents entries at the heading
// anchors the site generator produces.
func fixTableOfContents(doc *goquery.Document) {
	doc.Find(".toc-macro a").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("href", "#"+sanitize.Anchor(s.Text()))
	})
}

// quoteInfoMacros renders info/note/warning/tip panels as block quotes.
func quoteInfoMacros(doc *goquery.Document) {
	doc.Find(".confluence-information-macro").Each(func(_ int, s *goquery.Selection) {
		body := s.Find(".confluence-information-macro-body").First()
		if body.Length() == 0 {
			body = s
		}
		inner, err := body.Html()
		if err != nil {
			return
		}
		s.ReplaceWithHtml("<blockquote>" + inner + "</blockquote>")
	})
}

func displayTitle(loc resolver.Location, rawTitle, source string) string {
	if loc.Title != "" {
		return loc.Title
	}
	if rawTitle != "" {
		return rawTitle
	}
	return strings.TrimSuffix(path.Base(source), path.Ext(source))
}
