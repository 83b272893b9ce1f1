package converter

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	modifiedRe = regexp.MustCompile(`\bon\s+([A-Z][a-z]+\.?\s+\d{1,2},\s+\d{4}|\d{4}-\d{2}-\d{2})`)

	dateLayouts = []string{
		"Jan 2, 2006",
		"Jan. 2, 2006",
		"January 2, 2006",
		"2006-01-02",
	}
)

// Metadata is what a Confluence export page says about itself outside its
// content.
type Metadata struct {
	Breadcrumbs []string
	RawTitle    string
	Modified    string
}

// Extract reads breadcrumbs, title and the metadata line from doc. Missing
// elements yield empty values.
func Extract(doc *goquery.Document) Metadata {
	var md Metadata
	doc.Find("#breadcrumbs li a").Each(func(_ int, s *goquery.Selection) {
		md.Breadcrumbs = append(md.Breadcrumbs, strings.TrimSpace(s.Text()))
	})
	md.RawTitle = collapseSpace(doc.Find("#title-text").First().Text())
	if md.RawTitle == "" {
		md.RawTitle = collapseSpace(doc.Find("head title").First().Text())
	}
	md.Modified = collapseSpace(doc.Find(".page-metadata").First().Text())
	return md
}

// ParseModified returns the last-modified date mentioned in a metadata line
// such as "Created by A, last modified by B on Mar 02, 2016".
func ParseModified(text string) (time.Time, bool) {
	matches := modifiedRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return time.Time{}, false
	}
	raw := strings.Join(strings.Fields(matches[len(matches)-1][1]), " ")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
