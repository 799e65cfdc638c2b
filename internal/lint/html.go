// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lint

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLInfo holds the fields extracted from a TAPS HTML rendition that the
// checks compare against the registry.
type HTMLInfo struct {
	Title          string
	DOI            string
	WordCount      int
	ReferenceCount int
	AuthorCount    int
	FigureCount    int
}

// InfoFromHTML extracts check fields from a TAPS HTML rendition.
func InfoFromHTML(r io.Reader) (HTMLInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return HTMLInfo{}, fmt.Errorf("parsing HTML: %w", err)
	}

	var info HTMLInfo
	info.Title = strings.TrimSpace(doc.Find("title").First().Text())

	// The first pubInfo anchor is the paper DOI; the second would be the
	// proceedings DOI.
	info.DOI = strings.TrimSpace(doc.Find("div.pubInfo a").First().Text())

	body := doc.Find("section.body").First().Text()
	info.WordCount = len(strings.Fields(body))

	info.ReferenceCount = doc.Find("ul.bibUl li").Length()
	info.AuthorCount = doc.Find("div.authorGroup div.author").Length()
	info.FigureCount = doc.Find("figure").Length()
	return info, nil
}

// InfoFromFile extracts check fields from an HTML file on disk.
func InfoFromFile(path string) (HTMLInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return HTMLInfo{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return InfoFromHTML(f)
}

// normalizeTitle lowers case and collapses whitespace so that PCS and TAPS
// titles with cosmetic differences still match.
func normalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"`)
	return strings.Join(strings.Fields(s), " ")
}
