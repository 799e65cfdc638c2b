// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sigchi/proceedings-engine/pkg/types"
)

// Listing is one row of the portal's already-uploaded table.
type Listing struct {
	// Excluded marks uploads DL staff have withdrawn. An excluded
	// upload may be uploaded again.
	Excluded bool

	PaperID      string
	LoadDate     string
	ContactName  string
	ContactEmail string
	DOI          string
	Description  string
	FileName     string
	FileURL      string
}

// FetchListing scrapes the proceeding's upload listing page.
func FetchListing(client *http.Client, cfg types.UploadConfig) ([]Listing, error) {
	listURL := fmt.Sprintf("%s/atyponListing.cfm?proceedingID=%s", cfg.SubmitBaseURL, cfg.ProceedingID)
	resp, err := client.Get(listURL)
	if err != nil {
		return nil, fmt.Errorf("fetching upload listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload listing returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing upload listing: %w", err)
	}

	var listings []Listing
	doc.Find("table#publications tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		if cells.Length() < 7 || row.Find("th").Length() > 0 {
			return
		}

		contact := cells.Eq(3).Find("a")
		file := cells.Eq(6).Find("a")
		href, _ := contact.Attr("href")
		fileURL, _ := file.Attr("href")

		listings = append(listings, Listing{
			Excluded:     strings.HasSuffix(strings.TrimSpace(cells.Eq(0).Text()), "excluded"),
			PaperID:      strings.TrimSpace(cells.Eq(1).Text()),
			LoadDate:     strings.TrimSpace(cells.Eq(2).Text()),
			ContactName:  strings.TrimSpace(contact.Text()),
			ContactEmail: strings.TrimPrefix(href, "mailto:"),
			DOI:          strings.TrimSpace(cells.Eq(4).Text()),
			Description:  strings.TrimSpace(cells.Eq(5).Text()),
			FileName:     strings.TrimSpace(file.Text()),
			FileURL:      fileURL,
		})
	})
	return listings, nil
}

// Index is the deduplication set of already-uploaded filenames. The portal
// has no native duplicate rejection, so the client enforces it.
type Index map[string]struct{}

// NewIndex builds the index from listing rows, skipping excluded uploads
// so that a withdrawn file can be uploaded again.
func NewIndex(listings []Listing) Index {
	idx := make(Index, len(listings))
	for _, l := range listings {
		if l.Excluded {
			continue
		}
		idx[l.FileName] = struct{}{}
	}
	return idx
}

// Contains reports whether name has already been uploaded.
func (idx Index) Contains(name string) bool {
	_, ok := idx[name]
	return ok
}
