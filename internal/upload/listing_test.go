// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sigchi/proceedings-engine/pkg/types"
)

const sampleListingHTML = `<html><body>
<table id="publications">
  <tr>
    <th>Status</th><th>Paper</th><th>Loaded</th><th>Contact</th><th>DOI</th><th>Description</th><th>File</th>
  </tr>
  <tr>
    <td>1</td>
    <td>pn100</td>
    <td>2023-03-01</td>
    <td><a href="mailto:ada@example.org">Ada Lovelace</a></td>
    <td>10.1145/111.2222</td>
    <td>Video Figure</td>
    <td><a href="https://files.example.org/2222-video.mp4">2222-video.mp4</a></td>
  </tr>
  <tr>
    <td>2 excluded</td>
    <td>pn200</td>
    <td>2023-03-02</td>
    <td><a href="mailto:bob@example.org">Bob Babbage</a></td>
    <td>10.1145/111.3333</td>
    <td>Video Figure</td>
    <td><a href="https://files.example.org/3333-video.mp4">3333-video.mp4</a></td>
  </tr>
</table>
</body></html>`

func TestFetchListing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/atyponListing.cfm" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("proceedingID"); got != "12345" {
			t.Errorf("proceedingID = %q, want 12345", got)
		}
		fmt.Fprint(w, sampleListingHTML)
	}))
	defer ts.Close()

	cfg := types.UploadConfig{SubmitBaseURL: ts.URL, ProceedingID: "12345"}
	listings, err := FetchListing(ts.Client(), cfg)
	if err != nil {
		t.Fatalf("FetchListing: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len(listings) = %d, want 2", len(listings))
	}

	first := listings[0]
	if first.Excluded {
		t.Error("first listing should not be excluded")
	}
	if first.PaperID != "pn100" {
		t.Errorf("PaperID = %q, want pn100", first.PaperID)
	}
	if first.ContactName != "Ada Lovelace" {
		t.Errorf("ContactName = %q", first.ContactName)
	}
	if first.ContactEmail != "ada@example.org" {
		t.Errorf("ContactEmail = %q", first.ContactEmail)
	}
	if first.DOI != "10.1145/111.2222" {
		t.Errorf("DOI = %q", first.DOI)
	}
	if first.FileName != "2222-video.mp4" {
		t.Errorf("FileName = %q", first.FileName)
	}
	if first.FileURL != "https://files.example.org/2222-video.mp4" {
		t.Errorf("FileURL = %q", first.FileURL)
	}

	if !listings[1].Excluded {
		t.Error("second listing should be excluded")
	}
}

func TestNewIndexSkipsExcluded(t *testing.T) {
	idx := NewIndex([]Listing{
		{FileName: "2222-video.mp4"},
		{FileName: "3333-video.mp4", Excluded: true},
	})

	if !idx.Contains("2222-video.mp4") {
		t.Error("index should contain the active upload")
	}
	if idx.Contains("3333-video.mp4") {
		t.Error("index should not contain the excluded upload")
	}
	if idx.Contains("4444-video.mp4") {
		t.Error("index should not contain an unknown name")
	}
}

func TestIndexNilContains(t *testing.T) {
	var idx Index
	if idx.Contains("anything.mp4") {
		t.Error("nil index should contain nothing")
	}
}
