// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taps talks to the TAPS typesetting portal. The portal has no
// export API; the proceedings table is scraped from the dashboard HTML and
// the PDF/HTML file URLs are recovered from javascript onclick handlers.
package taps

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// ListFile is the on-disk name of the scraped proceedings table.
const ListFile = "taps_procs.csv"

// listMaxAge mirrors the registry freshness window: a scrape younger than
// this is reused. TAPS is slow; a full scrape can take a minute.
const listMaxAge = 5 * time.Minute

var (
	openfileRe  = regexp.MustCompile(`openfile\('(.*)'\)`)
	showhtmlRe  = regexp.MustCompile(`showhtml5\('(.*)'\)`)
	errorlogRe  = regexp.MustCompile(`showerrorlog\('(.*)'\)`)
	statusPctRe = regexp.MustCompile(`[0-9]+`)
)

// Login authenticates against the portal. A GET to the session page first
// establishes the session cookie the login form expects.
func Login(client *http.Client, cfg types.TAPSConfig) error {
	resp, err := client.Get(cfg.BaseURL + "/ACMConference/")
	if err != nil {
		return fmt.Errorf("fetching session page: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// select_dashboard: 1 = Proceedings, 2 = PACM.
	form := url.Values{
		"user_loginname":   {cfg.User},
		"password":         {cfg.Password},
		"select_dashboard": {"1"},
		"button2":          {"Login"},
	}
	resp, err = client.PostForm(cfg.BaseURL+"/ACMConference/login.html", form)
	if err != nil {
		return fmt.Errorf("posting login form: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// onclickArgs splits the quoted argument list of an onclick handler.
func onclickArgs(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), "'")
	}
	return parts
}

// actionURL recovers a file URL from an ACTIONS-cell icon. The handler's
// second and third arguments are the path components under the portal root.
func actionURL(base string, cell *goquery.Selection, imgTitle string, re *regexp.Regexp) string {
	onclick, ok := cell.Find("a img[title='" + imgTitle + "']").Attr("onclick")
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(onclick)
	if m == nil {
		return ""
	}
	args := onclickArgs(m[1])
	if len(args) < 3 {
		return ""
	}
	return base + "/" + args[1] + "/" + args[2]
}

// errorURL recovers the error-log URL, which uses a download endpoint with
// the handler arguments spread over the query string.
func errorURL(cfg types.TAPSConfig, cell *goquery.Selection) string {
	onclick, ok := cell.Find("a img[title='Error/Warning']").Attr("onclick")
	if !ok {
		return ""
	}
	m := errorlogRe.FindStringSubmatch(onclick)
	if m == nil {
		return ""
	}
	args := onclickArgs(m[1])
	if len(args) < 5 {
		return ""
	}
	return fmt.Sprintf("%s/ACMConference/downloadpdf2.html?Proceeding_ID=%s&Paper_ID=%s&Strip_acronym=%s&filename=%s&uid=%s&event_id=%s&workshop_id=%s",
		cfg.BaseURL, args[0], args[1], args[2], args[3], args[4], cfg.EventID, cfg.WorkshopID)
}

// statusPercent reads the completion percentage from the STATUS cell's
// image filename (e.g. "status_75.png").
func statusPercent(cell *goquery.Selection) string {
	src, ok := cell.Find("img").Attr("src")
	if !ok {
		return ""
	}
	return statusPctRe.FindString(src)
}

// FetchProceedings scrapes the proceedings table and writes it to ListFile,
// returning the path. For every paper the metadata page is fetched as well:
// its tenth line is the PCS identifier and its thirteenth the DOI, which is
// the fallback DOI source for papers whose registry DOI column is blank.
// A scrape younger than five minutes is reused unless force is set.
func FetchProceedings(client *http.Client, cfg types.TAPSConfig, force bool, w io.Writer) (string, error) {
	if !force && httputil.FileIsCurrent(ListFile, listMaxAge) {
		fmt.Fprintf(w, "proceedings list downloaded less than five minutes ago - skipping\n")
		return ListFile, nil
	}

	if err := Login(client, cfg); err != nil {
		return "", err
	}

	fmt.Fprintf(w, "Retrieving list of papers (might take up to one minute - TAPS is slow) ...\n")
	procURL := fmt.Sprintf("%s/ACMConference/showcopyrightpapers.html?proceeding_ID=%s&event_id=%s&workshop_id=%s",
		cfg.BaseURL, cfg.ProceedingID, cfg.EventID, cfg.WorkshopID)
	resp, err := client.Get(procURL)
	if err != nil {
		return "", fmt.Errorf("fetching proceedings page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proceedings page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing proceedings page: %w", err)
	}

	var cols []string
	doc.Find("table#ce_data thead tr th div").Each(func(_ int, s *goquery.Selection) {
		cols = append(cols, strings.TrimSpace(s.Text()))
	})
	if len(cols) == 0 {
		return "", fmt.Errorf("no ce_data table on proceedings page")
	}

	var rows []map[string]string
	var rowErr error
	doc.Find("table#ce_data tbody tr").Each(func(_ int, row *goquery.Selection) {
		if rowErr != nil {
			return
		}
		cells := row.Children()
		if cells.Length() != len(cols) {
			rowErr = fmt.Errorf("proceedings row has %d cells, want %d", cells.Length(), len(cols))
			return
		}

		d := make(map[string]string)
		for i, col := range cols {
			cell := cells.Eq(i)
			switch col {
			case "STATUS":
				d["STATUS"] = statusPercent(cell)
			case "ACTIONS":
				d["PDF_URL"] = actionURL(cfg.BaseURL, cell, "PDF Open", openfileRe)
				d["HTML_URL"] = actionURL(cfg.BaseURL, cell, "View HTML", showhtmlRe)
				d["ERROR_URL"] = errorURL(cfg, cell)
			default:
				d[col] = strings.TrimSpace(cell.Text())
			}
		}

		fmt.Fprintf(w, "getting metadata for paper %s (%s)\n", d["PAPER ID"], d["TITLE"])
		meta, err := fetchMetadata(client, cfg, d["PAPER ID"])
		if err != nil {
			rowErr = err
			return
		}
		d["METADATA"] = meta
		lines := strings.Split(meta, "\n")
		if len(lines) > 12 {
			d["PCS_ID"] = strings.TrimSpace(lines[9])
			d["DOI"] = strings.TrimSpace(lines[12])
		}
		rows = append(rows, d)
	})
	if rowErr != nil {
		return "", rowErr
	}
	fmt.Fprintf(w, "Found %d papers.\n", len(rows))

	outCols := make([]string, 0, len(cols)+5)
	for _, c := range cols {
		if c == "ACTIONS" {
			outCols = append(outCols, "PDF_URL", "HTML_URL", "ERROR_URL")
			continue
		}
		outCols = append(outCols, c)
	}
	outCols = append(outCols, "METADATA", "PCS_ID", "DOI")

	if err := writeCSV(ListFile, outCols, rows); err != nil {
		return "", err
	}
	return ListFile, nil
}

func fetchMetadata(client *http.Client, cfg types.TAPSConfig, paperID string) (string, error) {
	metaURL := fmt.Sprintf("%s/ACMConference/showpaperdetails.html?proceeding_ID=%s&paper_Id=%s",
		cfg.BaseURL, cfg.ProceedingID, paperID)
	resp, err := client.Get(metaURL)
	if err != nil {
		return "", fmt.Errorf("fetching metadata for %s: %w", paperID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading metadata for %s: %w", paperID, err)
	}
	return string(body), nil
}

func writeCSV(path string, cols []string, rows []map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(cols))
		for i, c := range cols {
			record[i] = row[c]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DOIMap reads a scraped proceedings table and returns PCS ID → DOI.
func DOIMap(path string) (map[string]string, error) {
	reg, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	dois := make(map[string]string, len(reg.Records))
	for _, rec := range reg.Records {
		if id := rec.Get("PCS_ID"); id != "" {
			dois[id] = rec.Get("DOI")
		}
	}
	return dois, nil
}

// FileTypes returns the two TAPS deliverable descriptors. They are fixed:
// TAPS always produces a PDF and an HTML rendition.
func FileTypes() []types.FileType {
	return []types.FileType{
		{PCSField: "PDF_URL", Directory: "TAPS_PDF", Suffix: ".pdf", Description: "TAPS PDF", DLFlag: "pdf"},
		{PCSField: "HTML_URL", Directory: "TAPS_HTML", Suffix: ".html", Description: "TAPS HTML", DLFlag: "html"},
	}
}

// LocalName names TAPS downloads "{pcsID}_{tapsID}.{ext}". The lint stage
// needs both identifiers in the filename to cross-reference PCS and TAPS.
func LocalName(rec registry.Record, ft types.FileType) string {
	return rec.Get("PCS_ID") + "_" + rec.Get("PAPER ID") + ft.Suffix
}
