// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lint runs heuristic quality checks comparing the PCS camera-ready
// PDF and the TAPS HTML rendition of each paper. Extracting structure from
// PDFs is inherently lossy, so findings are advice for a human reviewer,
// never a reason to abort a batch.
package lint

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// Finding is one failed check for one paper.
type Finding struct {
	PaperID string
	Check   string
	Message string
}

// Report summarizes a lint run.
type Report struct {
	Checked  int
	Findings []Finding
}

// HasFindings reports whether any check failed.
func (r Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// relaxedConf is the pdfcpu configuration used for validation. Camera-ready
// PDFs from assorted toolchains rarely survive strict validation.
func relaxedConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Run checks every registry record and prints findings as
// "paper: check: message" lines.
func Run(cfg types.LintConfig, reg *registry.Registry, w io.Writer) Report {
	var report Report
	for _, rec := range reg.Records {
		report.Checked++
		findings := checkPaper(cfg, rec)
		for _, f := range findings {
			fmt.Fprintf(w, "%s: %s: %s\n", f.PaperID, f.Check, f.Message)
		}
		report.Findings = append(report.Findings, findings...)
	}
	fmt.Fprintf(w, "\nLint summary: %d papers checked, %d findings\n", report.Checked, len(report.Findings))
	return report
}

func checkPaper(cfg types.LintConfig, rec registry.Record) []Finding {
	var findings []Finding
	add := func(check, format string, args ...any) {
		findings = append(findings, Finding{
			PaperID: rec.ID(),
			Check:   check,
			Message: fmt.Sprintf(format, args...),
		})
	}

	pdfPath := filepath.Join(cfg.PDFDir, rec.ID()+".pdf")
	if err := api.ValidateFile(pdfPath, relaxedConf()); err != nil {
		add("pdf", "missing or invalid PDF: %v", err)
	} else if pages, err := api.PageCountFile(pdfPath); err != nil {
		add("pdf-pages", "cannot count pages: %v", err)
	} else {
		if cfg.MinPages > 0 && pages < cfg.MinPages {
			add("pdf-pages", "only %d pages (min %d)", pages, cfg.MinPages)
		}
		if cfg.MaxPages > 0 && pages > cfg.MaxPages {
			add("pdf-pages", "%d pages (max %d)", pages, cfg.MaxPages)
		}
	}

	// The TAPS download stage names files {pcsID}_{tapsID}.html; the
	// TAPS-side identifier is not known here, so locate by pattern.
	matches, _ := filepath.Glob(filepath.Join(cfg.HTMLDir, rec.ID()+"_*.html"))
	if len(matches) == 0 {
		add("html", "no TAPS HTML rendition found")
		return findings
	}

	info, err := InfoFromFile(matches[0])
	if err != nil {
		add("html", "%v", err)
		return findings
	}

	if got, want := normalizeTitle(info.Title), normalizeTitle(rec.Title()); want != "" && got != want {
		add("title", "HTML title %q does not match registry title %q", info.Title, rec.Title())
	}

	if doi, err := rec.DOI(nil); err == nil {
		if info.DOI == "" {
			add("doi", "no DOI anchor in HTML")
		} else if !doiMatches(info.DOI, doi) {
			add("doi", "HTML DOI %q does not match registry DOI %q", info.DOI, doi)
		}
	}

	if info.ReferenceCount < 1 {
		add("references", "no references found in HTML")
	}

	if cfg.MinWords > 0 && info.WordCount < cfg.MinWords {
		add("words", "body has only %d words (min %d)", info.WordCount, cfg.MinWords)
	}

	return findings
}

// doiMatches compares DOIs leniently: the HTML anchor may carry the full
// resolver URL while the registry stores the bare DOI.
func doiMatches(htmlDOI, bareDOI string) bool {
	return htmlDOI == bareDOI || htmlDOI == "https://doi.org/"+bareDOI
}
