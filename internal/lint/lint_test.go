// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

const sampleTAPSHTML = `<html>
<head><title>A Study of Things</title></head>
<body>
<div class="authorGroup">
  <div class="author">Ada Lovelace</div>
  <div class="author">Bob Babbage</div>
</div>
<div class="pubInfo">
  <a href="https://doi.org/10.1145/111.2222">https://doi.org/10.1145/111.2222</a>
  <a href="https://doi.org/10.1145/3544548">https://doi.org/10.1145/3544548</a>
</div>
<section class="body">
One two three four five six seven eight nine ten.
<figure><img src="fig1.png"></figure>
<figure><img src="fig2.png"></figure>
</section>
<ul class="bibUl">
  <li>Reference one</li>
  <li>Reference two</li>
  <li>Reference three</li>
</ul>
</body>
</html>`

func TestInfoFromHTML(t *testing.T) {
	info, err := InfoFromHTML(strings.NewReader(sampleTAPSHTML))
	if err != nil {
		t.Fatalf("InfoFromHTML: %v", err)
	}

	if info.Title != "A Study of Things" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.DOI != "https://doi.org/10.1145/111.2222" {
		t.Errorf("DOI = %q, want the first pubInfo anchor", info.DOI)
	}
	if info.WordCount != 10 {
		t.Errorf("WordCount = %d, want 10", info.WordCount)
	}
	if info.ReferenceCount != 3 {
		t.Errorf("ReferenceCount = %d, want 3", info.ReferenceCount)
	}
	if info.AuthorCount != 2 {
		t.Errorf("AuthorCount = %d, want 2", info.AuthorCount)
	}
	if info.FigureCount != 2 {
		t.Errorf("FigureCount = %d, want 2", info.FigureCount)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A Study of Things", "a study of things"},
		{`"A Study of Things"`, "a study of things"},
		{"  A   Study \n of Things  ", "a study of things"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDOIMatches(t *testing.T) {
	if !doiMatches("10.1145/111.2222", "10.1145/111.2222") {
		t.Error("bare DOIs should match")
	}
	if !doiMatches("https://doi.org/10.1145/111.2222", "10.1145/111.2222") {
		t.Error("resolver URL should match the bare DOI")
	}
	if doiMatches("https://doi.org/10.1145/999", "10.1145/111.2222") {
		t.Error("different DOIs should not match")
	}
}

func lintDirs(t *testing.T) types.LintConfig {
	t.Helper()
	base := t.TempDir()
	cfg := types.LintConfig{
		PDFDir:  filepath.Join(base, "pdf"),
		HTMLDir: filepath.Join(base, "html"),
	}
	for _, d := range []string{cfg.PDFDir, cfg.HTMLDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestRunMissingFiles(t *testing.T) {
	cfg := lintDirs(t)

	reg := &registry.Registry{Records: []registry.Record{
		registry.NewRecord(map[string]string{
			"Paper ID": "pn100",
			"Title":    "A Study of Things",
			"DOI":      "https://doi.org/10.1145/111.2222",
		}),
	}}

	var buf bytes.Buffer
	report := Run(cfg, reg, &buf)

	if report.Checked != 1 {
		t.Errorf("Checked = %d, want 1", report.Checked)
	}
	if !report.HasFindings() {
		t.Fatal("a paper with no files should produce findings")
	}

	checks := make(map[string]bool)
	for _, f := range report.Findings {
		if f.PaperID != "pn100" {
			t.Errorf("finding PaperID = %q", f.PaperID)
		}
		checks[f.Check] = true
	}
	if !checks["pdf"] {
		t.Error("missing PDF should be reported")
	}
	if !checks["html"] {
		t.Error("missing HTML should be reported")
	}
	if !strings.Contains(buf.String(), "Lint summary:") {
		t.Error("output should contain a summary line")
	}
}

func TestRunHTMLChecks(t *testing.T) {
	cfg := lintDirs(t)
	cfg.MinWords = 100

	htmlPath := filepath.Join(cfg.HTMLDir, "pn100_37.html")
	if err := os.WriteFile(htmlPath, []byte(sampleTAPSHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := &registry.Registry{Records: []registry.Record{
		registry.NewRecord(map[string]string{
			"Paper ID": "pn100",
			"Title":    "A Completely Different Title",
			"DOI":      "https://doi.org/10.1145/999.0000",
		}),
	}}

	var buf bytes.Buffer
	report := Run(cfg, reg, &buf)

	checks := make(map[string]bool)
	for _, f := range report.Findings {
		checks[f.Check] = true
	}
	if !checks["title"] {
		t.Error("mismatched title should be reported")
	}
	if !checks["doi"] {
		t.Error("mismatched DOI should be reported")
	}
	if !checks["words"] {
		t.Error("a 10-word body should fail the 100-word minimum")
	}
	if checks["references"] {
		t.Error("three references should satisfy the reference check")
	}
}

func TestRunMatchingHTMLIsQuiet(t *testing.T) {
	cfg := lintDirs(t)

	htmlPath := filepath.Join(cfg.HTMLDir, "pn100_37.html")
	if err := os.WriteFile(htmlPath, []byte(sampleTAPSHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := &registry.Registry{Records: []registry.Record{
		registry.NewRecord(map[string]string{
			"Paper ID": "pn100",
			"Title":    "A Study of Things",
			"DOI":      "https://doi.org/10.1145/111.2222",
		}),
	}}

	var buf bytes.Buffer
	report := Run(cfg, reg, &buf)

	for _, f := range report.Findings {
		if f.Check != "pdf" {
			t.Errorf("unexpected finding %s: %s", f.Check, f.Message)
		}
	}
}
