// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

// testServer serves fake deliverables and records every request path. Paths
// under /gone/ return 404, /stale/ returns 401 like an expired signed URL.
type testServer struct {
	*httptest.Server

	mu    sync.Mutex
	paths []string

	// bodies maps a path to its response body; unset paths under /file/
	// fall back to fakePDFContent.
	bodies map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{bodies: make(map[string]string)}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.paths = append(ts.paths, r.URL.Path)
		body, ok := ts.bodies[r.URL.Path]
		ts.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/stale/"):
			w.WriteHeader(http.StatusUnauthorized)
		case strings.HasPrefix(r.URL.Path, "/gone/"):
			http.NotFound(w, r)
		case strings.HasPrefix(r.URL.Path, "/file/"):
			if !ok {
				body = fakePDFContent
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) requests() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.paths...)
}

func (ts *testServer) setBody(path, body string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.bodies[path] = body
}

var testFileTypes = []types.FileType{
	{PCSField: "Final PDF", Directory: "PDF", Suffix: ".pdf", Description: "Final PDF", DLFlag: "pdf"},
	{PCSField: "Video Figure", Directory: "VID", Suffix: "-video.mp4", Description: "Video Figure", DLFlag: "video"},
}

func paperRecord(id, pdfURL, videoURL string) registry.Record {
	return registry.NewRecord(map[string]string{
		"Paper ID":     id,
		"Title":        "Paper " + id,
		"DOI":          "https://doi.org/10.1145/111." + id,
		"Final PDF":    pdfURL,
		"Video Figure": videoURL,
	})
}

func newEngine(ts *testServer, out *bytes.Buffer) *Engine {
	return &Engine{
		Client: ts.Client(),
		Cfg:    types.DownloadConfig{Freshness: types.OnlyIfChanged},
		Track:  "chi23b",
		Out:    out,
	}
}

func TestRunDownloadsAndSkipsUnsubmitted(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
	}}

	var buf bytes.Buffer
	outcomes, err := newEngine(ts, &buf).Run(context.Background(), reg, testFileTypes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []types.Status{types.Success, types.SkippedNotSubmitted}
	if len(outcomes) != len(want) {
		t.Fatalf("len(outcomes) = %d, want %d", len(outcomes), len(want))
	}
	for i, st := range want {
		if outcomes[i].Status != st {
			t.Errorf("outcomes[%d].Status = %v, want %v", i, outcomes[i].Status, st)
		}
	}

	data, err := os.ReadFile(filepath.Join("chi23b_PDF", "pn100.pdf"))
	if err != nil {
		t.Fatalf("reading downloaded PDF: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("PDF content = %q, want %q", string(data), fakePDFContent)
	}

	// Exactly one file produced: the unsubmitted video must not exist.
	if entries, err := os.ReadDir("chi23b_VID"); err != nil {
		t.Fatalf("reading video dir: %v", err)
	} else if len(entries) != 0 {
		t.Errorf("video dir has %d entries, want 0", len(entries))
	}

	if got := ts.requests(); len(got) != 1 || got[0] != "/file/pn100.pdf" {
		t.Errorf("server requests = %v, want [/file/pn100.pdf]", got)
	}
	if !strings.Contains(buf.String(), "Batch summary:") {
		t.Error("output should contain batch summary")
	}
}

func TestRunOnlyIfChangedIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
	}}

	var buf bytes.Buffer
	e := newEngine(ts, &buf)
	if _, err := e.Run(context.Background(), reg, testFileTypes[:1]); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Same length, different bytes: a re-download would be visible.
	ts.setBody("/file/pn100.pdf", strings.Repeat("X", len(fakePDFContent)))

	outcomes, err := e.Run(context.Background(), reg, testFileTypes[:1])
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if outcomes[0].Status != types.SkippedAlreadyCurrent {
		t.Errorf("second run status = %v, want %v", outcomes[0].Status, types.SkippedAlreadyCurrent)
	}

	data, err := os.ReadFile(filepath.Join("chi23b_PDF", "pn100.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("file was re-downloaded: content = %q", string(data))
	}
}

func TestRunOnlyIfMissingSkipsWithoutRequest(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	if err := os.MkdirAll("chi23b_PDF", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("chi23b_PDF", "pn100.pdf"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
	}}

	var buf bytes.Buffer
	e := newEngine(ts, &buf)
	e.Cfg.Freshness = types.OnlyIfMissing

	outcomes, err := e.Run(context.Background(), reg, testFileTypes[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcomes[0].Status != types.SkippedAlreadyCurrent {
		t.Errorf("status = %v, want %v", outcomes[0].Status, types.SkippedAlreadyCurrent)
	}
	if got := ts.requests(); len(got) != 0 {
		t.Errorf("server requests = %v, want none", got)
	}
}

func TestRunNotFoundContinuesBatch(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/gone/pn100.pdf", ""),
		paperRecord("pn200", ts.URL+"/file/pn200.pdf", ""),
	}}

	var buf bytes.Buffer
	outcomes, err := newEngine(ts, &buf).Run(context.Background(), reg, testFileTypes[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcomes[0].Status != types.FailedNotFound {
		t.Errorf("outcomes[0].Status = %v, want %v", outcomes[0].Status, types.FailedNotFound)
	}
	if outcomes[1].Status != types.Success {
		t.Errorf("outcomes[1].Status = %v, want %v", outcomes[1].Status, types.Success)
	}
	if _, err := os.Stat(filepath.Join("chi23b_PDF", "pn200.pdf")); err != nil {
		t.Errorf("pn200.pdf missing after batch continued: %v", err)
	}
}

func TestRunMalformedURLIsPerItem(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", "not a url", ""),
	}}

	var buf bytes.Buffer
	outcomes, err := newEngine(ts, &buf).Run(context.Background(), reg, testFileTypes[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcomes[0].Status != types.FailedNotFound {
		t.Errorf("status = %v, want %v", outcomes[0].Status, types.FailedNotFound)
	}
}

func TestRunStaleURLReturnsRestartError(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
		paperRecord("pn200", ts.URL+"/stale/pn200.pdf", ""),
		paperRecord("pn300", ts.URL+"/file/pn300.pdf", ""),
	}}

	var buf bytes.Buffer
	outcomes, err := newEngine(ts, &buf).Run(context.Background(), reg, testFileTypes[:1])
	if err == nil {
		t.Fatal("expected RestartError, got nil")
	}

	var restart *RestartError
	if !errors.As(err, &restart) {
		t.Fatalf("error = %v, want *RestartError", err)
	}
	if restart.Index != 1 {
		t.Errorf("restart.Index = %d, want 1", restart.Index)
	}

	// The batch stops at the stale record: two outcomes, no request for
	// the third.
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}
	if outcomes[1].Status != types.FailedOther {
		t.Errorf("outcomes[1].Status = %v, want %v", outcomes[1].Status, types.FailedOther)
	}
	for _, p := range ts.requests() {
		if strings.Contains(p, "pn300") {
			t.Errorf("record after the fatal one was requested: %s", p)
		}
	}
}

func TestRunResumeSkipsEarlierRecords(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
		paperRecord("pn200", ts.URL+"/file/pn200.pdf", ""),
		paperRecord("pn300", ts.URL+"/file/pn300.pdf", ""),
	}}

	var buf bytes.Buffer
	e := newEngine(ts, &buf)
	e.Cfg.Start = 2

	outcomes, err := e.Run(context.Background(), reg, testFileTypes[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("len(outcomes) = %d, want 1", len(outcomes))
	}
	if outcomes[0].PaperID != "pn300" {
		t.Errorf("outcomes[0].PaperID = %q, want %q", outcomes[0].PaperID, "pn300")
	}
	if got := ts.requests(); len(got) != 1 || got[0] != "/file/pn300.pdf" {
		t.Errorf("server requests = %v, want [/file/pn300.pdf]", got)
	}
	if !strings.Contains(buf.String(), "skipping") {
		t.Error("output should mention skipped records")
	}
}

func TestRunAbsentColumnIsSchemaMismatch(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	// Record lacks the "Video Figure" column entirely.
	reg := &registry.Registry{Records: []registry.Record{
		registry.NewRecord(map[string]string{
			"Paper ID":  "pn100",
			"Title":     "Paper pn100",
			"Final PDF": ts.URL + "/file/pn100.pdf",
		}),
	}}

	var buf bytes.Buffer
	outcomes, err := newEngine(ts, &buf).Run(context.Background(), reg, testFileTypes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcomes[1].Status != types.FailedOther {
		t.Errorf("absent column status = %v, want %v", outcomes[1].Status, types.FailedOther)
	}
	if !strings.Contains(outcomes[1].Detail, "not in registry") {
		t.Errorf("Detail = %q, want mention of missing field", outcomes[1].Detail)
	}
}

func TestRunLocalNameOverride(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		registry.NewRecord(map[string]string{
			"PCS_ID":   "pn100",
			"PAPER ID": "37",
			"PDF_URL":  ts.URL + "/file/37.pdf",
		}),
	}}
	ft := types.FileType{PCSField: "PDF_URL", Directory: "TAPS_PDF", Suffix: ".pdf", Description: "TAPS PDF"}

	var buf bytes.Buffer
	e := &Engine{
		Client: ts.Client(),
		Cfg:    types.DownloadConfig{Freshness: types.OnlyIfChanged},
		LocalName: func(rec registry.Record, ft types.FileType) string {
			return rec.Get("PCS_ID") + "_" + rec.Get("PAPER ID") + ft.Suffix
		},
		ID:  func(rec registry.Record) string { return rec.Get("PCS_ID") },
		Out: &buf,
	}

	if _, err := e.Run(context.Background(), reg, []types.FileType{ft}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join("TAPS_PDF", "pn100_37.pdf")); err != nil {
		t.Errorf("expected pn100_37.pdf: %v", err)
	}
}

func TestRunContextCancellation(t *testing.T) {
	ts := newTestServer(t)
	testChdir(t, t.TempDir())

	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", ts.URL+"/file/pn100.pdf", ""),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := newEngine(ts, &buf).Run(ctx, reg, testFileTypes[:1])
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if got := ts.requests(); len(got) != 0 {
		t.Errorf("server requests = %v, want none", got)
	}
}

func TestMissing(t *testing.T) {
	reg := &registry.Registry{Records: []registry.Record{
		paperRecord("pn100", "http://example.com/a.pdf", ""),
		paperRecord("pn200", "", ""),
	}}

	var buf bytes.Buffer
	Missing(reg, testFileTypes, &buf)

	out := buf.String()
	if !strings.Contains(out, `"Final PDF" not submitted`) {
		t.Error("output should flag pn200's missing PDF")
	}
	if !strings.Contains(out, "pn100, pn200") {
		t.Error("output should list both papers as missing videos")
	}
}

// testChdir changes the working directory for the duration of the test,
// matching the behavior of testing.T.Chdir (added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
