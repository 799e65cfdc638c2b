// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transfer implements the batch download engine for per-paper
// deliverables. It walks the registry in order, fetches each configured
// file kind, and keeps going past per-item failures. The one fatal
// condition is an expired signed URL: the portal regenerates every
// download URL on each registry export, so a stale snapshot fails for the
// whole batch, not one file. The engine then reports the index it stopped
// at so the caller can re-fetch the registry and restart from there.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// RestartError reports a batch-fatal transfer failure and the registry
// index being processed when it happened. The caller persists the index,
// refreshes the registry, and restarts from it.
type RestartError struct {
	Index int
	Err   error
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("batch failed at index %d: %v", e.Index, e.Err)
}

func (e *RestartError) Unwrap() error { return e.Err }

// errNotFound marks per-item remote failures the batch recovers from.
var errNotFound = errors.New("file not found on server")

// Engine downloads per-paper deliverables from registry-embedded URLs.
type Engine struct {
	Client *http.Client
	Cfg    types.DownloadConfig

	// Track prefixes local directory names ("{track}_{directory}").
	// Empty means the descriptor's directory is used as-is.
	Track string

	// LocalName overrides the "{paperID}{suffix}" filename convention.
	// Used for TAPS downloads, which encode both identifiers in the name.
	LocalName func(rec registry.Record, ft types.FileType) string

	// ID overrides the paper-identifier accessor. The TAPS table keys
	// its rows by "PCS_ID" rather than the registry's "Paper ID".
	ID func(rec registry.Record) string

	// Out receives human progress lines.
	Out io.Writer
}

// dir returns the local directory for a descriptor.
func (e *Engine) dir(ft types.FileType) string {
	if e.Track == "" {
		return ft.Directory
	}
	return e.Track + "_" + ft.Directory
}

// localName returns the local filename for a (record, descriptor) pair.
func (e *Engine) localName(rec registry.Record, ft types.FileType) string {
	if e.LocalName != nil {
		return e.LocalName(rec, ft)
	}
	return e.id(rec) + ft.Suffix
}

// id returns the paper identifier for a record.
func (e *Engine) id(rec registry.Record) string {
	if e.ID != nil {
		return e.ID(rec)
	}
	return rec.ID()
}

// Run processes every (record, descriptor) pair in registry order and
// returns the per-pair outcomes. Records below Start are skipped. A
// batch-fatal failure returns the outcomes so far plus a *RestartError.
func (e *Engine) Run(ctx context.Context, reg *registry.Registry, fileTypes []types.FileType) ([]types.Outcome, error) {
	for _, ft := range fileTypes {
		if err := os.MkdirAll(e.dir(ft), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", e.dir(ft), err)
		}
	}

	var outcomes []types.Outcome
	for idx, rec := range reg.Records {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		fmt.Fprintf(e.Out, "[%d] Paper: %s (%s)\n", idx, e.id(rec), rec.Title())
		if idx < e.Cfg.Start {
			fmt.Fprintf(e.Out, "    skipping\n")
			continue
		}

		for _, ft := range fileTypes {
			outcome, err := e.fetchOne(rec, ft)
			outcomes = append(outcomes, outcome)
			if err != nil {
				return outcomes, &RestartError{Index: idx, Err: err}
			}
		}
	}

	e.summarize(outcomes)
	return outcomes, nil
}

// fetchOne handles a single (record, descriptor) pair. The returned error
// is non-nil only for batch-fatal conditions.
func (e *Engine) fetchOne(rec registry.Record, ft types.FileType) (types.Outcome, error) {
	outcome := types.Outcome{PaperID: e.id(rec), FileType: ft.Description}

	rawURL, ok := rec.Lookup(ft.PCSField)
	if !ok {
		// The descriptor references a column the registry does not
		// have. Recoverable, but it is a configuration problem, not
		// a missing submission.
		fmt.Fprintf(e.Out, "   >... field %q not in registry\n", ft.PCSField)
		outcome.Status = types.FailedOther
		outcome.Detail = fmt.Sprintf("field %q not in registry", ft.PCSField)
		return outcome, nil
	}
	if strings.TrimSpace(rawURL) == "" {
		fmt.Fprintf(e.Out, "   >... %q not submitted\n", ft.Description)
		outcome.Status = types.SkippedNotSubmitted
		return outcome, nil
	}

	fmt.Fprintf(e.Out, "    Retrieving %q\n", ft.Description)
	name := e.localName(rec, ft)
	dest := filepath.Join(e.dir(ft), name)

	status, err := e.download(rawURL, dest, name)
	switch {
	case err == nil:
		outcome.Status = status
		if status == types.SkippedAlreadyCurrent {
			fmt.Fprintf(e.Out, "   >... already downloaded\n")
		}
	case errors.Is(err, errNotFound):
		fmt.Fprintf(e.Out, "   >... file not found on server (%v)\n", err)
		outcome.Status = types.FailedNotFound
		outcome.Detail = err.Error()
	default:
		fmt.Fprintf(e.Out, "failed: %v\n", err)
		outcome.Status = types.FailedOther
		outcome.Detail = err.Error()
		return outcome, err
	}
	return outcome, nil
}

// download applies the freshness policy and streams the remote file to
// dest. Errors wrapping errNotFound are per-item; anything else is
// batch-fatal (expired signed URL or a transport failure).
func (e *Engine) download(rawURL, dest, name string) (types.Status, error) {
	if e.Cfg.Freshness == types.OnlyIfMissing {
		if _, err := os.Stat(dest); err == nil {
			return types.SkippedAlreadyCurrent, nil
		}
	}

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return 0, fmt.Errorf("%w: malformed URL %q", errNotFound, rawURL)
	}

	resp, err := e.Client.Get(rawURL)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The signed URL has expired: every URL in this registry
		// snapshot is equally stale.
		return 0, fmt.Errorf("HTTP %d from %s: stale download URL", resp.StatusCode, rawURL)
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: HTTP %d", errNotFound, resp.StatusCode)
	}

	if e.Cfg.Freshness == types.OnlyIfChanged && resp.ContentLength >= 0 {
		if info, err := os.Stat(dest); err == nil && info.Size() == resp.ContentLength {
			return types.SkippedAlreadyCurrent, nil
		}
	}

	if err := httputil.WriteFile(dest, resp.Body, resp.ContentLength, e.Cfg.Progress, "    "+name); err != nil {
		return 0, err
	}
	return types.Success, nil
}

func (e *Engine) summarize(outcomes []types.Outcome) {
	counts := make(map[types.Status]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	fmt.Fprintf(e.Out, "\nBatch summary: %d downloaded, %d current, %d not submitted, %d not found, %d failed (total: %d)\n",
		counts[types.Success], counts[types.SkippedAlreadyCurrent], counts[types.SkippedNotSubmitted],
		counts[types.FailedNotFound], counts[types.FailedOther], len(outcomes))
}

// Missing prints, per selected descriptor, the papers whose source field is
// empty. A status report only; no network calls are made.
func Missing(reg *registry.Registry, fileTypes []types.FileType, w io.Writer) {
	missing := make(map[string][]string)

	for idx, rec := range reg.Records {
		fmt.Fprintf(w, "[%d] Paper: %s (%s)\n", idx, rec.ID(), rec.Title())
		for _, ft := range fileTypes {
			val, ok := rec.Lookup(ft.PCSField)
			if !ok {
				fmt.Fprintf(w, "   >... field %q not in registry\n", ft.PCSField)
				continue
			}
			if strings.TrimSpace(val) == "" {
				fmt.Fprintf(w, "   >... %q not submitted\n", ft.Description)
				missing[ft.Description] = append(missing[ft.Description], rec.ID())
			}
		}
	}

	for _, ft := range fileTypes {
		fmt.Fprintf(w, "%s\n", ft.Description)
		fmt.Fprintf(w, "%s\n", strings.Join(missing[ft.Description], ", "))
	}
}
