// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload pushes supplementary materials to the digital library
// through its resumable chunked-upload protocol: token acquisition, an
// initiate POST, fixed-size chunk PATCHes tracking byte offsets, and a
// commit POST binding the uploaded blob to a paper. The portal does not
// reject duplicates, so the engine consults a client-side index of already
// uploaded filenames before presenting anything.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigchi/proceedings-engine/internal/captions"
	"github.com/sigchi/proceedings-engine/internal/registry"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// Result is one upload attempt's outcome plus the portal-side locators the
// audit store needs for reconciliation.
type Result struct {
	types.Outcome

	// FileName is the canonical upload filename ({doiSuffix}{suffix}).
	FileName string

	// Location is the per-session upload URL, set once all bytes were
	// transferred. A Location with Committed false is a dangling upload.
	Location  string
	Committed bool
}

// Engine uploads supplementary files for registry records.
type Engine struct {
	Client *http.Client
	Cfg    types.UploadConfig

	// DOIFallback maps paper identifiers to DOIs scraped from TAPS,
	// used when a record's DOI column is blank.
	DOIFallback map[string]string

	// Index is the set of already-uploaded filenames, built once per
	// run from the portal listing. It never refreshes mid-run, so the
	// engine cannot see its own uploads.
	Index Index

	// Out receives human progress lines.
	Out io.Writer

	// token is acquired lazily, at most once, on first actual need.
	token string
}

// Run processes every record in registry order and returns per-file
// results. Only a closed portal (no token available) aborts the phase;
// every other failure is per-file.
func (e *Engine) Run(ctx context.Context, reg *registry.Registry, fileTypes []types.FileType) ([]Result, error) {
	if len(fileTypes) == 0 {
		return nil, fmt.Errorf("no file types selected")
	}

	var results []Result
	for idx, rec := range reg.Records {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		fmt.Fprintf(e.Out, "[%d] Paper: %s (%s)\n", idx, rec.ID(), rec.Title())
		recResults, err := e.uploadRecord(rec, fileTypes)
		results = append(results, recResults...)
		if err != nil {
			return results, err
		}
	}

	e.summarize(results)
	return results, nil
}

// uploadRecord handles one paper. The returned error is non-nil only for
// phase-fatal conditions (portal closed).
func (e *Engine) uploadRecord(rec registry.Record, fileTypes []types.FileType) ([]Result, error) {
	// The ready field of the first selected descriptor gates the whole
	// paper: an empty value means the submission is not cleared for the
	// digital library yet.
	if ready := fileTypes[0].ReadyField; ready != "" {
		if rec.Get(ready) == "" {
			fmt.Fprintf(e.Out, "NOT READY %s (%s)\n", rec.ID(), rec.Title())
			return nil, nil
		}
	}

	doi, err := rec.DOI(e.DOIFallback)
	if err != nil {
		fmt.Fprintf(e.Out, "    %v\n", err)
		return []Result{{Outcome: types.Outcome{
			PaperID: rec.ID(),
			Status:  types.FailedOther,
			Detail:  err.Error(),
		}}}, nil
	}
	doiPart := registry.DOISuffix(doi)

	var results []Result
	for _, ft := range fileTypes {
		res, err := e.uploadFile(rec, ft, doi, doiPart)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// uploadFile runs the eligibility checks and, when they pass, the full
// upload state machine for one (record, descriptor) pair. A nil Result
// means the descriptor was not a DL candidate at all.
func (e *Engine) uploadFile(rec registry.Record, ft types.FileType, doi, doiPart string) (*Result, error) {
	res := &Result{Outcome: types.Outcome{PaperID: rec.ID(), FileType: ft.Description}}

	switch ft.Policy {
	case types.UploadNever:
		fmt.Fprintf(e.Out, "Skipping %q: not to be uploaded to DL\n", ft.Description)
		return nil, nil
	case types.UploadWithAgreement:
		if rec.Get(ft.AgreementField) == "" {
			fmt.Fprintf(e.Out, "Skipping %q: no agreement from authors\n", ft.Description)
			res.Status = types.SkippedNotSubmitted
			res.Detail = "no agreement from authors"
			return res, nil
		}
	}

	localName := rec.ID() + ft.Suffix
	uploadName := doiPart + ft.Suffix
	localPath := filepath.Join(e.Cfg.Track+"_"+ft.Directory, localName)
	res.FileName = uploadName

	info, err := os.Stat(localPath)
	if err != nil {
		fmt.Fprintf(e.Out, "    No file for: %s (probably not submitted)\n", localPath)
		res.Status = types.SkippedNoLocalFile
		return res, nil
	}

	if e.Index.Contains(uploadName) {
		fmt.Fprintf(e.Out, "    Already uploaded %q... skipping it\n", uploadName)
		res.Status = types.SkippedAlreadyCurrent
		return res, nil
	}

	// The DL only accepts WebVTT captions; SRT files sneak in under a
	// .vtt name often enough to normalize here.
	if strings.HasSuffix(localPath, ".vtt") {
		status, err := captions.Normalize(localPath)
		if err != nil {
			fmt.Fprintf(e.Out, "    caption file: %v - skipping conversion\n", err)
		} else {
			fmt.Fprintf(e.Out, "    caption file %s\n", status)
		}
	}

	token, err := e.acquireToken()
	if err != nil {
		res.Status = types.FailedOther
		res.Detail = err.Error()
		return res, err
	}

	name, email := e.uploader(rec)
	fmt.Fprintf(e.Out, "    Uploading %q file: %s as %s\n", ft.Description, localPath, uploadName)

	if e.Cfg.DryRun {
		fmt.Fprintf(e.Out, "    DRY RUN: uploaded %s as %s (%s)\n", localName, uploadName, ft.Description)
		res.Status = types.Success
		res.Committed = true
		return res, nil
	}

	metadata := uploadMetadata(uploadName, ft.MimeType, name, email, doi, ft.Description)
	uploadPath, err := initiate(e.Client, e.Cfg, token, info.Size(), metadata)
	if err != nil {
		fmt.Fprintf(e.Out, "    failed: %v\n", err)
		res.Status = types.FailedOther
		res.Detail = err.Error()
		return res, nil
	}

	if err := sendChunks(e.Client, e.Cfg, token, uploadPath, localPath, info.Size()); err != nil {
		fmt.Fprintf(e.Out, "    failed: %v\n", err)
		res.Status = types.FailedOther
		res.Detail = err.Error()
		return res, nil
	}
	fmt.Fprintf(e.Out, "    Uploaded to: %s\n", uploadPath)
	res.Location = uploadPath

	fmt.Fprintf(e.Out, "    Committing\n")
	if err := commit(e.Client, e.Cfg, name, email, doi, ft.Description, []FileRef{{Name: uploadName, URL: uploadPath}}); err != nil {
		// All bytes are on the portal but nothing associates them
		// with the paper. The listing will never show this blob, so
		// it must be surfaced for manual reconciliation.
		fmt.Fprintf(e.Out, "    DANGLING UPLOAD: %v\n", err)
		res.Status = types.FailedOther
		res.Detail = err.Error()
		res.Dangling = true
		return res, nil
	}

	fmt.Fprintf(e.Out, "    Done\n")
	res.Status = types.Success
	res.Committed = true
	return res, nil
}

// acquireToken fetches the session token on first need and caches it for
// the rest of the run.
func (e *Engine) acquireToken() (string, error) {
	if e.token != "" {
		return e.token, nil
	}
	if e.Cfg.DryRun {
		e.token = "TOKENTEST"
		return e.token, nil
	}
	token, err := fetchToken(e.Client, e.Cfg)
	if err != nil {
		return "", err
	}
	e.token = token
	return token, nil
}

// uploader returns the identity sent with uploads. DL staff prefer a
// proceedings chair here so uploads are recognizably official; without a
// configured identity the paper's contact author is used.
func (e *Engine) uploader(rec registry.Record) (name, email string) {
	if e.Cfg.UploaderName != "" && e.Cfg.UploaderEmail != "" {
		return e.Cfg.UploaderName, e.Cfg.UploaderEmail
	}
	return rec.ContactName(), rec.ContactEmail()
}

func (e *Engine) summarize(results []Result) {
	counts := make(map[types.Status]int)
	dangling := 0
	for _, r := range results {
		counts[r.Status]++
		if r.Dangling {
			dangling++
		}
	}
	fmt.Fprintf(e.Out, "\nUpload summary: %d uploaded, %d already on DL, %d no local file, %d skipped, %d failed (total: %d)\n",
		counts[types.Success], counts[types.SkippedAlreadyCurrent], counts[types.SkippedNoLocalFile],
		counts[types.SkippedNotSubmitted], counts[types.FailedOther], len(results))
	if dangling > 0 {
		fmt.Fprintf(e.Out, "WARNING: %d dangling upload(s) - bytes on the portal with no committed submission\n", dangling)
	}
}
