// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package captions normalizes caption files to WebVTT, the only format the
// digital library accepts. Authors regularly submit SubRip files renamed
// to .vtt, so files are sniffed by content, not extension.
package captions

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/asticode/go-astisub"
)

// Status classifies the result of a normalization attempt.
type Status int

const (
	// AlreadyVTT: the file is valid WebVTT; nothing was changed.
	AlreadyVTT Status = iota

	// Converted: the file was SubRip and has been rewritten as WebVTT.
	Converted

	// Skipped: the file is neither; it was left alone.
	Skipped
)

func (s Status) String() string {
	switch s {
	case AlreadyVTT:
		return "already in VTT format"
	case Converted:
		return "converted to VTT"
	default:
		return "skipped"
	}
}

// Normalize rewrites path in place as WebVTT when its content is SubRip.
// Valid WebVTT is left untouched. A file that parses as neither is
// reported Skipped with a nil error; only I/O failures are errors.
func Normalize(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skipped, fmt.Errorf("reading %s: %w", path, err)
	}

	content := bytes.TrimPrefix(data, []byte("\ufeff"))
	if bytes.HasPrefix(content, []byte("WEBVTT")) {
		return AlreadyVTT, nil
	}

	subs, err := astisub.ReadFromSRT(bytes.NewReader(content))
	if err != nil || len(subs.Items) == 0 {
		return Skipped, nil
	}

	var buf bytes.Buffer
	if err := subs.WriteToWebVTT(&buf); err != nil {
		return Skipped, fmt.Errorf("writing WebVTT for %s: %w", path, err)
	}

	// Rewrite via temp file so an interrupted conversion cannot leave a
	// half-written caption behind.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".captions-*.tmp")
	if err != nil {
		return Skipped, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, &buf); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Skipped, fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Skipped, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Skipped, fmt.Errorf("replacing %s: %w", path, err)
	}
	return Converted, nil
}

// BatchResult holds the outcome of a batch normalization run.
type BatchResult struct {
	Already   int
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Already + r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any files failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// NormalizeBatch processes multiple caption files, printing per-file status
// and returning a summary. It continues after individual failures.
func NormalizeBatch(paths []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, path := range paths {
		status, err := Normalize(path)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", path, status)
		switch status {
		case AlreadyVTT:
			result.Already++
		case Converted:
			result.Converted++
		default:
			result.Skipped++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d already VTT, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Already, result.Skipped, result.Failed, result.Total())
	return result
}
