// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared structures for the proceedings pipeline:
// configuration, file-type descriptors, and per-transfer outcomes.
package types

import "fmt"

// Status classifies the result of one (paper, file type) transfer attempt.
type Status int

const (
	// SkippedNotSubmitted: the source field was empty; nothing to do.
	SkippedNotSubmitted Status = iota

	// SkippedAlreadyCurrent: the local copy matches the remote file
	// (or, on upload, the file is already in the DL listing).
	SkippedAlreadyCurrent

	// SkippedNoLocalFile: upload candidate with no file on disk.
	SkippedNoLocalFile

	// Success: the transfer completed.
	Success

	// FailedNotFound: the remote side rejected the URL or the resource
	// is gone. Recoverable; the batch continues.
	FailedNotFound

	// FailedOther: any other per-item failure, including schema
	// mismatches and upload protocol violations.
	FailedOther
)

// String returns the hyphenated form used in logs and the audit store.
func (s Status) String() string {
	switch s {
	case SkippedNotSubmitted:
		return "skipped-not-submitted"
	case SkippedAlreadyCurrent:
		return "skipped-already-current"
	case SkippedNoLocalFile:
		return "skipped-no-local-file"
	case Success:
		return "success"
	case FailedNotFound:
		return "failed-not-found"
	case FailedOther:
		return "failed-other"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failed reports whether the status is a failure.
func (s Status) Failed() bool {
	return s == FailedNotFound || s == FailedOther
}

// Outcome records the result of one (paper, file type) transfer attempt.
type Outcome struct {
	// PaperID is the conference-assigned paper identifier.
	PaperID string

	// FileType is the descriptor's human description.
	FileType string

	Status Status

	// Detail carries failure context (HTTP status, missing field name).
	Detail string

	// Dangling marks an upload whose bytes were fully transferred but
	// whose commit failed: the blob exists on the portal unassociated
	// with any paper and needs manual reconciliation.
	Dangling bool
}

// Freshness selects when a previously downloaded file is re-fetched.
type Freshness int

const (
	// OnlyIfChanged re-downloads when the local size differs from the
	// remote Content-Length. The default.
	OnlyIfChanged Freshness = iota

	// OnlyIfMissing skips any file that already exists locally,
	// regardless of remote state. Fast but may serve stale content.
	OnlyIfMissing

	// ForceAll always re-downloads, overwriting unconditionally.
	ForceAll
)

// ParseFreshness maps the command-line form to a Freshness value.
func ParseFreshness(s string) (Freshness, error) {
	switch s {
	case "changed", "only-if-changed":
		return OnlyIfChanged, nil
	case "missing", "only-if-missing":
		return OnlyIfMissing, nil
	case "force", "all":
		return ForceAll, nil
	default:
		return OnlyIfChanged, fmt.Errorf("unknown freshness mode %q (want changed, missing, or force)", s)
	}
}

// String returns the command-line form.
func (f Freshness) String() string {
	switch f {
	case OnlyIfMissing:
		return "missing"
	case ForceAll:
		return "force"
	default:
		return "changed"
	}
}
