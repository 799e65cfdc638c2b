// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// UploadPolicy governs whether a file kind is pushed to the digital library.
type UploadPolicy int

const (
	// UploadNever excludes the file kind from DL uploads.
	UploadNever UploadPolicy = iota

	// UploadAlways uploads without further checks.
	UploadAlways

	// UploadWithAgreement uploads only when the descriptor's agreement
	// field is non-empty on the paper record.
	UploadWithAgreement
)

// FileType describes one kind of per-paper deliverable: where its URL lives
// in the registry, how the local copy is named, and how it is presented to
// the digital library. Descriptors are data, loaded from {track}_fields.csv.
type FileType struct {
	// PCSField is the registry column holding the download URL.
	PCSField string

	// Directory is the local directory name (namespaced by track).
	Directory string

	// Suffix is appended to the paper identifier to form the local
	// filename (e.g. ".pdf", "-video.mp4").
	Suffix string

	// Description is the human-readable label shown on the DL page.
	Description string

	// MimeType is sent as the upload filetype.
	MimeType string

	// DLFlag is the selector name used to pick this descriptor on the
	// command line (e.g. "pdf", "video").
	DLFlag string

	// Policy governs DL upload eligibility.
	Policy UploadPolicy

	// AgreementField names the registry column that must be non-empty
	// when Policy is UploadWithAgreement.
	AgreementField string

	// ReadyField optionally names a registry column that must be
	// non-empty for the whole paper to be upload-eligible.
	ReadyField string
}
