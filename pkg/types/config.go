package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that talk to a portal.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout for registry and status calls.
	// The chunked upload path deliberately runs without one.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "proceedings-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PCSConfig holds settings for the PCS conference portal.
type PCSConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the portal root (e.g. "https://new.precisionconference.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Track is the PCS track identifier (e.g. "chi23b").
	Track string `json:"track" yaml:"track"`

	// User and Password are the PCS login credentials.
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// TAPSConfig holds settings for the TAPS typesetting portal.
type TAPSConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the portal root (e.g. "https://camps.aptaracorp.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ProceedingID is the TAPS-side conference identifier.
	ProceedingID string `json:"proceeding_id" yaml:"proceeding_id"`

	// EventID and WorkshopID select the proceedings listing page.
	EventID    string `json:"event_id" yaml:"event_id"`
	WorkshopID string `json:"workshop_id" yaml:"workshop_id"`

	// User and Password are the TAPS login credentials.
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// DownloadConfig holds settings for the batch transfer stage.
type DownloadConfig struct {
	// Freshness selects when an already-downloaded file is re-fetched.
	Freshness Freshness `json:"freshness" yaml:"freshness"`

	// Start is the registry index to resume from; records below it are skipped.
	Start int `json:"start" yaml:"start"`

	// MaxRestarts caps whole-batch restarts after a stale-URL failure
	// (0 = unlimited, matching the portal's regenerate-on-fetch behavior).
	MaxRestarts int `json:"max_restarts" yaml:"max_restarts"`

	// Progress enables byte-progress bars on long transfers.
	Progress bool `json:"progress" yaml:"progress"`
}

// UploadConfig holds settings for the digital library upload stage.
type UploadConfig struct {
	// SubmitBaseURL is the DL submission site root
	// (e.g. "https://acmsubmit.acm.org").
	SubmitBaseURL string `json:"submit_base_url" yaml:"submit_base_url"`

	// UploadURL is the resumable upload endpoint
	// (e.g. "https://files.atypon.com/acm/").
	UploadURL string `json:"upload_url" yaml:"upload_url"`

	// ProceedingID identifies the proceeding on the DL submission site.
	ProceedingID string `json:"proceeding_id" yaml:"proceeding_id"`

	// Track is the PCS track identifier used for local directory naming.
	Track string `json:"track" yaml:"track"`

	// UploaderName and UploaderEmail identify the uploads to DL staff.
	// When empty, each paper's contact author details are used instead.
	UploaderName  string `json:"uploader_name" yaml:"uploader_name"`
	UploaderEmail string `json:"uploader_email" yaml:"uploader_email"`

	// ChunkSize is the upload chunk size in bytes. 5 MiB is the portal
	// maximum.
	ChunkSize int64 `json:"chunk_size" yaml:"chunk_size"`

	// Progress enables byte-progress bars during chunk transfer.
	Progress bool `json:"progress" yaml:"progress"`

	// DryRun logs every step without touching the portal.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// LintConfig holds settings for the publication lint stage.
type LintConfig struct {
	// PDFDir holds the camera-ready PDFs from PCS (e.g. "chi23b_PDF").
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// HTMLDir holds the TAPS HTML renditions (e.g. "TAPS_HTML").
	HTMLDir string `json:"html_dir" yaml:"html_dir"`

	// MinPages and MaxPages bound the acceptable PDF page count.
	MinPages int `json:"min_pages" yaml:"min_pages"`
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// MinWords is the minimum HTML body word count before a paper is
	// flagged as suspiciously short.
	MinWords int `json:"min_words" yaml:"min_words"`
}

// AuditConfig holds settings for the run audit store.
type AuditConfig struct {
	// Path is the SQLite database file (default "{track}_audit.db").
	Path string `json:"path" yaml:"path"`
}
