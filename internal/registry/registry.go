// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry loads the camera-ready submission spreadsheet and the
// per-track file-type configuration table. Records are read-only for the
// duration of a run; download URLs inside them are regenerated by the
// portal on every fetch, so a registry snapshot goes stale quickly.
package registry

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/sigchi/proceedings-engine/pkg/types"
)

// Registry column names used by the pipeline itself. All other columns are
// data-driven through file-type descriptors.
const (
	paperIDField      = "Paper ID"
	titleField        = "Title"
	doiField          = "DOI"
	contactNameField  = "Contact Name"
	contactEmailField = "Contact Email"
)

// doiPrefix is stripped from registry DOI values to obtain the bare DOI.
const doiPrefix = "https://doi.org/"

// Record is one paper's row: an immutable mapping from column name to value.
type Record struct {
	fields map[string]string
}

// Lookup returns the value of field and whether the column exists at all.
// An absent column is a schema mismatch; a present-but-empty value means
// the deliverable was not submitted. The two must not be conflated.
func (r Record) Lookup(field string) (string, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// Get returns the value of field, or "" when the column is absent.
func (r Record) Get(field string) string {
	return r.fields[field]
}

// ID returns the conference-assigned paper identifier.
func (r Record) ID() string {
	return r.fields[paperIDField]
}

// Title returns the paper title.
func (r Record) Title() string {
	return r.fields[titleField]
}

// ContactName returns the contact author's name.
func (r Record) ContactName() string {
	return r.fields[contactNameField]
}

// ContactEmail returns the contact author's email address.
func (r Record) ContactEmail() string {
	return r.fields[contactEmailField]
}

// DOI returns the paper's bare DOI (resolver prefix stripped). When the
// record's DOI column is blank the fallback map (keyed by paper identifier,
// built from the TAPS registry) is consulted.
func (r Record) DOI(fallback map[string]string) (string, error) {
	doi := strings.TrimSpace(r.fields[doiField])
	if doi == "" {
		doi = strings.TrimSpace(fallback[r.ID()])
	}
	if doi == "" {
		return "", fmt.Errorf("no DOI for paper %s", r.ID())
	}
	return strings.TrimPrefix(doi, doiPrefix), nil
}

// DOISuffix returns the portion of a bare DOI after the last slash: the
// canonical filename stem required by the digital library.
func DOISuffix(doi string) string {
	if i := strings.LastIndex(doi, "/"); i >= 0 {
		return doi[i+1:]
	}
	return doi
}

// Registry is an ordered sequence of paper records plus their column set.
type Registry struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether the registry schema contains name.
func (g *Registry) HasColumn(name string) bool {
	for _, c := range g.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Load parses a registry CSV. The portal exports UTF-8 with a byte-order
// mark, so the first header cell is trimmed of one.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses registry CSV bytes. See Load.
func Parse(data []byte) (*Registry, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing registry CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registry CSV has no header row")
	}

	columns := rows[0]
	reg := &Registry{Columns: columns}
	for _, row := range rows[1:] {
		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				fields[col] = row[i]
			} else {
				fields[col] = ""
			}
		}
		reg.Records = append(reg.Records, Record{fields: fields})
	}
	return reg, nil
}

// NewRecord builds a Record from a field map. Intended for tests and for
// synthesizing rows from scraped sources.
func NewRecord(fields map[string]string) Record {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Record{fields: copied}
}

// LoadFileTypes parses the file-type configuration table. Expected columns:
// pcs_field, directory, suffix, description, mimetype, dl_flag,
// upload_to_dl, ready_field. The upload_to_dl column maps "yes" to
// UploadAlways, "no" to UploadNever, and any other value to
// UploadWithAgreement with that value as the agreement field name.
func LoadFileTypes(path string) ([]types.FileType, error) {
	reg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading file types: %w", err)
	}

	for _, col := range []string{"pcs_field", "directory", "suffix", "description", "mimetype", "dl_flag", "upload_to_dl"} {
		if !reg.HasColumn(col) {
			return nil, fmt.Errorf("file-type table %s: missing column %q", path, col)
		}
	}

	var fileTypes []types.FileType
	for _, rec := range reg.Records {
		ft := types.FileType{
			PCSField:    rec.Get("pcs_field"),
			Directory:   rec.Get("directory"),
			Suffix:      rec.Get("suffix"),
			Description: rec.Get("description"),
			MimeType:    rec.Get("mimetype"),
			DLFlag:      rec.Get("dl_flag"),
			ReadyField:  strings.TrimSpace(rec.Get("ready_field")),
		}
		switch upload := strings.TrimSpace(rec.Get("upload_to_dl")); upload {
		case "yes":
			ft.Policy = types.UploadAlways
		case "no", "":
			ft.Policy = types.UploadNever
		default:
			ft.Policy = types.UploadWithAgreement
			ft.AgreementField = upload
		}
		fileTypes = append(fileTypes, ft)
	}
	return fileTypes, nil
}

// SelectFileTypes filters descriptors by their DLFlag selector names.
// When all is true every descriptor is returned. Unknown selector names
// are an error so that a typo does not silently skip a deliverable.
func SelectFileTypes(fileTypes []types.FileType, selectors []string, all bool) ([]types.FileType, error) {
	if all {
		return fileTypes, nil
	}

	byFlag := make(map[string]types.FileType, len(fileTypes))
	for _, ft := range fileTypes {
		byFlag[ft.DLFlag] = ft
	}

	var selected []types.FileType
	for _, sel := range selectors {
		ft, ok := byFlag[sel]
		if !ok {
			return nil, fmt.Errorf("unknown file type %q", sel)
		}
		selected = append(selected, ft)
	}
	return selected, nil
}
