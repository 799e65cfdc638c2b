// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/sigchi/proceedings-engine/pkg/types"
)

// DefaultChunkSize is the largest chunk the portal accepts.
const DefaultChunkSize = 5 * 1024 * 1024

var tokenRe = regexp.MustCompile(`data-token="([a-zA-Z0-9=]+)"`)

// ErrPortalClosed reports that the submission page carries no upload token,
// which means the portal is not currently accepting uploads. Fatal for the
// whole upload phase.
var ErrPortalClosed = errors.New("upload token not available - is the portal currently ready for uploads?")

// ProtocolError reports an unexpected status code at one step of the upload
// protocol. Fatal for the file being uploaded, not for the run.
type ProtocolError struct {
	Step   string
	Status int
	Want   int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d, want %d", e.Step, e.Status, e.Want)
}

// fetchToken scrapes the single-use session token from the proceeding's
// submission page.
func fetchToken(client *http.Client, cfg types.UploadConfig) (string, error) {
	tokenURL := fmt.Sprintf("%s/videosubmission.cfm?proceedingID=%s", cfg.SubmitBaseURL, cfg.ProceedingID)
	resp, err := client.Get(tokenURL)
	if err != nil {
		return "", fmt.Errorf("fetching submission page: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("reading submission page: %w", err)
	}

	m := tokenRe.FindSubmatch(body)
	if m == nil {
		return "", ErrPortalClosed
	}
	return string(m[1]), nil
}

// b64 encodes a metadata value for header transport.
func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// uploadMetadata builds the Upload-Metadata header: comma-separated
// "key base64(value)" pairs. Order matters to nobody but it is kept stable.
func uploadMetadata(filename, filetype, name, email, doi, description string) string {
	pairs := []struct{ k, v string }{
		{"filename", filename},
		{"filetype", filetype},
		{"yourName", name},
		{"yourEmailAddress", email},
		{"doi", doi},
		{"description", description},
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + " " + b64(p.v)
	}
	return strings.Join(parts, ",")
}

// initiate announces the upload: total length plus descriptive metadata.
// The portal answers 201 with the per-session upload path in Location.
func initiate(client *http.Client, cfg types.UploadConfig, token string, size int64, metadata string) (string, error) {
	req, err := http.NewRequest(http.MethodPost, cfg.UploadURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating initiate request: %w", err)
	}
	req.Header.Set("Authorization", "Atypon "+token)
	req.Header.Set("Upload-Metadata", metadata)
	req.Header.Set("Upload-Length", strconv.FormatInt(size, 10))
	req.Header.Set("Tus-Resumable", "1.0.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiating upload: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", &ProtocolError{Step: "initiate", Status: resp.StatusCode, Want: http.StatusCreated}
	}

	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("initiate response has no Location header: %w", err)
	}
	return loc.String(), nil
}

// sendChunks streams the file to uploadPath in fixed-size chunks, each a
// PATCH carrying the current byte offset. Offsets advance 0, C, 2C, ...;
// the chunk lengths sum to the file size exactly. Any status other than
// 204 aborts the file; there is no partial-chunk retry.
func sendChunks(client *http.Client, cfg types.UploadConfig, token, uploadPath, filePath string, size int64) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.DefaultBytes(size, "    uploading")
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)

	var offset int64
	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("reading %s: %w", filePath, err)
		}
		last := err == io.ErrUnexpectedEOF

		if err := sendChunk(client, token, uploadPath, buf[:n], offset); err != nil {
			return err
		}
		offset += int64(n)
		if bar != nil {
			bar.Add(n)
		}
		if last {
			break
		}
	}
	return nil
}

func sendChunk(client *http.Client, token, uploadPath string, chunk []byte, offset int64) error {
	req, err := http.NewRequest(http.MethodPatch, uploadPath, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("creating chunk request: %w", err)
	}
	req.Header.Set("Authorization", "Atypon "+token)
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	req.ContentLength = int64(len(chunk))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending chunk at offset %d: %w", offset, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return &ProtocolError{Step: fmt.Sprintf("chunk at offset %d", offset), Status: resp.StatusCode, Want: http.StatusNoContent}
	}
	return nil
}

// FileRef pairs an uploaded blob's canonical filename with its upload URL.
type FileRef struct {
	Name string
	URL  string
}

// commit associates uploaded blobs with the paper's metadata. The wire
// contract supports several files per commit through indexed form fields;
// every call site sends exactly one, which is the only path the portal is
// known to still exercise.
func commit(client *http.Client, cfg types.UploadConfig, name, email, doi, description string, files []FileRef) error {
	form := url.Values{
		"yourName":         {name},
		"yourEmailAddress": {email},
		"doi":              {doi},
		"description":      {description},
		"proceedingID":     {cfg.ProceedingID},
		"ok2Go":            {"YES"},
	}
	for i, f := range files {
		form.Set(fmt.Sprintf("file-name-%d", i+1), f.Name)
		form.Set(fmt.Sprintf("file-url-%d", i+1), f.URL)
	}

	resp, err := client.PostForm(cfg.SubmitBaseURL+"/videosubmission2.cfm", form)
	if err != nil {
		return fmt.Errorf("committing submission: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProtocolError{Step: "commit", Status: resp.StatusCode, Want: http.StatusOK}
	}
	return nil
}
