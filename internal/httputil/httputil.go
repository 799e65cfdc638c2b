// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages: session
// clients with cookie jars, and streaming downloads that survive a crash
// mid-write.
package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// NewClient returns an HTTP client with a cookie jar, so that a portal
// login session survives across requests. Timeout applies to registry and
// status calls; pass 0 for the long-running upload path. Every request
// carries userAgent unless the caller set its own User-Agent header.
func NewClient(timeout time.Duration, userAgent string) *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Jar:       jar,
		Timeout:   timeout,
		Transport: &userAgentTransport{agent: userAgent},
	}
}

type userAgentTransport struct {
	agent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.agent)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// FileIsCurrent reports whether path exists and was modified within maxAge.
// Used to avoid re-fetching a registry snapshot that is still fresh.
func FileIsCurrent(path string, maxAge time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

// WriteFile streams r to dest through a temporary file in the destination
// directory, renaming into place on success. A crash mid-write leaves no
// destination file behind, so a later size comparison forces a retry.
// When progress is true and size is known, a byte-progress bar labelled
// desc is rendered to stderr.
func WriteFile(dest string, r io.Reader, size int64, progress bool, desc string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".transfer-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	var w io.Writer = tmpFile
	if progress && size > 0 {
		bar := progressbar.DefaultBytes(size, desc)
		w = io.MultiWriter(tmpFile, bar)
	}

	_, copyErr := io.Copy(w, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
