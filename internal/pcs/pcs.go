// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pcs talks to the PCS conference management portal: login,
// camera-ready registry fetch, and the chairing-roles track listing.
package pcs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/sigchi/proceedings-engine/internal/httputil"
	"github.com/sigchi/proceedings-engine/pkg/types"
)

// registryMaxAge is how long a fetched registry snapshot stays fresh.
// Download URLs inside the CSV are regenerated by PCS on every export, so
// the window balances staleness against portal load.
const registryMaxAge = 5 * time.Minute

var (
	csrfTokenRe = regexp.MustCompile(`name="csrf_token" type="hidden" value="([a-z0-9#]+)"`)
	trackLinkRe = regexp.MustCompile(`<a href="/(\w+)/(\w+)">(.+)</a>`)
	trackIDRe   = regexp.MustCompile(`^[a-z]{2,}\d{2}[a-z]+$`)
)

// ValidTrack reports whether id looks like a PCS track identifier
// (e.g. "chi23b").
func ValidTrack(id string) bool {
	return trackIDRe.MatchString(id)
}

// RegistryFile returns the on-disk name of a track's registry snapshot.
func RegistryFile(track string) string {
	return track + "_submissions.csv"
}

// FieldsFile returns the on-disk name of a track's file-type table.
func FieldsFile(track string) string {
	return track + "_fields.csv"
}

// Login authenticates against the portal. The login form carries a hidden
// CSRF token that must be scraped from the page and echoed back; session
// cookies are retained in the client's jar.
func Login(client *http.Client, cfg types.PCSConfig) error {
	loginURL := cfg.BaseURL + "/user/login"

	resp, err := client.Get(loginURL)
	if err != nil {
		return fmt.Errorf("fetching login page: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading login page: %w", err)
	}

	m := csrfTokenRe.FindSubmatch(body)
	if m == nil {
		return fmt.Errorf("no CSRF token on login page %s", loginURL)
	}

	form := url.Values{
		"username":   {cfg.User},
		"password":   {cfg.Password},
		"csrf_token": {string(m[1])},
	}
	resp, err = client.PostForm(loginURL, form)
	if err != nil {
		return fmt.Errorf("posting login form: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// FetchRegistry downloads the camera-ready spreadsheet for cfg.Track to the
// conventional file name and returns its path. A snapshot younger than five
// minutes is reused unless force is set; restarts after a stale-URL failure
// force a re-fetch because the URLs inside need regenerating.
func FetchRegistry(client *http.Client, cfg types.PCSConfig, force bool, w io.Writer) (string, error) {
	path := RegistryFile(cfg.Track)

	if !force && httputil.FileIsCurrent(path, registryMaxAge) {
		fmt.Fprintf(w, "registry downloaded less than five minutes ago - skipping download\n")
		return path, nil
	}

	if err := Login(client, cfg); err != nil {
		return "", err
	}

	fmt.Fprintf(w, "Downloading registry for %s ...\n", cfg.Track)
	sheetURL := fmt.Sprintf("%s/%s/pubchair/csv/camera", cfg.BaseURL, cfg.Track)
	resp, err := client.Get(sheetURL)
	if err != nil {
		return "", fmt.Errorf("fetching registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry fetch returned HTTP %d", resp.StatusCode)
	}

	if err := httputil.WriteFile(path, resp.Body, resp.ContentLength, false, path); err != nil {
		return "", fmt.Errorf("writing registry: %w", err)
	}
	fmt.Fprintf(w, "done.\n")
	return path, nil
}

// trackTable is the chairing-roles JSON payload.
type trackTable struct {
	Data [][]string `json:"data"`
}

// Tracks prints the caller's chairing roles, one line per track, in the form
// "title (role): name (track)".
func Tracks(client *http.Client, cfg types.PCSConfig, w io.Writer) error {
	if err := Login(client, cfg); err != nil {
		return err
	}

	listURL := cfg.BaseURL + "/get_table?table_id=user_chairing&conf_id=&type_id="
	resp, err := client.Get(listURL)
	if err != nil {
		return fmt.Errorf("fetching track list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("track list returned HTTP %d", resp.StatusCode)
	}

	var table trackTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return fmt.Errorf("parsing track list: %w", err)
	}

	for _, role := range table.Data {
		if len(role) < 4 {
			continue
		}
		m := trackLinkRe.FindStringSubmatch(role[3])
		if m == nil {
			continue
		}
		fmt.Fprintf(w, "%s (%s): %s (%s)\n", role[0], m[2], m[3], m[1])
	}
	return nil
}
