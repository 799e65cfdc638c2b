// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{SkippedNotSubmitted, "skipped-not-submitted"},
		{SkippedAlreadyCurrent, "skipped-already-current"},
		{SkippedNoLocalFile, "skipped-no-local-file"},
		{Success, "success"},
		{FailedNotFound, "failed-not-found"},
		{FailedOther, "failed-other"},
		{Status(99), "status(99)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestStatusFailed(t *testing.T) {
	for _, s := range []Status{FailedNotFound, FailedOther} {
		if !s.Failed() {
			t.Errorf("%v.Failed() = false, want true", s)
		}
	}
	for _, s := range []Status{Success, SkippedNotSubmitted, SkippedAlreadyCurrent, SkippedNoLocalFile} {
		if s.Failed() {
			t.Errorf("%v.Failed() = true, want false", s)
		}
	}
}

func TestParseFreshness(t *testing.T) {
	tests := []struct {
		in      string
		want    Freshness
		wantErr bool
	}{
		{"changed", OnlyIfChanged, false},
		{"only-if-changed", OnlyIfChanged, false},
		{"missing", OnlyIfMissing, false},
		{"only-if-missing", OnlyIfMissing, false},
		{"force", ForceAll, false},
		{"all", ForceAll, false},
		{"bogus", OnlyIfChanged, true},
		{"", OnlyIfChanged, true},
	}
	for _, tt := range tests {
		got, err := ParseFreshness(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFreshness(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFreshness(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFreshness(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFreshnessRoundTrip(t *testing.T) {
	for _, f := range []Freshness{OnlyIfChanged, OnlyIfMissing, ForceAll} {
		got, err := ParseFreshness(f.String())
		if err != nil {
			t.Errorf("ParseFreshness(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("round trip of %v gave %v", f, got)
		}
	}
}
