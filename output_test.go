package main

import (
	"strings"
	"testing"

	"github.com/lgtm-hq/lgtm-release/internal/history"
	"github.com/lgtm-hq/lgtm-release/internal/release"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

func TestEnvOr(t *testing.T) {
	t.Setenv("LGTM_TEST_FROM", "v1.0.0")

	if got := envOr("flag-wins", "LGTM_TEST_FROM"); got != "flag-wins" {
		t.Fatalf("envOr = %q, want flag value", got)
	}
	if got := envOr("", "LGTM_TEST_FROM"); got != "v1.0.0" {
		t.Fatalf("envOr = %q, want env value", got)
	}
	if got := envOr("", "LGTM_TEST_MISSING"); got != "" {
		t.Fatalf("envOr = %q, want empty", got)
	}
}

func TestEnvBool(t *testing.T) {
	for env, want := range map[string]bool{
		"true": true, "TRUE": true, "1": true, "yes": true, "on": true,
		"false": false, "0": false, "": false, "nope": false,
	} {
		t.Setenv("LGTM_TEST_PUSH", env)
		if got := envBool(false, "LGTM_TEST_PUSH"); got != want {
			t.Fatalf("envBool(false, %q) = %v, want %v", env, got, want)
		}
	}

	t.Setenv("LGTM_TEST_PUSH", "false")
	if !envBool(true, "LGTM_TEST_PUSH") {
		t.Fatal("flag true must win over env")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := firstNonEmpty("", "", "v", "release-"); got != "v" {
		t.Fatalf("firstNonEmpty = %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("firstNonEmpty() = %q", got)
	}
}

func TestParseMaxBump(t *testing.T) {
	t.Parallel()

	got, err := parseMaxBump("")
	if err != nil || got != semver.BumpMajor {
		t.Fatalf("parseMaxBump(\"\") = %v, %v", got, err)
	}
	got, err = parseMaxBump("minor")
	if err != nil || got != semver.BumpMinor {
		t.Fatalf("parseMaxBump(minor) = %v, %v", got, err)
	}
	if _, err := parseMaxBump("huge"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestTagLooksPrerelease(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag    string
		prefix string
		want   bool
	}{
		{tag: "v1.2.3", prefix: "v", want: false},
		{tag: "v1.2.3-rc.1", prefix: "v", want: true},
		{tag: "release-2.0.0-beta", prefix: "release-", want: true},
		{tag: "not-a-version", prefix: "v", want: false},
	}
	for _, tt := range tests {
		if got := tagLooksPrerelease(tt.tag, tt.prefix); got != tt.want {
			t.Fatalf("tagLooksPrerelease(%q, %q) = %v, want %v", tt.tag, tt.prefix, got, tt.want)
		}
	}
}

func TestBuildSummaryNoRelease(t *testing.T) {
	t.Parallel()

	res := release.Result{
		ToRef:   "HEAD",
		Current: semver.MustParse("1.2.0"),
		Analysis: history.Analysis{
			Total:  2,
			Counts: map[string]int{"docs": 2},
		},
	}
	got := buildSummary(res)

	for _, want := range []string{
		"| Current version | 1.2.0 |",
		"| Range | HEAD |",
		"| Commits | 2 (docs: 2) |",
		"| Bump level | none |",
		"| Release needed | no |",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary misses %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Next version") {
		t.Fatalf("summary carries a next version without a release:\n%s", got)
	}
}

func TestBuildSummaryFullRelease(t *testing.T) {
	t.Parallel()

	res := release.Result{
		FromRef:    "v1.2.0",
		ToRef:      "HEAD",
		Current:    semver.MustParse("1.2.0"),
		CurrentTag: "v1.2.0",
		RawBump:    semver.BumpMajor,
		Bump:       semver.BumpMinor,
		Next:       semver.MustParse("1.3.0"),
		Tag:        "v1.3.0",
		Pushed:     true,
		ReleaseURL: "https://example.test/releases/v1.3.0",
		Analysis: history.Analysis{
			Total:  3,
			Counts: map[string]int{"feat": 2, "fix": 1},
		},
	}
	got := buildSummary(res)

	for _, want := range []string{
		"| Current version | 1.2.0 (v1.2.0) |",
		"| Range | v1.2.0..HEAD |",
		"| Commits | 3 (feat: 2, fix: 1) |",
		"| Bump level | minor (capped from major) |",
		"| Next version | 1.3.0 |",
		"| Tag | v1.3.0 |",
		"| Pushed | yes |",
		"| Release | https://example.test/releases/v1.3.0 |",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary misses %q:\n%s", want, got)
		}
	}
}

func TestCountsLabelEmpty(t *testing.T) {
	t.Parallel()

	if got := countsLabel(history.Analysis{}); got != "none" {
		t.Fatalf("countsLabel = %q, want none", got)
	}
}
