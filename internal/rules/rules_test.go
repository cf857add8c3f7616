package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	r := Default(false)

	tests := []struct {
		typ     string
		bump    semver.BumpLevel
		section string
	}{
		{typ: "feat", bump: semver.BumpMinor, section: "Features"},
		{typ: "feature", bump: semver.BumpMinor, section: "Features"},
		{typ: "fix", bump: semver.BumpPatch, section: "Bug Fixes"},
		{typ: "bugfix", bump: semver.BumpPatch, section: "Bug Fixes"},
		{typ: "hotfix", bump: semver.BumpPatch, section: "Bug Fixes"},
		{typ: "docs", bump: semver.BumpNone, section: "Documentation"},
		{typ: "chore", bump: semver.BumpNone, section: ""},
		{typ: "refactor", bump: semver.BumpNone, section: ""},
	}
	for _, tt := range tests {
		if got := r.BumpFor(tt.typ); got != tt.bump {
			t.Errorf("BumpFor(%s) = %s, want %s", tt.typ, got, tt.bump)
		}
		sec, ok := r.SectionFor(tt.typ)
		if tt.section == "" && ok {
			t.Errorf("SectionFor(%s) = %q, want none", tt.typ, sec)
		}
		if tt.section != "" && sec != tt.section {
			t.Errorf("SectionFor(%s) = %q, want %q", tt.typ, sec, tt.section)
		}
	}

	if r.TagPrefix != "v" {
		t.Errorf("TagPrefix = %q, want v", r.TagPrefix)
	}
	if r.BreakingSection != "Breaking Changes" || r.OtherSection != "Other" {
		t.Errorf("section titles = %q, %q", r.BreakingSection, r.OtherSection)
	}
	if r.IncludeOther {
		t.Error("IncludeOther should default to false")
	}
}

func TestCommentKeysAreSkipped(t *testing.T) {
	t.Parallel()

	r := Default(false)

	if _, ok := r.TypeFor("# comment1"); ok {
		t.Error("comment keys must not resolve as types")
	}
	if got := r.BumpFor("# comment1"); got != semver.BumpNone {
		t.Errorf("BumpFor(comment) = %s, want none", got)
	}
	for _, title := range r.SectionTitles() {
		if title == "" {
			t.Error("empty section title leaked into SectionTitles")
		}
	}
}

func TestSectionTitlesOrderAndDedup(t *testing.T) {
	t.Parallel()

	r := Default(false)
	got := r.SectionTitles()
	want := []string{"Features", "Bug Fixes", "Documentation"}
	if len(got) != len(want) {
		t.Fatalf("SectionTitles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SectionTitles = %v, want %v", got, want)
		}
	}
}

func TestBumpForUnknownType(t *testing.T) {
	t.Parallel()

	r := Default(false)
	if got := r.BumpFor("unheard"); got != semver.BumpNone {
		t.Errorf("BumpFor(unknown) = %s, want none", got)
	}
	if got := r.BumpFor("other"); got != semver.BumpNone {
		t.Errorf("BumpFor(other) = %s, want none", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	r := Default(false)
	if err := r.Validate(); err != nil {
		t.Fatalf("default rule should validate: %v", err)
	}

	bad := Default(false)
	bad.Types.Set("feat", CommitType{Bump: "huge"})
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for bump level huge")
	}
}

func TestEmojiFor(t *testing.T) {
	t.Parallel()

	r := Default(true)
	if got := r.EmojiFor("feat", false); got != ":sparkles:" {
		t.Errorf("EmojiFor(feat, raw) = %q", got)
	}
	if got := r.EmojiFor("feat", true); got == ":sparkles:" || got == "" {
		t.Errorf("EmojiFor(feat, emojize) = %q, want unicode", got)
	}

	plain := Default(false)
	if got := plain.EmojiFor("feat", true); got != "" {
		t.Errorf("EmojiFor without emoji = %q, want empty", got)
	}
}

func TestWriteLoadRoundTripYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rule.yaml")

	orig := Default(true)
	orig.TagPrefix = "release-"
	orig.IncludeOther = true
	if err := Write(path, orig); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.TagPrefix != "release-" {
		t.Errorf("TagPrefix = %q, want release-", got.TagPrefix)
	}
	if !got.IncludeOther {
		t.Error("IncludeOther lost in round trip")
	}
	origKeys := orig.Types.Keys()
	gotKeys := got.Types.Keys()
	if len(origKeys) != len(gotKeys) {
		t.Fatalf("type count = %d, want %d", len(gotKeys), len(origKeys))
	}
	for i := range origKeys {
		if origKeys[i] != gotKeys[i] {
			t.Fatalf("type order changed: %v vs %v", gotKeys, origKeys)
		}
	}
	if got.BumpFor("feat") != semver.BumpMinor {
		t.Error("feat bump lost in round trip")
	}
}

func TestWriteLoadRoundTripJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rule.json")

	if err := Write(path, Default(false)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BumpFor("fix") != semver.BumpPatch {
		t.Error("fix bump lost in JSON round trip")
	}
}

func TestLoadNormalizesSparseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rule.yaml")
	content := "types:\n  feat:\n    bump: minor\n    section: Features\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TagPrefix != "v" {
		t.Errorf("TagPrefix = %q, want defaulted v", got.TagPrefix)
	}
	if got.BreakingSection != "Breaking Changes" {
		t.Errorf("BreakingSection = %q", got.BreakingSection)
	}
	if got.EntryFormat == "" {
		t.Error("EntryFormat not defaulted")
	}
	if got.BumpFor("feat") != semver.BumpMinor {
		t.Error("feat bump not loaded")
	}
}

func TestLoadRejectsBadBump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rule.yaml")
	content := "types:\n  feat:\n    bump: gigantic\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid bump level")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
