package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/lgtm-hq/lgtm-release/internal/rules"
)

var cmdEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// initRepo builds a repository with one commit per subject and a default
// rule file at the worktree root, the way `lgtm-release gen` leaves it.
func initRepo(t *testing.T, subjects ...string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	for i, msg := range subjects {
		when := cmdEpoch.Add(time.Duration(i) * time.Minute)
		if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte(msg), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		if _, err := wt.Add("file.txt"); err != nil {
			t.Fatalf("add: %v", err)
		}
		_, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: when},
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	if err := rules.Write(filepath.Join(dir, rules.DefaultFileName+".yaml"), rules.Default(false)); err != nil {
		t.Fatalf("write rule: %v", err)
	}
	return dir
}

func TestChangelogCmdUpdatesFile(t *testing.T) {
	dir := initRepo(t,
		"feat: add parser",
		"fix(core): handle empty input",
	)
	for _, v := range []string{"FROM_REF", "TO_REF", "FORMAT", "TAG_PREFIX"} {
		t.Setenv(v, "")
	}
	runnerDir := t.TempDir()
	outputFile := filepath.Join(runnerDir, "output")
	summaryFile := filepath.Join(runnerDir, "summary")
	t.Setenv("GITHUB_OUTPUT", outputFile)
	t.Setenv("GITHUB_STEP_SUMMARY", summaryFile)

	changelogPath := filepath.Join(dir, "CHANGELOG.md")
	cmd := changelogCmd{Version: "1.0.0", Output: changelogPath}
	if err := cmd.Run(globalCmd{Dir: dir, Quiet: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	content, err := os.ReadFile(changelogPath)
	if err != nil {
		t.Fatalf("read changelog: %v", err)
	}
	for _, want := range []string{
		"## [1.0.0] - ",
		"### Features",
		"- add parser (",
		"### Bug Fixes",
		"- **core**: handle empty input (",
	} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("changelog misses %q:\n%s", want, content)
		}
	}

	out, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	if !strings.Contains(string(out), "changelog_file="+changelogPath+"\n") {
		t.Fatalf("outputs miss changelog_file:\n%s", out)
	}
	if !strings.Contains(string(out), "changelog<<") {
		t.Fatalf("outputs miss the multiline changelog value:\n%s", out)
	}

	summary, err := os.ReadFile(summaryFile)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(summary), "## [1.0.0] - ") {
		t.Fatalf("summary misses the release heading:\n%s", summary)
	}
}
