package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lgtm-hq/lgtm-release/internal/changelog"
	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/ghcli"
	"github.com/lgtm-hq/lgtm-release/internal/history"
	"github.com/lgtm-hq/lgtm-release/internal/release"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

// envOr keeps the workflow-file contract of the original actions: a flag
// wins, the env var is the fallback.
func envOr(value, envName string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envName)
}

func envBool(value bool, envName string) bool {
	if value {
		return true
	}
	switch strings.ToLower(os.Getenv(envName)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseMaxBump reads the bump ceiling. Empty means no cap.
func parseMaxBump(s string) (semver.BumpLevel, error) {
	if s == "" {
		return semver.BumpMajor, nil
	}
	l, err := semver.ParseBumpLevel(s)
	if err != nil {
		return semver.BumpMajor, fmt.Errorf("max bump: %w", err)
	}
	return l, nil
}

func (g globalCmd) newOrchestrator(ctx cmdContext, prefix string, maxBump semver.BumpLevel, remote string) *release.Orchestrator {
	return release.New(
		release.Config{TagPrefix: prefix, MaxBump: maxBump, Remote: remote},
		history.NewAnalyzer(ctx.repo, ctx.rule, ctx.log),
		ctx.repo,
		ctx.repo,
		ghcli.New(ctx.repo.Root(), ctx.log),
		changelog.NewRenderer(ctx.rule, ctx.log),
		ctx.log,
	)
}

// writeAnalysisOutputs records what the analysis decided. Version keys for
// the next release only show up when one is needed, so workflow steps can
// gate on release_needed alone.
func writeAnalysisOutputs(out *ghaction.Writer, res release.Result) error {
	if err := out.SetOutput("current_version", res.Current.String()); err != nil {
		return err
	}
	if err := out.SetOutput("bump_level", res.Bump.String()); err != nil {
		return err
	}
	if err := out.SetOutput("release_needed", strconv.FormatBool(res.ReleaseNeeded())); err != nil {
		return err
	}
	if !res.ReleaseNeeded() {
		return nil
	}
	if err := out.SetOutput("next_version", res.Next.String()); err != nil {
		return err
	}
	if err := out.SetOutput("tag", res.Tag); err != nil {
		return err
	}
	if err := out.ExportEnv("RELEASE_VERSION", res.Next.String()); err != nil {
		return err
	}
	return out.ExportEnv("RELEASE_TAG", res.Tag)
}

// buildSummary renders the job summary table for an analysis or a full
// release run.
func buildSummary(res release.Result) string {
	var b strings.Builder
	b.WriteString("## Release\n\n")
	b.WriteString("| | |\n|---|---|\n")

	current := res.Current.String()
	if res.CurrentTag != "" {
		current += " (" + res.CurrentTag + ")"
	}
	fmt.Fprintf(&b, "| Current version | %s |\n", current)

	rangeLabel := res.ToRef
	if res.FromRef != "" {
		rangeLabel = res.FromRef + ".." + res.ToRef
	}
	fmt.Fprintf(&b, "| Range | %s |\n", rangeLabel)
	fmt.Fprintf(&b, "| Commits | %d (%s) |\n", res.Analysis.Total, countsLabel(res.Analysis))

	bump := res.Bump.String()
	if res.RawBump != res.Bump {
		bump += " (capped from " + res.RawBump.String() + ")"
	}
	fmt.Fprintf(&b, "| Bump level | %s |\n", bump)

	if !res.ReleaseNeeded() {
		b.WriteString("| Release needed | no |\n")
		return b.String()
	}
	fmt.Fprintf(&b, "| Next version | %s |\n", res.Next)
	fmt.Fprintf(&b, "| Tag | %s |\n", res.Tag)
	if res.Pushed {
		b.WriteString("| Pushed | yes |\n")
	}
	if res.ReleaseURL != "" {
		fmt.Fprintf(&b, "| Release | %s |\n", res.ReleaseURL)
	}
	return b.String()
}

func countsLabel(an history.Analysis) string {
	if len(an.Counts) == 0 {
		return "none"
	}
	types := make([]string, 0, len(an.Counts))
	for t := range an.Counts {
		types = append(types, t)
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s: %d", t, an.Counts[t]))
	}
	return strings.Join(parts, ", ")
}
