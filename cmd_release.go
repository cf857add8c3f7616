package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	prompt "github.com/elk-language/go-prompt"
	pstrings "github.com/elk-language/go-prompt/strings"
	"github.com/mattn/go-isatty"

	"github.com/lgtm-hq/lgtm-release/internal/changelog"
	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/release"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

type releaseCmd struct {
	From      string `cli:"from" help:"range start ref (default: latest version tag; env FROM_REF)"`
	To        string `cli:"to" help:"range end ref (default: HEAD; env TO_REF)"`
	MaxBump   string `cli:"max-bump" help:"cap the bump level at patch, minor or major (env MAX_BUMP)"`
	TagPrefix string `cli:"tag-prefix" help:"version tag prefix (default from rule; env TAG_PREFIX)"`

	ChangelogFile string `cli:"changelog" help:"CHANGELOG file to update before tagging (env CHANGELOG_FILE)"`
	Message       string `cli:"message,m" help:"tag message (default: Release <tag>; env MESSAGE)"`

	Push         bool   `cli:"push" help:"push the tag to the remote (env PUSH)"`
	Publish      bool   `cli:"publish" help:"create the GitHub release (env PUBLISH)"`
	Draft        bool   `cli:"draft" help:"create the release as a draft (env DRAFT)"`
	Prerelease   bool   `cli:"prerelease" help:"mark the release as prerelease (auto-set for prerelease versions; env PRERELEASE)"`
	SkipExisting bool   `cli:"skip-existing" help:"do not fail when the release already exists"`
	Remote       string `cli:"remote" help:"remote to push to (default: origin; env REMOTE)"`

	Interactive bool `cli:"interactive,i" help:"pick the next version on a prompt"`
	DryRun      bool `cli:"dry-run,n" help:"report what would happen without tagging, pushing or writing"`
}

func (c releaseCmd) Run(g globalCmd) error {
	ctx, err := g.setup()
	if err != nil {
		return err
	}

	maxBump, err := parseMaxBump(envOr(c.MaxBump, "MAX_BUMP"))
	if err != nil {
		return err
	}
	prefix := firstNonEmpty(envOr(c.TagPrefix, "TAG_PREFIX"), ctx.rule.TagPrefix)

	orch := g.newOrchestrator(ctx, prefix, maxBump, envOr(c.Remote, "REMOTE"))
	res, err := orch.Analyze(envOr(c.From, "FROM_REF"), envOr(c.To, "TO_REF"))
	if err != nil {
		return err
	}

	out := ghaction.New(os.Stdout)

	if !res.ReleaseNeeded() {
		ctx.log.Info().Msg("nothing to release")
		if err := writeAnalysisOutputs(out, res); err != nil {
			return err
		}
		return out.AddSummary(buildSummary(res))
	}

	if c.Interactive {
		if ghaction.InActions() || !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		picked, err := pickVersion(res)
		if err != nil {
			return err
		}
		if picked != res.Next {
			if err := orch.OverrideNext(picked); err != nil {
				return err
			}
			res = orch.Result()
		}
	}

	changelogFile := envOr(c.ChangelogFile, "CHANGELOG_FILE")

	if c.DryRun {
		ctx.log.Info().
			Str("next", res.Next.String()).
			Str("tag", res.Tag).
			Msg("dry run, stopping before any writes")
		if changelogFile != "" {
			diff, err := changelog.PreviewFile(changelogFile, res.Notes)
			if err != nil {
				return err
			}
			fmt.Print(diff)
		} else {
			fmt.Print(res.Notes)
		}
		return writeAnalysisOutputs(out, res)
	}

	if changelogFile != "" {
		if _, err := changelog.UpdateFile(changelogFile, res.Notes); err != nil {
			return err
		}
		ctx.log.Info().Str("file", changelogFile).Msg("changelog updated")
		if err := out.SetOutput("changelog_file", changelogFile); err != nil {
			return err
		}
	}

	if err := orch.Tag(envOr(c.Message, "MESSAGE")); err != nil {
		return err
	}

	push := envBool(c.Push, "PUSH")
	publish := envBool(c.Publish, "PUBLISH")
	if push || publish {
		err := orch.Publish(release.PublishOptions{
			Push:          push,
			CreateRelease: publish,
			Draft:         envBool(c.Draft, "DRAFT"),
			Prerelease:    envBool(c.Prerelease, "PRERELEASE") || res.Next.Prerelease != "",
			SkipExisting:  c.SkipExisting,
		})
		if err != nil {
			return err
		}
	}
	res = orch.Result()

	if err := writeAnalysisOutputs(out, res); err != nil {
		return err
	}
	if err := out.SetOutput("changelog", res.Notes); err != nil {
		return err
	}
	if err := out.SetOutput("pushed", strconv.FormatBool(res.Pushed)); err != nil {
		return err
	}
	if res.ReleaseURL != "" {
		if err := out.SetOutput("release_url", res.ReleaseURL); err != nil {
			return err
		}
	}
	return out.AddSummary(buildSummary(res))
}

// pickVersion lets the operator accept the computed version or type another
// one. Candidates for all three bump levels show up as completions.
func pickVersion(res release.Result) (semver.Version, error) {
	items := []prompt.Suggest{
		{Text: res.Next.String(), Description: "computed (" + res.Bump.String() + " bump)"},
	}
	for _, l := range []semver.BumpLevel{semver.BumpPatch, semver.BumpMinor, semver.BumpMajor} {
		v, err := res.Current.Bump(l)
		if err != nil || v == res.Next {
			continue
		}
		items = append(items, prompt.Suggest{Text: v.String(), Description: l.String() + " bump"})
	}

	completer := func(in prompt.Document) ([]prompt.Suggest, pstrings.RuneNumber, pstrings.RuneNumber) {
		endIndex := in.CurrentRuneIndex()
		w := in.GetWordBeforeCursor()
		startIndex := endIndex - pstrings.RuneCountInString(w)

		return prompt.FilterHasPrefix(items, w, true), startIndex, endIndex
	}

	for {
		in := prompt.Input(
			prompt.WithPrefix("Next version ["+res.Next.String()+"]: "),
			prompt.WithCompleter(completer),
			prompt.WithShowCompletionAtStart(),
		)
		in = strings.TrimSpace(in)
		if in == "" {
			return res.Next, nil
		}
		v, err := semver.Parse(in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "not a semantic version:", in)
			continue
		}
		if semver.Compare(v, res.Current) <= 0 {
			fmt.Fprintf(os.Stderr, "%s does not move forward from %s\n", v, res.Current)
			continue
		}
		return v, nil
	}
}
