package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/ghcli"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

type publishCmd struct {
	Tag          string `cli:"tag" help:"existing tag to publish (required; env TAG)"`
	Title        string `cli:"title" help:"release title (default: the tag name; env TITLE)"`
	Notes        string `cli:"notes" help:"release body (env BODY)"`
	NotesFile    string `cli:"notes-file,F" help:"read the release body from a file (env NOTES_FILE)"`
	Draft        bool   `cli:"draft" help:"create the release as a draft (env DRAFT)"`
	Prerelease   bool   `cli:"prerelease" help:"mark as prerelease (auto-set for versions like 1.2.3-rc.1; env PRERELEASE)"`
	SkipExisting bool   `cli:"skip-existing" help:"succeed quietly when the release already exists"`
}

func (c publishCmd) Run(g globalCmd) error {
	ctx, err := g.setup()
	if err != nil {
		return err
	}

	tag := envOr(c.Tag, "TAG")
	if tag == "" {
		return fmt.Errorf("tag is required (--tag or TAG)")
	}

	exists, err := ctx.repo.TagExists(tag)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("tag %s does not exist; create it first", tag)
	}

	title := firstNonEmpty(envOr(c.Title, "TITLE"), tag)

	body := envOr(c.Notes, "BODY")
	if notesFile := envOr(c.NotesFile, "NOTES_FILE"); notesFile != "" {
		raw, err := os.ReadFile(notesFile)
		if err != nil {
			return err
		}
		body = string(raw)
	}

	prefix := firstNonEmpty(os.Getenv("TAG_PREFIX"), ctx.rule.TagPrefix)
	prerelease := envBool(c.Prerelease, "PRERELEASE") || tagLooksPrerelease(tag, prefix)

	gh := ghcli.New(ctx.repo.Root(), ctx.log)
	out := ghaction.New(os.Stdout)

	if c.SkipExisting {
		published, err := gh.ReleaseExists(tag)
		if err != nil {
			return err
		}
		if published {
			ctx.log.Info().Str("tag", tag).Msg("release already exists, skipping")
			return out.SetOutput("release_url", "")
		}
	}

	url, err := gh.CreateRelease(tag, title, body, envBool(c.Draft, "DRAFT"), prerelease)
	if err != nil {
		return err
	}

	if err := out.SetOutput("release_url", url); err != nil {
		return err
	}
	return out.AddSummary("## Release\n\n" + url + "\n")
}

func tagLooksPrerelease(tag, prefix string) bool {
	v, err := semver.Parse(strings.TrimPrefix(tag, prefix))
	return err == nil && v.Prerelease != ""
}
