package main

import (
	"fmt"
	"time"

	"github.com/lgtm-hq/lgtm-release/internal/changelog"
	"github.com/lgtm-hq/lgtm-release/internal/ghaction"
	"github.com/lgtm-hq/lgtm-release/internal/history"
	"github.com/lgtm-hq/lgtm-release/internal/semver"
)

type changelogCmd struct {
	From      string `cli:"from" help:"range start ref (default: latest version tag; env FROM_REF)"`
	To        string `cli:"to" help:"range end ref (default: HEAD; env TO_REF)"`
	Version   string `cli:"version" help:"version for the section heading (default: Unreleased; env VERSION)"`
	Format    string `cli:"format" help:"markdown or json (env FORMAT)"`
	Output    string `cli:"output,o" help:"CHANGELOG file to update in place (env OUTPUT_FILE)"`
	TagPrefix string `cli:"tag-prefix" help:"version tag prefix (default from rule; env TAG_PREFIX)"`
	DryRun    bool   `cli:"dry-run,n" help:"with --output, print the diff instead of writing"`
}

func (c changelogCmd) Run(g globalCmd) error {
	ctx, err := g.setup()
	if err != nil {
		return err
	}

	format, err := changelog.ParseFormat(envOr(c.Format, "FORMAT"))
	if err != nil {
		return err
	}

	version := envOr(c.Version, "VERSION")
	if version != "" {
		v, err := semver.Parse(version)
		if err != nil {
			return err
		}
		version = v.String()
	}

	outputPath := envOr(c.Output, "OUTPUT_FILE")
	if outputPath != "" && format != changelog.FormatMarkdown {
		return fmt.Errorf("only the markdown format can update a changelog file")
	}

	prefix := firstNonEmpty(envOr(c.TagPrefix, "TAG_PREFIX"), ctx.rule.TagPrefix)
	fromRef := envOr(c.From, "FROM_REF")
	if fromRef == "" {
		if _, tag, found, err := ctx.repo.LatestVersionTag(prefix); err != nil {
			return err
		} else if found {
			fromRef = tag
		}
	}

	an, err := history.NewAnalyzer(ctx.repo, ctx.rule, ctx.log).Analyze(fromRef, envOr(c.To, "TO_REF"))
	if err != nil {
		return err
	}

	renderer := changelog.NewRenderer(ctx.rule, ctx.log)
	var content string
	switch format {
	case changelog.FormatJSON:
		content, err = renderer.RenderJSON(version, time.Now(), an)
		if err != nil {
			return err
		}
	default:
		content = renderer.Render(version, time.Now(), an)
	}

	out := ghaction.New(nil)

	switch {
	case outputPath == "":
		fmt.Print(content)
	case c.DryRun:
		diff, err := changelog.PreviewFile(outputPath, content)
		if err != nil {
			return err
		}
		fmt.Print(diff)
		ctx.log.Info().Str("file", outputPath).Msg("dry run, nothing written")
	default:
		if _, err := changelog.UpdateFile(outputPath, content); err != nil {
			return err
		}
		ctx.log.Info().Str("file", outputPath).Msg("changelog updated")
		if err := out.SetOutput("changelog_file", outputPath); err != nil {
			return err
		}
	}

	if err := out.SetOutput("changelog", content); err != nil {
		return err
	}
	if format == changelog.FormatMarkdown {
		return out.AddSummary(content)
	}
	return nil
}
